package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"suggest-combiner/internal/observe"
)

func newLambdaCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve API Gateway proxy events (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLambda(cmd.Context(), v)
		},
	}
}

func runLambda(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	setupLogger(v, true)

	h, err := buildHandler(ctx, v, observe.NoopMetrics())
	if err != nil {
		return err
	}
	lambda.Start(h.Handle)
	return nil
}
