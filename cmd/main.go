package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"suggest-combiner/handler"
	"suggest-combiner/internal/config"
	"suggest-combiner/internal/integrations/openai"
	"suggest-combiner/internal/integrations/paramstore"
	"suggest-combiner/internal/observe"
	"suggest-combiner/internal/usecase"
)

// Process-level settings. They are read once at startup; LLM connection
// settings are resolved per request by config.Resolver.
const (
	keyParamPrefix = "param_prefix"
	keyLLMTimeout  = "llm_timeout"
	keyCORSOrigin  = "cors_allow_origin"
	keyLogLevel    = "log_level"

	defaultLLMTimeout = 15 * time.Second
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "suggest-combiner",
		Short:         "Combines buyer message fragments into one message for a seller",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLambda(cmd.Context(), v)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "optional YAML config file")
	flags.String("param-prefix", "", "SSM parameter prefix for LLM settings (env PARAM_PREFIX)")
	flags.Duration("llm-timeout", defaultLLMTimeout, "LLM request timeout (env LLM_TIMEOUT)")
	flags.String("cors-origin", "*", "Access-Control-Allow-Origin value (env CORS_ALLOW_ORIGIN)")
	flags.String("log-level", "info", "debug, info, warn or error (env LOG_LEVEL)")

	_ = v.BindPFlag(keyParamPrefix, flags.Lookup("param-prefix"))
	_ = v.BindPFlag(keyLLMTimeout, flags.Lookup("llm-timeout"))
	_ = v.BindPFlag(keyCORSOrigin, flags.Lookup("cors-origin"))
	_ = v.BindPFlag(keyLogLevel, flags.Lookup("log-level"))

	root.AddCommand(newLambdaCmd(v), newServeCmd(v))
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.AutomaticEnv()
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

// buildHandler wires the request path shared by the lambda and serve modes.
func buildHandler(ctx context.Context, v *viper.Viper, metrics usecase.Recorder) (*handler.Handler, error) {
	sources := config.Chain{config.NewEnvSource(v)}

	if prefix := strings.TrimSpace(v.GetString(keyParamPrefix)); prefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("create SSM client: %w", err)
		}
		ssmSource, err := config.NewParamStoreSource(ssmClient, prefix)
		if err != nil {
			return nil, fmt.Errorf("create parameter store source: %w", err)
		}
		sources = append(sources, ssmSource)
	}

	resolver, err := config.NewResolver(sources)
	if err != nil {
		return nil, fmt.Errorf("create config resolver: %w", err)
	}

	llmClient, err := openai.NewClient(openai.WithTimeout(llmTimeout(v)))
	if err != nil {
		return nil, fmt.Errorf("create OpenAI client: %w", err)
	}

	combineService, err := usecase.NewCombineService(resolver, llmClient, metrics)
	if err != nil {
		return nil, fmt.Errorf("create combine service: %w", err)
	}
	healthService, err := usecase.NewHealthService(resolver)
	if err != nil {
		return nil, fmt.Errorf("create health service: %w", err)
	}

	snapshot := resolver.Resolve(ctx).Snapshot()
	slog.InfoContext(ctx, "configuration loaded",
		"api_key_set", snapshot.APIKeySet,
		"base_url", snapshot.BaseURL,
		"model", snapshot.Model,
		"param_store", len(sources) > 1,
		"llm_timeout", llmTimeout(v),
	)

	return handler.NewHandler(combineService, healthService,
		handler.WithAllowedOrigin(v.GetString(keyCORSOrigin)),
	)
}

func llmTimeout(v *viper.Viper) time.Duration {
	d := v.GetDuration(keyLLMTimeout)
	if d <= 0 {
		return defaultLLMTimeout
	}
	return d
}

func setupLogger(v *viper.Viper, json bool) {
	opts := &slog.HandlerOptions{Level: observe.ParseLevel(v.GetString(keyLogLevel))}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if json {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
