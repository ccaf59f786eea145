package usecase

import (
	"strings"

	"suggest-combiner/internal/domain"
)

const (
	completionMaxTokens   = 500
	completionTemperature = 0.7
)

func buildCompositionRequest(fragments []string) domain.ChatRequest {
	return domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: buildPersonaPrompt()},
			{Role: "user", Content: buildCompositionPrompt(fragments)},
		},
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	}
}

func buildPersonaPrompt() string {
	return "You are a polite assistant who composes a buyer's message to a seller on a classifieds site."
}

func buildCompositionPrompt(fragments []string) string {
	return strings.Join([]string{
		"Combine the buyer's message fragments below into a single message to the seller.",
		"",
		"Rules:",
		compositionRules(),
		"",
		"Fragments:",
		fragmentList(fragments),
	}, "\n")
}

func compositionRules() string {
	return strings.Join([]string{
		"1) Open with a greeting.",
		"2) Merge all fragments into one coherent passage.",
		"3) Preserve the meaning of every fragment.",
		"4) Address the seller politely and formally.",
		"5) Do not add any information that is not present in the fragments.",
		"6) Write the message in Russian.",
		"7) Return only the final message, without quotes or commentary.",
	}, "\n")
}

func fragmentList(fragments []string) string {
	lines := make([]string, len(fragments))
	for i, f := range fragments {
		lines[i] = "- " + f
	}
	return strings.Join(lines, "\n")
}
