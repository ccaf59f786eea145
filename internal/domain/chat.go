package domain

// ChatMessage is the provider-agnostic chat message shape used by the prompt
// builder and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one bounded completion request.
type ChatRequest struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}
