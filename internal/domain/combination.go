package domain

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"

	HealthStatusOK = "OK"
)

// LLMConfig holds the connection parameters for the completion API as
// resolved for a single call.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Usable reports whether the LLM path may be attempted.
func (c LLMConfig) Usable() bool {
	return c.APIKey != ""
}

// Snapshot returns the secret-free view of c.
func (c LLMConfig) Snapshot() ConfigSnapshot {
	return ConfigSnapshot{
		APIKeySet: c.Usable(),
		BaseURL:   c.BaseURL,
		Model:     c.Model,
	}
}

// CombineInput carries the ordered fragments to combine. A nil Messages slice
// means the field was absent from the request.
type CombineInput struct {
	Messages []string
}

type CombinationResult struct {
	CombinedMessage string
	OriginalCount   int
	UsedLLM         bool
}

type ConfigSnapshot struct {
	APIKeySet bool
	BaseURL   string
	Model     string
}

type HealthStatus struct {
	Status       string
	LLMAvailable bool
	Config       ConfigSnapshot
}
