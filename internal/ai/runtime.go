package ai

import "context"

// Runtime is a minimal interface implemented by hosted model backends
// such as Gemini and OpenRouter.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for selection.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResponse is the provider-neutral answer.
type GenerateResponse struct {
	Text      string `json:"text"`
	Usage     Usage  `json:"usage"`
	RequestID string `json:"-"`
}

// userPrompt wraps a single prompt as a one-message conversation.
func userPrompt(model, prompt string) GenerateRequest {
	return GenerateRequest{Model: model, Messages: []Message{{Role: "user", Content: prompt}}}
}
