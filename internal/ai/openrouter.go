package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient calls an OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	client  *resty.Client
	apiKey  string
	baseURL string
}

type chatChoice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// NewOpenRouterClient returns a client. An empty baseURL selects openrouter.ai.
func NewOpenRouterClient(apiKey string, httpTimeout time.Duration, baseURL string) *OpenRouterClient {
	if httpTimeout <= 0 {
		httpTimeout = 120 * time.Second
	}
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &OpenRouterClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(httpTimeout).
			SetHeader("HTTP-Referer", "https://github.com/KaramelBytes/edaloom").
			SetHeader("X-Title", "edaloom"),
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (c *OpenRouterClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("OpenRouter API key is missing")
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	res, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnreachableError{Host: c.baseURL, Err: err}
	}
	if !res.IsSuccess() {
		return nil, classifyAPIError(newAPIError(res.StatusCode(), res.Header(), res.Body()), res.Header())
	}

	var out chatResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		reason := ""
		if len(out.Choices) > 0 {
			reason = out.Choices[0].FinishReason
		}
		return nil, &EmptyResponseError{Reason: reason}
	}
	return &GenerateResponse{
		Text:      out.Choices[0].Message.Content,
		Usage:     out.Usage,
		RequestID: extractRequestID(res.Header()),
	}, nil
}
