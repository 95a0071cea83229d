package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// OpenAIClient calls the chat completions endpoint in JSON mode.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenAIClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.With("provider", string(OpenAI)),
	}
}

func (c *OpenAIClient) Tag() Tag { return OpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai api key not configured")
	}

	payload := chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    p.Temperature,
		MaxTokens:      p.MaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var out chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := postJSON(ctx, c.httpClient, c.logger, "chat_completion", c.baseURL+"/chat/completions", headers, payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
