package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient calls the messages endpoint.
type AnthropicClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewAnthropicClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *AnthropicClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnthropicClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.With("provider", string(Anthropic)),
	}
}

func (c *AnthropicClient) Tag() Tag { return Anthropic }

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *AnthropicClient) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic api key not configured")
	}

	payload := messagesRequest{
		Model:       p.Model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		Messages: []chatMessage{
			{Role: "user", Content: systemPrompt + "\n\n" + prompt},
		},
	}

	var out messagesResponse
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, c.httpClient, c.logger, "messages", c.baseURL+"/messages", headers, payload, &out); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("messages response had no text content")
	}
	return b.String(), nil
}
