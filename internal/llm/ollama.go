package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// OllamaClient calls a local Ollama server. It needs no credentials.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOllamaClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *OllamaClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With("provider", string(Ollama)),
	}
}

func (c *OllamaClient) Tag() Tag { return Ollama }

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	payload := ollamaRequest{
		Model:  p.Model,
		Prompt: systemPrompt + "\n\n" + prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: p.Temperature,
			NumPredict:  p.MaxTokens,
		},
	}

	var out ollamaResponse
	if err := postJSON(ctx, c.httpClient, c.logger, "generate", c.baseURL+"/api/generate", nil, payload, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
