// Package llm talks to text-generation backends and turns their output into
// a structured meal plan.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	svcErr "github.com/oggyb/fittrack/internal/errors"
)

// Tag selects a provider backend.
type Tag string

const (
	OpenAI    Tag = "openai"
	Anthropic Tag = "anthropic"
	Ollama    Tag = "ollama"
)

func ParseTag(s string) (Tag, error) {
	switch t := Tag(strings.ToLower(strings.TrimSpace(s))); t {
	case OpenAI, Anthropic, Ollama:
		return t, nil
	}
	return "", svcErr.Invalidf("unknown llm provider %q", s)
}

// DefaultModel is the model used for a provider when none is configured.
func DefaultModel(t Tag) string {
	switch t {
	case Anthropic:
		return "claude-3-sonnet-20240229"
	case Ollama:
		return "llama3.1:70b"
	default:
		return "gpt-4"
	}
}

// Params are the per-call generation knobs.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider is one text-generation backend. Generate returns the raw text the
// model produced for prompt.
type Provider interface {
	Tag() Tag
	Generate(ctx context.Context, prompt string, p Params) (string, error)
}

// systemPrompt is sent as the system role where the backend has one and is
// prefixed to the prompt otherwise.
const systemPrompt = "You are a professional nutritionist. Respond only with valid JSON format."

// ProviderError carries the originating provider and the raw failure. It
// matches both errors.Is(err, svcErr.ErrUpstream) and the wrapped cause.
type ProviderError struct {
	Provider Tag
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{svcErr.ErrUpstream, e.Err}
}

// ErrInvalidOutput marks provider text that could not be parsed into a plan.
var ErrInvalidOutput = errors.New("invalid provider output")

// Config is the generation configuration for a meal plan request.
type Config struct {
	Provider    Tag
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultConfig is openai / gpt-4 / 0.7 / 4000.
func DefaultConfig() Config {
	return Config{
		Provider:    OpenAI,
		Model:       DefaultModel(OpenAI),
		Temperature: 0.7,
		MaxTokens:   4000,
	}
}

// Overrides are caller-supplied changes to a Config. Nil fields keep the
// base value.
type Overrides struct {
	Provider    *Tag
	Model       *string
	Temperature *float64
	MaxTokens   *int
}

// Merge applies o field by field. Switching provider without naming a model
// selects that provider's default model.
func (c Config) Merge(o Overrides) Config {
	out := c
	if o.Provider != nil && *o.Provider != c.Provider {
		out.Provider = *o.Provider
		out.Model = DefaultModel(out.Provider)
	}
	if o.Model != nil && *o.Model != "" {
		out.Model = *o.Model
	}
	if o.Temperature != nil {
		out.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		out.MaxTokens = *o.MaxTokens
	}
	return out
}

// Validate rejects configurations no backend can serve.
func (c Config) Validate() error {
	if _, err := ParseTag(string(c.Provider)); err != nil {
		return err
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return svcErr.Invalidf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return svcErr.Invalidf("max tokens must be positive")
	}
	return nil
}

// Params returns the per-call knobs of c.
func (c Config) Params() Params {
	return Params{Model: c.Model, Temperature: c.Temperature, MaxTokens: c.MaxTokens}
}

// ModelID is how a plan records which model produced it.
func (c Config) ModelID() string {
	return string(c.Provider) + "-" + c.Model
}
