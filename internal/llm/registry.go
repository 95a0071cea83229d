package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/oggyb/fittrack/internal/config"
	svcErr "github.com/oggyb/fittrack/internal/errors"
	"github.com/oggyb/fittrack/internal/metrics"
)

// Generator is what the meal plan orchestrator needs from the provider layer.
type Generator interface {
	Generate(ctx context.Context, cfg Config, prompt string) (*PlanResponse, error)
}

type entry struct {
	provider Provider
	timeout  time.Duration
}

// Registry maps provider tags to backends, each with its own call timeout.
type Registry struct {
	mu      sync.RWMutex
	entries map[Tag]entry
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{entries: make(map[Tag]entry), logger: logger}
}

// NewRegistryFromConfig registers the OpenAI, Anthropic and Ollama backends.
func NewRegistryFromConfig(cfg *config.Config, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	client := &http.Client{}
	r.Register(NewOpenAIClient(cfg.LLM.OpenAI.BaseURL, cfg.LLM.OpenAI.APIKey, client, logger), cfg.LLM.OpenAI.Timeout)
	r.Register(NewAnthropicClient(cfg.LLM.Anthropic.BaseURL, cfg.LLM.Anthropic.APIKey, client, logger), cfg.LLM.Anthropic.Timeout)
	r.Register(NewOllamaClient(cfg.LLM.Ollama.BaseURL, client, logger), cfg.LLM.Ollama.Timeout)
	return r
}

// Register adds or replaces the backend for p.Tag(). A zero timeout means
// the call is bounded only by the caller's context.
func (r *Registry) Register(p Provider, timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[p.Tag()] = entry{provider: p, timeout: timeout}
}

// Get returns the backend registered for tag.
func (r *Registry) Get(tag Tag) (Provider, time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[tag]
	if !ok {
		return nil, 0, svcErr.Invalidf("llm provider %q is not configured", tag)
	}
	return e.provider, e.timeout, nil
}

// Generate runs prompt on the configured backend and parses the result.
// Timeouts, transport errors and unparseable output come back as
// *ProviderError.
func (r *Registry) Generate(ctx context.Context, cfg Config, prompt string) (*PlanResponse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, timeout, err := r.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	provider := string(cfg.Provider)
	start := time.Now()
	text, err := p.Generate(ctx, prompt, cfg.Params())
	duration := time.Since(start)
	metrics.LLMGenerationDuration.WithLabelValues(provider).Observe(duration.Seconds())

	if err != nil {
		result := metrics.ResultFailure
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result = metrics.ResultTimeout
			err = fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
		}
		metrics.LLMGenerationTotal.WithLabelValues(provider, result).Inc()
		r.logger.Error("llm generation failed", "provider", provider, "model", cfg.Model, "duration_ms", duration.Milliseconds(), "err", err)
		return nil, &ProviderError{Provider: cfg.Provider, Err: err}
	}

	plan, err := ParsePlan(text)
	if err != nil {
		metrics.LLMGenerationTotal.WithLabelValues(provider, metrics.ResultInvalid).Inc()
		r.logger.Error("llm output unparseable", "provider", provider, "model", cfg.Model, "err", err)
		return nil, &ProviderError{Provider: cfg.Provider, Err: err}
	}

	metrics.LLMGenerationTotal.WithLabelValues(provider, metrics.ResultSuccess).Inc()
	r.logger.Info("llm generation", "provider", provider, "model", cfg.Model, "meals", len(plan.Meals), "duration_ms", duration.Milliseconds())
	return plan, nil
}
