// Package llm provides the generative-text completers used to rephrase
// matched answers and analyze resumes: Gemini (google.golang.org/genai)
// and any OpenAI-compatible endpoint (go-openai).
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config selects and tunes a completer.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Retries  int
}

// New builds the configured completer, wrapped with retries, a per-call
// timeout and metrics. It returns (nil, nil) when the provider is "none" or
// no API key is available; callers then run without rephrasing.
func New(ctx context.Context, cfg Config, log *zap.Logger) (domain.Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" || provider == ProviderNone {
		return nil, nil
	}
	if cfg.APIKey == "" {
		log.Warn("no API key configured, answers will not be rephrased",
			zap.String("provider", provider))
		return nil, nil
	}

	var (
		c   domain.Completer
		err error
	)
	switch provider {
	case ProviderGemini:
		c, err = NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderOpenAI:
		c = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	c = WithRetry(c, cfg.Retries)
	if cfg.Timeout > 0 {
		c = WithTimeout(c, cfg.Timeout)
	}
	return Instrument(c, provider), nil
}

// ─── Decorators ─────────────────────────────────────────────────────────────

// CompleterFunc adapts a function to domain.Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// WithTimeout bounds every call to c by d.
func WithTimeout(c domain.Completer, d time.Duration) domain.Completer {
	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return c.Complete(ctx, prompt)
	})
}

// Instrument records latency and failures of c under the provider label.
func Instrument(c domain.Completer, provider string) domain.Completer {
	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := c.Complete(ctx, prompt)
		metrics.CompletionLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.CompletionFailures.WithLabelValues(provider).Inc()
		}
		return out, err
	})
}

// emptyCompletion is returned when a provider answers with no text.
func emptyCompletion(provider string) error {
	return fmt.Errorf("%s returned an empty completion: %w", provider, domain.ErrServiceUnavailable)
}
