// Package model wraps the language model that writes the answers. The model
// itself runs out of process, in an Ollama daemon or behind an
// OpenAI-compatible server.
package model

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/koenighotze/search-assistant/config"
	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/koenighotze/search-assistant/internal/metrics"
	"github.com/koenighotze/search-assistant/internal/query"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/semaphore"
)

const warmUpPrompt = "ping"

var ErrClosed = errors.New("model backend is closed")

// TokenCounter estimates how many tokens model uses for text.
type TokenCounter func(model, text string) int

// Backend is constructed once at startup and shared by all requests. At most
// MaxConcurrent generations run at the same time; the rest wait in line.
type Backend struct {
	llm           llms.Model
	name          string
	maxLength     int
	temperature   float64
	maxConcurrent int64
	countTokens   TokenCounter
	sem           *semaphore.Weighted
	draining      atomic.Bool
	closed        atomic.Bool
}

type Option func(*Backend)

func WithTokenCounter(f TokenCounter) Option {
	return func(b *Backend) {
		b.countTokens = f
	}
}

// New connects to the configured provider and runs a one-token generation so
// the model is loaded before the first request. Any failure is an
// initialization error and the caller must not start serving.
func New(ctx context.Context, cfg config.Model, opts ...Option) (*Backend, error) {
	llm, err := newLLM(cfg)
	if err != nil {
		return nil, query.InitializationError("create %s client for %s: %w", cfg.Provider, cfg.Name, err)
	}

	b := NewWithLLM(llm, cfg, opts...)

	initCtx, cancel := context.WithTimeout(ctx, cfg.InitTimeout.Std())
	defer cancel()

	start := time.Now()
	if _, err := llms.GenerateFromSinglePrompt(initCtx, b.llm, warmUpPrompt, llms.WithMaxTokens(1)); err != nil {
		return nil, query.InitializationError("warm up model %s: %w", cfg.Name, err)
	}
	logger.Log.Info("Model is loaded",
		"provider", cfg.Provider,
		"model", cfg.Name,
		"seconds", time.Since(start).Seconds())

	return b, nil
}

// NewWithLLM builds a backend over an already constructed model without
// warming it up.
func NewWithLLM(llm llms.Model, cfg config.Model, opts ...Option) *Backend {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	b := &Backend{
		llm:           llm,
		name:          cfg.Name,
		maxLength:     cfg.MaxLength,
		temperature:   cfg.Temperature,
		maxConcurrent: maxConcurrent,
		sem:           semaphore.NewWeighted(maxConcurrent),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.countTokens == nil {
		b.countTokens = newTokenCounter()
	}
	return b
}

func newLLM(cfg config.Model) (llms.Model, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return newOllama(cfg)
	case config.ProviderOpenAI:
		return newResponsesModel(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// GenerateResponse answers query from searchContext. The prompt and the
// generated text together stay within the configured max length unless that
// leaves fewer than minNewTokens for the answer. Only the generated text is
// returned, without special tokens.
func (b *Backend) GenerateResponse(ctx context.Context, q, searchContext string) (string, error) {
	if b.closed.Load() {
		return "", query.GenerationError(ErrClosed)
	}

	prompt := query.Compose(q, searchContext)

	promptTokens := b.countTokens(b.name, prompt)
	metrics.PromptTokens.Observe(float64(promptTokens))
	maxNewTokens := b.maxLength - promptTokens
	if maxNewTokens < minNewTokens {
		logger.Log.Warn("Prompt leaves little room below the max length",
			"promptTokens", promptTokens,
			"maxLength", b.maxLength,
			"maxNewTokens", minNewTokens)
		maxNewTokens = minNewTokens
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", query.GenerationError(fmt.Errorf("wait for model: %w", err))
	}
	defer b.sem.Release(1)

	metrics.BackendInFlight.Inc()
	defer metrics.BackendInFlight.Dec()

	logger.Log.Debug("Generating",
		"model", b.name,
		"promptTokens", promptTokens,
		"maxNewTokens", maxNewTokens)

	start := time.Now()
	completion, err := llms.GenerateFromSinglePrompt(ctx, b.llm, prompt,
		llms.WithMaxTokens(maxNewTokens),
		llms.WithN(1),
		llms.WithTemperature(b.temperature),
	)
	metrics.GenerationDuration.WithLabelValues(b.name).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", query.GenerationError(fmt.Errorf("generate: %w", err))
	}

	return cleanupAnswer(prompt, completion), nil
}

// Ready reports whether the backend wants new work.
func (b *Backend) Ready() bool {
	return !b.draining.Load() && !b.closed.Load()
}

// Drain marks the backend as not ready while it keeps answering, so load
// balancers stop routing to it before the listener closes.
func (b *Backend) Drain() {
	b.draining.Store(true)
}

// Close stops accepting generations and waits for running ones until ctx
// is done.
func (b *Backend) Close(ctx context.Context) error {
	if b.closed.Swap(true) {
		return nil
	}
	if err := b.sem.Acquire(ctx, b.maxConcurrent); err != nil {
		return fmt.Errorf("wait for running generations: %w", err)
	}
	b.sem.Release(b.maxConcurrent)
	return nil
}
