package model

import (
	"fmt"

	"github.com/koenighotze/search-assistant/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

func newOllama(cfg config.Model) (*ollama.LLM, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Name)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	return ollama.New(opts...)
}

// NewGuardrailLLM connects to the moderation model served by Ollama.
func NewGuardrailLLM(cfg config.Guardrail) (llms.Model, error) {
	llm, err := newOllama(config.Model{Name: cfg.Model, BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, fmt.Errorf("create guardrail model %s: %w", cfg.Model, err)
	}
	return llm, nil
}
