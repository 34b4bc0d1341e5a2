package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/tmc/langchaingo/llms"
)

var (
	ErrQueryRejected    = errors.New("cannot answer your query. It does not conform to our standards")
	ErrResponseRejected = errors.New("cannot answer your query. The response might not be good for you")
)

// Guardrail classifies text with a moderation model such as llama-guard,
// which answers "safe" or "unsafe" followed by the violated categories.
type Guardrail struct {
	llm llms.Model
}

func NewGuardrail(llm llms.Model) *Guardrail {
	return &Guardrail{llm: llm}
}

func (g *Guardrail) classify(ctx context.Context, text string) (bool, string, error) {
	completion, err := sendToLLM(ctx, g.llm, text, PromptConfig{temperature: 0})
	if err != nil {
		return false, "", fmt.Errorf("guardrail: %w", err)
	}
	verdict, _, _ := strings.Cut(completion, "\n")
	return strings.EqualFold(strings.TrimSpace(verdict), "safe"), completion, nil
}

// ApplyRequestGuardrail rejects queries the moderation model flags.
func (g *Guardrail) ApplyRequestGuardrail(ctx context.Context, rawQuery string) error {
	logger.Log.Debug("Applying request guardrail")
	safe, completion, err := g.classify(ctx, rawQuery)
	if err != nil {
		return GenerationError(err)
	}

	if !safe {
		logger.Log.Warn("Unsafe query", "reason", completion)
		return ValidationError(ErrQueryRejected)
	}
	return nil
}
