package query

import (
	"context"

	"github.com/koenighotze/search-assistant/internal/logger"
)

// ApplyResponseGuardrail passes the generated answer through unchanged when
// the moderation model considers it safe.
func (g *Guardrail) ApplyResponseGuardrail(ctx context.Context, rawResponse string) (string, error) {
	logger.Log.Debug("Applying response guardrail")
	safe, completion, err := g.classify(ctx, rawResponse)
	if err != nil {
		return "", GenerationError(err)
	}

	if !safe {
		logger.Log.Warn("Unsafe response", "reason", completion)
		return "", GenerationError(ErrResponseRejected)
	}
	return rawResponse, nil
}
