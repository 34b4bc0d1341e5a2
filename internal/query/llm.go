package query

import (
	"context"
	"strings"

	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/tmc/langchaingo/llms"
)

type PromptConfig struct {
	temperature float64
}

func sendToLLM(ctx context.Context, llm llms.Model, prompt string, config PromptConfig) (string, error) {
	logger.Log.Debug("Sending prompt to LLM", "promptBytes", len(prompt))
	completion, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt, llms.WithTemperature(config.temperature))
	if err != nil {
		return "", err
	}
	logger.Log.Debug("LLM answered", "completion", completion)
	return strings.TrimSpace(completion), nil
}
