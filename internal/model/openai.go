package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koenighotze/search-assistant/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"github.com/tmc/langchaingo/llms"
)

// responsesModel adapts the OpenAI Responses API, as served by OpenAI or a
// compatible server such as vLLM, to llms.Model.
type responsesModel struct {
	client openai.Client
	model  string
}

var _ llms.Model = (*responsesModel)(nil)

func newResponsesModel(cfg config.Model) *responsesModel {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &responsesModel{
		client: openai.NewClient(opts...),
		model:  cfg.Name,
	}
}

func (m *responsesModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(m.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(flattenMessages(messages)),
		},
	}
	if opts.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(opts.MaxTokens))
	}
	params.Temperature = openai.Float(opts.Temperature)

	resp, err := m.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.Status == "failed" {
		return nil, fmt.Errorf("response failed: %s", resp.Error.Message)
	}

	// an incomplete response hit the token limit; like a local generate
	// call, the truncated text is still the answer
	text := resp.OutputText()
	if text == "" && resp.Status != "incomplete" {
		return nil, errors.New("output text is missing")
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:    text,
			StopReason: string(resp.Status),
		}},
	}, nil
}

func (m *responsesModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func flattenMessages(messages []llms.MessageContent) string {
	var b strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			text, ok := part.(llms.TextContent)
			if !ok {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text.Text)
		}
	}
	return b.String()
}
