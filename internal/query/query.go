package query

import (
	"context"

	"github.com/koenighotze/search-assistant/internal/logger"
)

// Generator turns a query and its search context into an answer.
type Generator interface {
	GenerateResponse(ctx context.Context, query, searchContext string) (string, error)
}

type Service struct {
	generator Generator
	guardrail *Guardrail
}

type Option func(*Service)

// WithGuardrail moderates both the incoming query and the generated answer.
func WithGuardrail(g *Guardrail) Option {
	return func(s *Service) {
		s.guardrail = g
	}
}

func NewService(generator Generator, opts ...Option) *Service {
	s := &Service{generator: generator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateAnswer validates req and asks the generator for an answer. Every
// returned error is a *Error.
func (s *Service) GenerateAnswer(ctx context.Context, req GenerateRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	logger.Log.Info("Generating answer",
		"query", req.Query,
		"searchContext", req.SearchResults)

	if s.guardrail != nil {
		if err := s.guardrail.ApplyRequestGuardrail(ctx, req.Query); err != nil {
			return "", err
		}
	}

	answer, err := s.generator.GenerateResponse(ctx, req.Query, req.SearchResults)
	if err != nil {
		return "", GenerationError(err)
	}

	if s.guardrail != nil {
		return s.guardrail.ApplyResponseGuardrail(ctx, answer)
	}
	return answer, nil
}
