package query

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *stubGenerator) GenerateResponse(_ context.Context, _, _ string) (string, error) {
	g.calls++
	return g.answer, g.err
}

// verdictLLM answers like llama-guard: "safe", or "unsafe" plus a category
// when the prompt equals unsafeInput.
type verdictLLM struct {
	unsafeInput string
	err         error
}

func (l *verdictLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if l.err != nil {
		return nil, l.err
	}
	verdict := "safe"
	for _, m := range messages {
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok && tc.Text == l.unsafeInput {
				verdict = "unsafe\nS1"
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: verdict}}}, nil
}

func (l *verdictLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, l, prompt, options...)
}

func TestGenerateAnswer(t *testing.T) {
	gen := &stubGenerator{answer: "ANSWER"}
	svc := NewService(gen)

	got, err := svc.GenerateAnswer(context.Background(), GenerateRequest{Query: "foo", SearchResults: "bar"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ANSWER" {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestGenerateAnswerRejectsEmptyQuery(t *testing.T) {
	gen := &stubGenerator{answer: "ANSWER"}
	svc := NewService(gen)

	_, err := svc.GenerateAnswer(context.Background(), GenerateRequest{SearchResults: "bar"})
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != EmptyInputMessage {
		t.Errorf("unexpected message %q", err.Error())
	}
	if gen.calls != 0 {
		t.Errorf("generator should not be called for invalid input")
	}
}

func TestGenerateAnswerTagsBackendFailure(t *testing.T) {
	boom := errors.New("CUDA out of memory")
	svc := NewService(&stubGenerator{err: boom})

	_, err := svc.GenerateAnswer(context.Background(), GenerateRequest{Query: "foo"})
	if KindOf(err) != KindGeneration {
		t.Fatalf("expected generation error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error should wrap the backend failure")
	}
	if err.Error() != boom.Error() {
		t.Errorf("error text should be the backend's, got %q", err.Error())
	}
}

func TestGenerateAnswerWithGuardrail(t *testing.T) {
	tests := []struct {
		name     string
		llm      *verdictLLM
		answer   string
		query    string
		wantKind Kind
		wantErr  bool
		wantIs   error
	}{
		{
			name:   "safe",
			llm:    &verdictLLM{},
			answer: "fine answer",
			query:  "foo",
		},
		{
			name:     "unsafe query",
			llm:      &verdictLLM{unsafeInput: "bad query"},
			answer:   "fine answer",
			query:    "bad query",
			wantKind: KindValidation,
			wantErr:  true,
			wantIs:   ErrQueryRejected,
		},
		{
			name:     "unsafe answer",
			llm:      &verdictLLM{unsafeInput: "bad answer"},
			answer:   "bad answer",
			query:    "foo",
			wantKind: KindGeneration,
			wantErr:  true,
			wantIs:   ErrResponseRejected,
		},
		{
			name:     "guard model down",
			llm:      &verdictLLM{err: errors.New("connection refused")},
			answer:   "fine answer",
			query:    "foo",
			wantKind: KindGeneration,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubGenerator{answer: tt.answer}, WithGuardrail(NewGuardrail(tt.llm)))

			got, err := svc.GenerateAnswer(context.Background(), GenerateRequest{Query: tt.query})
			if !tt.wantErr {
				if err != nil {
					t.Fatal(err)
				}
				if got != tt.answer {
					t.Errorf("unexpected answer %q", got)
				}
				return
			}

			if err == nil {
				t.Fatal("expected an error")
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("kind = %v, want %v", KindOf(err), tt.wantKind)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("expected %v, got %v", tt.wantIs, err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{errors.New("plain"), KindGeneration},
		{ValidationError(ErrEmptyInput), KindValidation},
		{GenerationError(errors.New("x")), KindGeneration},
		{InitializationError("load %s", "model"), KindInitialization},
		{GenerationError(ValidationError(ErrEmptyInput)), KindValidation},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
