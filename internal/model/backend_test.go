package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koenighotze/search-assistant/config"
	"github.com/koenighotze/search-assistant/internal/query"
	"github.com/koenighotze/search-assistant/internal/search"
	"github.com/tmc/langchaingo/llms"
)

// stubLLM returns answer for every prompt and records what it was asked.
type stubLLM struct {
	answer string
	err    error
	delay  time.Duration

	mu          sync.Mutex
	prompts     []string
	opts        []llms.CallOptions
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *stubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		current := s.maxInFlight.Load()
		if n <= current || s.maxInFlight.CompareAndSwap(current, n) {
			break
		}
	}

	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, flattenMessages(messages))
	s.opts = append(s.opts, opts)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.answer}}}, nil
}

func (s *stubLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func wordCounter(_, text string) int {
	return len(strings.Fields(text))
}

func testConfig() config.Model {
	cfg := config.Default().Model
	cfg.Name = "test-model"
	return cfg
}

func TestGenerateResponse(t *testing.T) {
	llm := &stubLLM{answer: "ANSWER<|im_end|>"}
	b := NewWithLLM(llm, testConfig(), WithTokenCounter(wordCounter))

	got, err := b.GenerateResponse(context.Background(), "foo", "bar")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ANSWER" {
		t.Errorf("unexpected answer %q", got)
	}

	prompt := query.Compose("foo", "bar")
	if len(llm.prompts) != 1 || llm.prompts[0] != prompt {
		t.Fatalf("backend should send the composed prompt, got %q", llm.prompts)
	}

	opts := llm.opts[0]
	if want := 512 - wordCounter("", prompt); opts.MaxTokens != want {
		t.Errorf("MaxTokens = %d, want %d", opts.MaxTokens, want)
	}
	if opts.N != 1 {
		t.Errorf("N = %d, want 1", opts.N)
	}
	if opts.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", opts.Temperature)
	}
}

func TestGenerateResponsePromptOverMaxLength(t *testing.T) {
	llm := &stubLLM{answer: "ANSWER"}
	cfg := testConfig()
	cfg.MaxLength = 10
	b := NewWithLLM(llm, cfg, WithTokenCounter(wordCounter))

	got, err := b.GenerateResponse(context.Background(), "foo", "bar")
	if err != nil {
		t.Fatalf("an over-long prompt should still be answered, got %v", err)
	}
	if got != "ANSWER" {
		t.Errorf("unexpected answer %q", got)
	}
	if opts := llm.opts[0]; opts.MaxTokens != minNewTokens {
		t.Errorf("MaxTokens = %d, want %d", opts.MaxTokens, minNewTokens)
	}
}

func TestGenerateResponseWithSearchContext(t *testing.T) {
	results := make([]search.Result, 0, search.DefaultLimit)
	for i := range search.DefaultLimit {
		results = append(results, search.Result{
			Title:   fmt.Sprintf("Go %d - The Go Programming Language", i),
			Link:    fmt.Sprintf("https://go.dev/doc/effective_go#section-%d", i),
			Snippet: "Go is an open source programming language that makes it simple to build secure, scalable systems. It is statically typed and compiled.",
			Source:  "Google",
		})
	}

	llm := &stubLLM{answer: "ANSWER"}
	b := NewWithLLM(llm, testConfig())

	got, err := b.GenerateResponse(context.Background(), "什么是 Go 语言？", search.FormatContext(results))
	if err != nil {
		t.Fatalf("a full page of search results should be answered, got %v", err)
	}
	if got != "ANSWER" {
		t.Errorf("unexpected answer %q", got)
	}
	if opts := llm.opts[0]; opts.MaxTokens < minNewTokens || opts.MaxTokens > 512 {
		t.Errorf("MaxTokens = %d, want between %d and 512", opts.MaxTokens, minNewTokens)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"输入内容为空！", 2},
	}

	for _, tt := range tests {
		if got := estimateTokens("", tt.text); got != tt.want {
			t.Errorf("estimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestGenerateResponseFailureKeepsBackendUsable(t *testing.T) {
	llm := &stubLLM{err: errors.New("CUDA out of memory")}
	b := NewWithLLM(llm, testConfig(), WithTokenCounter(wordCounter))

	_, err := b.GenerateResponse(context.Background(), "foo", "")
	if err == nil || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected the model error, got %v", err)
	}
	if query.KindOf(err) != query.KindGeneration {
		t.Errorf("expected generation error, got %v", query.KindOf(err))
	}

	llm.err = nil
	llm.answer = "recovered"
	got, err := b.GenerateResponse(context.Background(), "foo", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestGenerateResponseSerializesAccess(t *testing.T) {
	llm := &stubLLM{answer: "ok", delay: 10 * time.Millisecond}
	b := NewWithLLM(llm, testConfig(), WithTokenCounter(wordCounter))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.GenerateResponse(context.Background(), "foo", "bar"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := llm.maxInFlight.Load(); got != 1 {
		t.Errorf("expected at most one generation at a time, saw %d", got)
	}
}

func TestGenerateResponseHonoursCancellationWhileWaiting(t *testing.T) {
	llm := &stubLLM{answer: "ok", delay: time.Second}
	b := NewWithLLM(llm, testConfig(), WithTokenCounter(wordCounter))

	started := make(chan struct{})
	go func() {
		close(started)
		b.GenerateResponse(context.Background(), "slow", "") //nolint:errcheck
	}()
	<-started
	for llm.inFlight.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.GenerateResponse(ctx, "waiting", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestClose(t *testing.T) {
	llm := &stubLLM{answer: "ok"}
	b := NewWithLLM(llm, testConfig(), WithTokenCounter(wordCounter))

	if !b.Ready() {
		t.Fatal("new backend should be ready")
	}
	if err := b.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.Ready() {
		t.Error("closed backend should not be ready")
	}
	if err := b.Close(context.Background()); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	_, err := b.GenerateResponse(context.Background(), "foo", "")
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDrain(t *testing.T) {
	llm := &stubLLM{answer: "ok"}
	b := NewWithLLM(llm, testConfig(), WithTokenCounter(wordCounter))

	b.Drain()
	if b.Ready() {
		t.Error("draining backend should not be ready")
	}
	if _, err := b.GenerateResponse(context.Background(), "foo", ""); err != nil {
		t.Errorf("draining backend should keep answering, got %v", err)
	}
}

func TestNewFailsWhenModelCannotLoad(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model 'missing' not found", http.StatusInternalServerError)
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.Provider = config.ProviderOllama
	cfg.Name = "missing"
	cfg.BaseURL = ts.URL
	cfg.InitTimeout = config.Duration(5 * time.Second)

	b, err := New(context.Background(), cfg, WithTokenCounter(wordCounter))
	if err == nil {
		t.Fatal("expected initialization to fail")
	}
	if b != nil {
		t.Error("no backend should be returned on failure")
	}
	if query.KindOf(err) != query.KindInitialization {
		t.Errorf("expected initialization error, got %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = "torch"

	_, err := New(context.Background(), cfg)
	if query.KindOf(err) != query.KindInitialization {
		t.Errorf("expected initialization error, got %v", err)
	}
}
