// Package api exposes the answer service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/koenighotze/search-assistant/internal/query"
	"github.com/koenighotze/search-assistant/internal/search"
)

// Answerer produces an answer for a validated request.
type Answerer interface {
	GenerateAnswer(ctx context.Context, req query.GenerateRequest) (string, error)
}

type ReadinessChecker interface {
	Ready() bool
}

type Dependencies struct {
	Answerer Answerer
	// Searcher enables /ask and /search when set.
	Searcher       search.Searcher
	Readiness      ReadinessChecker
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewHandler registers every route on a fresh mux and wraps it with the
// request id, recovery and CORS middleware.
func NewHandler(deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	AddHandlers(mux, deps)

	cors := NewCORSMiddleware(deps.AllowedOrigins)
	return withRequestID(cors.Middleware(withRecovery(mux)))
}

func AddHandlers(mux *http.ServeMux, deps Dependencies) {
	mux.Handle("POST /generate", instrument("/generate", createGenerateHandler(deps.Answerer, deps.RequestTimeout)))

	if deps.Searcher != nil {
		mux.Handle("POST /ask", instrument("/ask", createAskHandler(deps.Answerer, deps.Searcher, deps.RequestTimeout)))
		mux.Handle("POST /search", instrument("/search", createSearchHandler(deps.Searcher, deps.RequestTimeout)))
	}

	mux.HandleFunc("GET /healthz", healthzHandler)
	mux.Handle("GET /readyz", readyzHandler(deps.Readiness))
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
