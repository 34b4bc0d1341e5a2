package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/koenighotze/search-assistant/internal/metrics"
	"github.com/koenighotze/search-assistant/internal/query"
)

const requestIDHeader = "X-Request-ID"

type requestLoggerKey struct{}

type CORSMiddleware struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return &CORSMiddleware{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		MaxAge:         86400,
	}
}

// Middleware answers preflight requests itself and decorates every other
// response with the CORS headers.
func (m *CORSMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if m.allowsAny() {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if m.isOriginAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", strings.Join(m.AllowedMethods, ", "))
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(m.AllowedHeaders, ", "))
		w.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(m.MaxAge))

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *CORSMiddleware) allowsAny() bool {
	for _, allowed := range m.AllowedOrigins {
		if allowed == "*" {
			return true
		}
	}
	return false
}

func (m *CORSMiddleware) isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range m.AllowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

var quietPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// withRequestID tags the request with an id, echoes it in the response and
// writes one access log line per request. A well-formed incoming id is kept.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		reqLog := logger.Log.With("request_id", id)
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestLoggerKey{}, reqLog)))

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", r.RemoteAddr,
		}
		if quietPaths[r.URL.Path] {
			reqLog.Debug("HTTP request", args...)
			return
		}
		reqLog.Info("HTTP request", args...)
	})
}

// loggerFrom returns the logger tagged with the request id.
func loggerFrom(r *http.Request) *logger.Logger {
	if l, ok := r.Context().Value(requestLoggerKey{}).(*logger.Logger); ok {
		return l
	}
	return logger.Log
}

// withRecovery turns a handler panic into a 500 so the server keeps serving.
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}

			loggerFrom(r).Error("Recovered from panic",
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()))
			metrics.RecordError(query.KindGeneration.String())

			if !rec.wroteHeader {
				writeJSON(rec, http.StatusInternalServerError, query.Response{Result: fmt.Sprint(p)})
			}
		}()

		next.ServeHTTP(rec, r)
	})
}

// instrument records request count and latency under a fixed route label.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		defer func() {
			metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			status := rec.status
			if !rec.wroteHeader {
				status = http.StatusInternalServerError
			}
			metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}
