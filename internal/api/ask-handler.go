package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/koenighotze/search-assistant/internal/query"
	"github.com/koenighotze/search-assistant/internal/search"
)

type AskResponse struct {
	Result        string          `json:"result"`
	SearchResults []search.Result `json:"searchResults"`
}

type SearchResponse struct {
	SearchResults []search.Result `json:"searchResults"`
}

// createAskHandler searches the web for the query and answers from the
// results. Any searchResults in the body are replaced.
func createAskHandler(answerer Answerer, searcher search.Searcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(w, r)
		if err == nil {
			err = req.Validate()
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx, cancel := withTimeout(r.Context(), timeout)
		defer cancel()

		results, err := searcher.Search(ctx, req.Query)
		if err != nil {
			writeError(w, r, query.GenerationError(fmt.Errorf("search: %w", err)))
			return
		}
		if results == nil {
			results = []search.Result{}
		}

		req.SearchResults = search.FormatContext(results)
		answer, err := answerer.GenerateAnswer(ctx, req)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AskResponse{Result: answer, SearchResults: results})
	}
}

func createSearchHandler(searcher search.Searcher, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(w, r)
		if err == nil {
			err = req.Validate()
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx, cancel := withTimeout(r.Context(), timeout)
		defer cancel()

		results, err := searcher.Search(ctx, req.Query)
		if err != nil {
			writeError(w, r, query.GenerationError(fmt.Errorf("search: %w", err)))
			return
		}
		if results == nil {
			results = []search.Result{}
		}

		writeJSON(w, http.StatusOK, SearchResponse{SearchResults: results})
	}
}
