package search

import (
	"context"
	"fmt"

	"github.com/koenighotze/search-assistant/config"
	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/koenighotze/search-assistant/internal/metrics"
)

// Fallback asks each searcher in turn and returns the first non-empty result
// list. Failures are logged and skipped; when every searcher fails or finds
// nothing the result is empty, not an error.
type Fallback []Searcher

func (f Fallback) Search(ctx context.Context, query string) ([]Result, error) {
	for _, s := range f {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		results, err := s.Search(ctx, query)
		if err != nil {
			logger.Log.Warn("Search failed, trying next searcher",
				"searcher", fmt.Sprintf("%T", s),
				"error", err)
			continue
		}
		if len(results) > 0 {
			metrics.SearchResults.WithLabelValues(results[0].Source).Add(float64(len(results)))
			return results, nil
		}
	}
	return []Result{}, nil
}

// NewChain prefers the Google API when credentials are configured and falls
// back to scraping Bing.
func NewChain(cfg config.Search) Fallback {
	var chain Fallback
	if cfg.GoogleAPIKey != "" && cfg.GoogleCSEID != "" {
		chain = append(chain, NewGoogleSearcher(cfg.GoogleAPIKey, cfg.GoogleCSEID, cfg.Limit))
	}
	return append(chain, NewBingSearcher(cfg.Limit))
}
