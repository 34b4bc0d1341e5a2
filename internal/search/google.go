package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	googleEndpoint      = "https://www.googleapis.com/customsearch/v1"
	googleClientTimeout = 15 * time.Second
)

// GoogleSearcher queries the Custom Search JSON API.
type GoogleSearcher struct {
	client   *http.Client
	endpoint string
	apiKey   string
	cseID    string
	limit    int
}

func NewGoogleSearcher(apiKey, cseID string, limit int) *GoogleSearcher {
	return &GoogleSearcher{
		client:   &http.Client{Timeout: googleClientTimeout},
		endpoint: googleEndpoint,
		apiKey:   apiKey,
		cseID:    cseID,
		limit:    limitOrDefault(limit),
	}
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.cseID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(min(g.limit, 10)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "Google API request failed"
		if body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		return nil, fmt.Errorf("google search: %s (status %d)", msg, resp.StatusCode)
	}

	results := make([]Result, 0, min(len(body.Items), g.limit))
	for _, item := range body.Items {
		if len(results) >= g.limit {
			break
		}
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Source:  "Google",
		})
	}
	return results, nil
}
