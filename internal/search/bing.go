package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	bingEndpoint      = "https://www.bing.com/search"
	bingClientTimeout = 15 * time.Second
)

// BingSearcher scrapes the Bing result page. It needs no credentials and
// backs up the Google API.
type BingSearcher struct {
	client   *http.Client
	endpoint string
	limit    int
}

func NewBingSearcher(limit int) *BingSearcher {
	return &BingSearcher{
		client:   &http.Client{Timeout: bingClientTimeout},
		endpoint: bingEndpoint,
		limit:    limitOrDefault(limit),
	}
}

func (b *BingSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	endpoint.RawQuery = url.Values{"q": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing search: unexpected status %d", resp.StatusCode)
	}

	return parseBingResults(resp.Body, endpoint, b.limit)
}

func parseBingResults(r io.Reader, base *url.URL, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	var results []Result
	doc.Find(".b_algo").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("h2").First().Text())
		href, _ := s.Find("a").First().Attr("href")
		link := sanitizeURL(base, href)
		if title == "" || link == "" {
			return true
		}

		results = append(results, Result{
			Title:   title,
			Link:    link,
			Snippet: strings.TrimSpace(s.Find(".b_caption p").First().Text()),
			Source:  "Bing",
		})
		return len(results) < limit
	})

	return results, nil
}
