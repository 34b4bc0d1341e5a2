// Package search finds web results for a query and renders them into the
// search context handed to the model.
package search

import (
	"context"
	"net/url"
	"strings"
)

const (
	DefaultLimit = 5

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
)

type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// FormatContext renders results as the labelled blocks the model expects in
// its search results section.
func FormatContext(results []Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		var b strings.Builder
		b.WriteString("\n标题: ")
		b.WriteString(r.Title)
		b.WriteString("\n链接: ")
		b.WriteString(r.Link)
		b.WriteString("\n摘要: ")
		b.WriteString(r.Snippet)
		b.WriteString("\n来源: ")
		b.WriteString(r.Source)
		b.WriteString("\n---")
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

// sanitizeURL resolves raw against base and returns "" for anything that is
// not an absolute http(s) URL.
func sanitizeURL(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return u.String()
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
