package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

const (
	defaultTimeout    = 8 * time.Second
	defaultMaxResults = 8
)

// Gateway fronts a Searcher with query validation, per-query timeouts and
// result merging. It is stateless beyond its configuration and safe for
// concurrent use.
type Gateway struct {
	searcher   Searcher
	timeout    time.Duration
	maxResults int
	log        zerolog.Logger
}

// NewGateway wraps a backend. Zero timeout/maxResults select defaults.
func NewGateway(s Searcher, timeout time.Duration, maxResults int, log zerolog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Gateway{searcher: s, timeout: timeout, maxResults: maxResults, log: log}
}

// Lookup issues the query against both the news and web verticals
// concurrently, each under its own timeout, and merges the ranked results
// news-first, deduplicating by URL (first occurrence wins).
//
// A zero-length merged result is a valid outcome, not an error. Lookup
// returns ErrUnavailable only when both verticals fail.
func (g *Gateway) Lookup(ctx context.Context, query string) ([]Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var (
		news, web       []Snippet
		newsErr, webErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		c, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		news, newsErr = g.searcher.Search(c, query, KindNews)
	})
	wg.Go(func() {
		c, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		web, webErr = g.searcher.Search(c, query, KindWeb)
	})
	wg.Wait()

	if newsErr != nil {
		g.log.Debug().Err(newsErr).Str("query", query).Msg("news search failed")
	}
	if webErr != nil {
		g.log.Debug().Err(webErr).Str("query", query).Msg("web search failed")
	}
	if newsErr != nil && webErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, webErr)
	}

	merged := mergeSnippets(g.maxResults, news, web)
	g.log.Debug().Str("query", query).Int("results", len(merged)).Msg("search merged")
	return merged, nil
}

// mergeSnippets concatenates the groups preserving each group's provider
// ranking, dropping duplicate URLs after their first occurrence, up to limit
// results.
func mergeSnippets(limit int, groups ...[]Snippet) []Snippet {
	seen := make(map[string]bool)
	var merged []Snippet
	for _, group := range groups {
		for _, s := range group {
			if s.URL != "" && seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			merged = append(merged, s)
			if len(merged) >= limit {
				return merged
			}
		}
	}
	return merged
}
