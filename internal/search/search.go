// Package search provides the web lookup gateway and its provider backends.
// Backends are stateless adapters over third-party search APIs; the Gateway
// layers query validation, bounded timeouts and result merging on top.
package search

import (
	"context"
	"errors"
)

// Kind selects the result vertical for a query.
type Kind string

const (
	KindWeb  Kind = "web"
	KindNews Kind = "news"
)

// Snippet is a single ranked search result. Snippets are read-only data and
// are not retained beyond the turn that consumed them.
type Snippet struct {
	Title   string
	URL     string
	Excerpt string
	Source  Kind
}

var (
	// ErrUnavailable wraps provider timeouts and transport failures. An
	// empty result set is not an error.
	ErrUnavailable = errors.New("search unavailable")

	// ErrEmptyQuery rejects queries that are empty after trimming.
	ErrEmptyQuery = errors.New("search query is empty")
)

// Searcher issues one ranked query against a search backend. Implementations
// are stateless and safe to retry; they must honor ctx cancellation.
type Searcher interface {
	Search(ctx context.Context, query string, kind Kind) ([]Snippet, error)
}
