package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeSearcher returns canned results per vertical.
type fakeSearcher struct {
	web     []Snippet
	news    []Snippet
	webErr  error
	newsErr error
	delay   time.Duration
}

func (f *fakeSearcher) Search(ctx context.Context, query string, kind Kind) ([]Snippet, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if kind == KindNews {
		return f.news, f.newsErr
	}
	return f.web, f.webErr
}

func snip(url, title string, kind Kind) Snippet {
	return Snippet{Title: title, URL: url, Excerpt: "excerpt for " + title, Source: kind}
}

func TestLookup_MergesNewsFirst(t *testing.T) {
	f := &fakeSearcher{
		news: []Snippet{snip("https://n1", "news one", KindNews)},
		web:  []Snippet{snip("https://w1", "web one", KindWeb), snip("https://w2", "web two", KindWeb)},
	}
	g := NewGateway(f, 0, 0, zerolog.Nop())

	got, err := g.Lookup(context.Background(), "query")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 merged snippets, got %d", len(got))
	}
	if got[0].Source != KindNews {
		t.Error("expected news results ordered before web results")
	}
	if got[1].URL != "https://w1" || got[2].URL != "https://w2" {
		t.Error("expected web provider ranking preserved")
	}
}

func TestLookup_DeduplicatesByURL(t *testing.T) {
	f := &fakeSearcher{
		news: []Snippet{snip("https://same", "from news", KindNews)},
		web:  []Snippet{snip("https://same", "from web", KindWeb), snip("https://other", "other", KindWeb)},
	}
	g := NewGateway(f, 0, 0, zerolog.Nop())

	got, err := g.Lookup(context.Background(), "query")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected duplicate URL dropped, got %d snippets", len(got))
	}
	if got[0].Title != "from news" {
		t.Error("first occurrence (news) should win the dedupe")
	}
}

func TestLookup_CapsResults(t *testing.T) {
	var web []Snippet
	for i := 0; i < 20; i++ {
		web = append(web, snip("https://w"+string(rune('a'+i)), "t", KindWeb))
	}
	g := NewGateway(&fakeSearcher{web: web}, 0, 4, zerolog.Nop())

	got, err := g.Lookup(context.Background(), "query")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected maxResults cap of 4, got %d", len(got))
	}
}

func TestLookup_EmptyQuery(t *testing.T) {
	g := NewGateway(&fakeSearcher{}, 0, 0, zerolog.Nop())
	if _, err := g.Lookup(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestLookup_EmptyResultsIsNotAnError(t *testing.T) {
	g := NewGateway(&fakeSearcher{}, 0, 0, zerolog.Nop())
	got, err := g.Lookup(context.Background(), "obscure query")
	if err != nil {
		t.Fatalf("zero results must not be an error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result set, got %d", len(got))
	}
}

func TestLookup_OneVerticalFailing(t *testing.T) {
	f := &fakeSearcher{
		newsErr: errors.New("news backend down"),
		web:     []Snippet{snip("https://w1", "web one", KindWeb)},
	}
	g := NewGateway(f, 0, 0, zerolog.Nop())

	got, err := g.Lookup(context.Background(), "query")
	if err != nil {
		t.Fatalf("one vertical failing should degrade, not error: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://w1" {
		t.Errorf("expected surviving vertical's results, got %+v", got)
	}
}

func TestLookup_BothVerticalsFailing(t *testing.T) {
	f := &fakeSearcher{
		newsErr: errors.New("news down"),
		webErr:  errors.New("web down"),
	}
	g := NewGateway(f, 0, 0, zerolog.Nop())

	_, err := g.Lookup(context.Background(), "query")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable when both verticals fail, got %v", err)
	}
}

func TestLookup_TimeoutBoundsSlowBackend(t *testing.T) {
	f := &fakeSearcher{delay: 500 * time.Millisecond}
	g := NewGateway(f, 20*time.Millisecond, 0, zerolog.Nop())

	start := time.Now()
	_, err := g.Lookup(context.Background(), "query")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on timeout, got %v", err)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("lookup should respect the per-query timeout, took %v", elapsed)
	}
}

func TestMergeSnippets_EmptyURLsNeverDeduped(t *testing.T) {
	a := []Snippet{{Title: "no url 1"}, {Title: "no url 2"}}
	got := mergeSnippets(10, a)
	// A missing URL is no evidence of duplication; both entries survive.
	if len(got) != 2 {
		t.Errorf("expected 2 snippets, got %d", len(got))
	}
}
