package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Brave queries the Brave Search API, which has separate web and news
// endpoints. An API key is required via X-Subscription-Token.
type Brave struct {
	apiKey string
	client *http.Client
}

// NewBrave constructs a Brave backend with a modest default timeout.
func NewBrave(apiKey string) *Brave {
	return &Brave{apiKey: apiKey, client: &http.Client{Timeout: 10 * time.Second}}
}

// NewBraveWithClient constructs a Brave backend using the supplied HTTP
// client, useful for overriding the default timeout.
func NewBraveWithClient(apiKey string, client *http.Client) *Brave {
	return &Brave{apiKey: apiKey, client: client}
}

func (b *Brave) Search(ctx context.Context, query string, kind Kind) ([]Snippet, error) {
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, errors.New("brave: API key is missing")
	}

	endpoint := "https://api.search.brave.com/res/v1/web/search?q=" + url.QueryEscape(query)
	if kind == KindNews {
		endpoint = "https://api.search.brave.com/res/v1/news/search?q=" + url.QueryEscape(query)
	}

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.apiKey)

		resp, err = b.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay up to 30s. The
		// caller's context bounds the total wait.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave http %d", resp.StatusCode)
	}

	if kind == KindNews {
		var payload struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, err
		}
		results := make([]Snippet, 0, len(payload.Results))
		for _, r := range payload.Results {
			results = append(results, Snippet{Title: r.Title, URL: r.URL, Excerpt: r.Description, Source: kind})
			if len(results) >= 5 {
				break
			}
		}
		return results, nil
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	results := make([]Snippet, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		results = append(results, Snippet{Title: r.Title, URL: r.URL, Excerpt: r.Description, Source: kind})
		if len(results) >= 5 {
			break
		}
	}
	return results, nil
}
