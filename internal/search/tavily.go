package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Tavily queries the Tavily search API. The news vertical maps onto Tavily's
// topic parameter.
type Tavily struct {
	apiKey string
	client *http.Client
}

// NewTavily constructs a Tavily backend with a modest default timeout.
func NewTavily(apiKey string) *Tavily {
	return &Tavily{apiKey: apiKey, client: &http.Client{Timeout: 10 * time.Second}}
}

// NewTavilyWithClient constructs a Tavily backend using the supplied HTTP
// client, useful for overriding the default timeout.
func NewTavilyWithClient(apiKey string, client *http.Client) *Tavily {
	return &Tavily{apiKey: apiKey, client: client}
}

func (t *Tavily) Search(ctx context.Context, query string, kind Kind) ([]Snippet, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}

	topic := "general"
	if kind == KindNews {
		topic = "news"
	}
	payload, err := json.Marshal(map[string]any{
		"query":        query,
		"topic":        topic,
		"search_depth": "basic",
		"max_results":  5,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	results := make([]Snippet, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, Snippet{Title: r.Title, URL: r.URL, Excerpt: r.Content, Source: kind})
	}
	return results, nil
}
