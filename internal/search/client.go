package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Tavily API root.
const DefaultBaseURL = "https://api.tavily.com"

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 5
	maxMaxResults     = 20
	maxErrorBody      = 512
)

// ErrMissingAPIKey is returned when the client has no Tavily key.
var ErrMissingAPIKey = errors.New("TAVILY_API_KEY is not set")

// Request describes one search.
type Request struct {
	Query      string
	MaxResults int
	// Topic is "general" (default) or "news".
	Topic string
}

// Result is one ranked hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is what the search tool hands back to the model.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Client calls the Tavily REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a Tavily client. The default HTTP client times out
// after DefaultTimeout.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchBody struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	Topic         string `json:"topic"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search runs a query and returns the ranked results, with Tavily's short
// answer when it produced one.
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.New("search query is empty")
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}
	topic := req.Topic
	if topic != "news" {
		topic = "general"
	}

	payload, err := json.Marshal(searchBody{
		Query:         query,
		MaxResults:    maxResults,
		Topic:         topic,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, fmt.Errorf("search failed, http status %s: %s", res.Status, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if out.Query == "" {
		out.Query = query
	}
	if out.Results == nil {
		out.Results = []Result{}
	}
	return &out, nil
}
