// Package jobsearch queries a SerpAPI-compatible google_jobs endpoint and
// maps upstream conditions onto the typed tool-failure taxonomy.
package jobsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jobscout/jobscout/internal/safety"
)

// Posting is one job listing extracted from the upstream response.
type Posting struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Link     string `json:"link"`
	PostedAt string `json:"posted_at,omitempty"`
}

// DefaultBaseURL is the production search endpoint; tests point BaseURL at
// an httptest server instead.
const DefaultBaseURL = "https://serpapi.com/search.json"

const defaultTimeout = 15 * time.Second

// Client performs job searches. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient builds a search client. An empty baseURL selects DefaultBaseURL;
// timeout <= 0 selects a 15s default. The timeout is the per-invocation bound
// required of every tool backend: an expired deadline surfaces as a typed
// failure, never a hang.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Search runs one query. An empty result set is a successful search with zero
// postings, not an error; callers distinguish it from upstream failures.
func (c *Client) Search(ctx context.Context, query, location, recency string) ([]Posting, error) {
	q := url.Values{}
	q.Set("engine", "google_jobs")
	q.Set("q", query)
	if location != "" {
		q.Set("location", location)
	}
	if recency != "" {
		q.Set("date_posted", recency)
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, safety.ToolError{Kind: safety.KindUpstreamUnavailable, Message: fmt.Sprintf("search upstream unreachable: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, safety.ToolError{Kind: safety.KindUpstreamUnavailable, Message: fmt.Sprintf("read search response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, safety.ToolError{Kind: safety.KindRateLimited, Message: "search upstream rate limit hit; retry with a narrower query or later"}
	case resp.StatusCode != http.StatusOK:
		return nil, safety.ToolError{Kind: safety.KindUpstreamUnavailable, Message: fmt.Sprintf("search upstream returned status %d", resp.StatusCode)}
	}

	if !gjson.ValidBytes(body) {
		return nil, safety.ToolError{Kind: safety.KindUpstreamUnavailable, Message: "search upstream returned malformed JSON"}
	}

	var postings []Posting
	gjson.GetBytes(body, "jobs_results").ForEach(func(_, job gjson.Result) bool {
		p := Posting{
			Title:    job.Get("title").String(),
			Company:  job.Get("company_name").String(),
			Location: job.Get("location").String(),
			Link:     job.Get("related_links.0.link").String(),
			PostedAt: job.Get("detected_extensions.posted_at").String(),
		}
		if p.Link == "" {
			p.Link = "No link available"
		}
		postings = append(postings, p)
		return true
	})
	return postings, nil
}
