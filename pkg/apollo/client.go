// Package apollo wraps the Apollo.io people search API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Apollo v1 API.
const defaultBaseURL = "https://api.apollo.io/v1"

// Client defines the Apollo API operations used by this application.
type Client interface {
	SearchPeople(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the body for POST /mixed_people/search.
type SearchRequest struct {
	OrganizationDomains []string `json:"q_organization_domains,omitempty"`
	OrganizationName    string   `json:"q_organization_name,omitempty"`
	PersonTitles        []string `json:"person_titles,omitempty"`
	Page                int      `json:"page,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
}

// Person is one person record from a search response.
type Person struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email,omitempty"`
	SanitizedPhone string `json:"sanitized_phone,omitempty"`
	Title          string `json:"title,omitempty"`
	LinkedInURL    string `json:"linkedin_url,omitempty"`
}

// Pagination reports result paging from a search response.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

// SearchResponse is the response from POST /mixed_people/search. Apollo
// splits results into people and contacts; callers usually want both.
// CreditsRemaining carries the x-credits-remaining response header.
type SearchResponse struct {
	People     []Person   `json:"people"`
	Contacts   []Person   `json:"contacts"`
	Pagination Pagination `json:"pagination"`

	CreditsRemaining string `json:"-"`
}

// All returns people and contacts as one slice.
func (r *SearchResponse) All() []Person {
	out := make([]Person, 0, len(r.People)+len(r.Contacts))
	out = append(out, r.People...)
	out = append(out, r.Contacts...)
	return out
}

// APIError is returned when Apollo responds with a non-2xx status.
// RetryAfter is populated from the Retry-After header on 429 responses.
type APIError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apollo: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Apollo client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchPeople(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.PerPage == 0 {
		req.PerPage = 25
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mixed_people/search", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var out SearchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "apollo: decode response")
	}
	out.CreditsRemaining = resp.Header.Get("x-credits-remaining")
	return &out, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
