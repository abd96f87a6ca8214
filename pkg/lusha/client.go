// Package lusha wraps the Lusha prospecting API.
package lusha

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

// Default base URL for the Lusha API.
const defaultBaseURL = "https://api.lusha.com"

// Client defines the Lusha API operations used by this application.
type Client interface {
	SearchContacts(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest filters a contact search by company and title.
type SearchRequest struct {
	CompanyDomain string   `json:"companyDomain,omitempty"`
	CompanyName   string   `json:"companyName,omitempty"`
	JobTitles     []string `json:"jobTitles,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// ContactData is one contact record from a search response.
type ContactData struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	JobTitle     string   `json:"jobTitle,omitempty"`
	Emails       []string `json:"emailAddresses,omitempty"`
	PhoneNumbers []string `json:"phoneNumbers,omitempty"`
	LinkedInURL  string   `json:"linkedinUrl,omitempty"`
}

// SearchResponse is the response from POST /prospecting/contact/search.
type SearchResponse struct {
	Contacts []ContactData `json:"contacts"`
	Total    int           `json:"total"`
}

// APIError is returned when Lusha responds with a non-2xx status.
// RetryAfter is populated from the Retry-After header on 429 responses.
type APIError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lusha: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new Lusha client.
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

func (c *httpClient) SearchContacts(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Limit == 0 {
		req.Limit = 25
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "lusha: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/prospecting/contact/search", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "lusha: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api_key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "lusha: execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "lusha: read response body")
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
		return nil, eris.Wrap(err, "lusha: decode response")
	}
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
