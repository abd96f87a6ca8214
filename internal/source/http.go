package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const defaultUserAgent = "leadgen-cli/1.0"

// HTTPOptions configures an HTTP feed source.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// RPS paces requests against the feed host. Zero disables pacing.
	RPS float64
}

// HTTPSource reads postings from a JSON feed endpoint. The feed is a
// JSON array of posting objects, optionally wrapped in {"postings": []}.
type HTTPSource struct {
	name    string
	url     string
	client  *http.Client
	limiter *rate.Limiter
	ua      string
}

// NewHTTPSource creates a source for a JSON posting feed.
func NewHTTPSource(name, url string, opts HTTPOptions) *HTTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	s := &HTTPSource{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: opts.Timeout},
		ua:     opts.UserAgent,
	}
	if opts.RPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return s
}

func (s *HTTPSource) Name() string { return s.name }

// feedEnvelope covers feeds that wrap the posting array.
type feedEnvelope struct {
	Postings []model.RawPosting `json:"postings"`
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "source: rate limit")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: create request", s.name)
	}
	req.Header.Set("User-Agent", s.ua)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: fetch feed", s.name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("source %s: feed returned HTTP %d", s.name, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s: read feed body", s.name)
	}

	return decodeFeed(s.name, data)
}

func decodeFeed(name string, data []byte) ([]model.RawPosting, error) {
	var postings []model.RawPosting
	if err := json.Unmarshal(data, &postings); err == nil {
		return postings, nil
	}
	var env feedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrapf(err, "source %s: decode feed", name)
	}
	return env.Postings, nil
}
