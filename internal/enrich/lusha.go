package enrich

import (
	"context"
	"errors"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/lusha"
)

// LushaProvider adapts the Lusha client to the Provider interface.
// Lusha is tier 2: deeper phone coverage, consulted for high-priority
// leads and when tier 1 comes up short.
type LushaProvider struct {
	client lusha.Client
	titles []string
}

// NewLushaProvider wraps a Lusha client. A nil titles slice uses the
// default decision-maker filter.
func NewLushaProvider(client lusha.Client, titles []string) *LushaProvider {
	if titles == nil {
		titles = defaultTargetTitles
	}
	return &LushaProvider{client: client, titles: titles}
}

func (p *LushaProvider) Name() string { return "lusha" }
func (p *LushaProvider) Tier() int    { return 2 }

func (p *LushaProvider) Lookup(ctx context.Context, req Request) (*Result, error) {
	sreq := lusha.SearchRequest{JobTitles: p.titles}
	if req.Domain != "" {
		sreq.CompanyDomain = req.Domain
	} else {
		sreq.CompanyName = req.CompanyName
	}

	resp, err := p.client.SearchContacts(ctx, sreq)
	if err != nil {
		return nil, mapLushaError(err)
	}

	contacts := make([]model.Contact, 0, len(resp.Contacts))
	for _, cd := range resp.Contacts {
		c := model.Contact{
			FirstName:   cd.FirstName,
			LastName:    cd.LastName,
			Title:       cd.JobTitle,
			Tier:        ClassifySeniority(cd.JobTitle),
			LinkedInURL: cd.LinkedInURL,
			Provider:    p.Name(),
		}
		if len(cd.Emails) > 0 {
			c.Email = cd.Emails[0]
		}
		if len(cd.PhoneNumbers) > 0 {
			c.Phone = cd.PhoneNumbers[0]
		}
		contacts = append(contacts, c)
	}
	return &Result{Contacts: contacts}, nil
}

func mapLushaError(err error) error {
	var apiErr *lusha.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return resilience.NewRateLimitError(err, apiErr.RetryAfter)
		case resilience.IsTransientHTTPStatus(apiErr.StatusCode):
			return resilience.NewTransientError(err, apiErr.StatusCode)
		}
	}
	return err
}
