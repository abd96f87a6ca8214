package enrich

import (
	"context"
	"errors"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// defaultTargetTitles is the decision-maker title filter sent to
// providers, covering the DACH market's German variants.
var defaultTargetTitles = []string{
	"CEO", "Geschäftsführer", "Managing Director",
	"CRO", "Chief Revenue Officer", "VP Sales", "Head of Sales",
	"Leiter Vertrieb", "Vertriebsleiter", "Sales Director",
	"Head of Business Development",
	"Head of HR", "Personalleiter", "Talent Acquisition",
}

// ApolloProvider adapts the Apollo client to the Provider interface.
// Apollo is tier 1: broadest coverage, consulted first.
type ApolloProvider struct {
	client apollo.Client
	titles []string
}

// NewApolloProvider wraps an Apollo client. A nil titles slice uses the
// default decision-maker filter.
func NewApolloProvider(client apollo.Client, titles []string) *ApolloProvider {
	if titles == nil {
		titles = defaultTargetTitles
	}
	return &ApolloProvider{client: client, titles: titles}
}

func (p *ApolloProvider) Name() string { return "apollo" }
func (p *ApolloProvider) Tier() int    { return 1 }

func (p *ApolloProvider) Lookup(ctx context.Context, req Request) (*Result, error) {
	sreq := apollo.SearchRequest{PersonTitles: p.titles}
	if req.Domain != "" {
		sreq.OrganizationDomains = []string{req.Domain}
	} else {
		sreq.OrganizationName = req.CompanyName
	}

	resp, err := p.client.SearchPeople(ctx, sreq)
	if err != nil {
		return nil, mapApolloError(err)
	}

	persons := resp.All()
	contacts := make([]model.Contact, 0, len(persons))
	for _, person := range persons {
		contacts = append(contacts, model.Contact{
			FirstName:   person.FirstName,
			LastName:    person.LastName,
			Email:       person.Email,
			Phone:       person.SanitizedPhone,
			Title:       person.Title,
			Tier:        ClassifySeniority(person.Title),
			LinkedInURL: person.LinkedInURL,
			Provider:    p.Name(),
		})
	}
	return &Result{Contacts: contacts, CreditsRemaining: resp.CreditsRemaining}, nil
}

func mapApolloError(err error) error {
	var apiErr *apollo.APIError
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
