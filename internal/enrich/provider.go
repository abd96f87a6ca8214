// Package enrich turns qualified companies into decision-maker contacts
// by consulting enrichment providers in tier order.
package enrich

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Request identifies the company a provider should look up.
type Request struct {
	Key          model.IdentityKey
	CompanyName  string
	Domain       string
	HighPriority bool
}

// Result is one provider lookup response. CreditsRemaining is the
// provider's reported quota balance, empty when not reported.
type Result struct {
	Contacts         []model.Contact
	CreditsRemaining string
}

// Provider is a contact enrichment source. Lower tiers are consulted
// first. Lookup errors use the resilience taxonomy: RateLimitError for
// quota pushback, TransientError for retryable faults, anything else is
// a hard failure.
type Provider interface {
	Name() string
	Tier() int
	Lookup(ctx context.Context, req Request) (*Result, error)
}

// Registry manages available enrichment providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// ByTier returns all providers ordered by ascending tier, ties broken by
// name for deterministic cascades.
func (r *Registry) ByTier() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier() != out[j].Tier() {
			return out[i].Tier() < out[j].Tier()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// classifyOutcome maps a lookup error to provenance vocabulary.
func classifyOutcome(err error) model.ProviderOutcome {
	switch {
	case err == nil:
		return model.ProviderOutcomeSuccess
	case resilience.IsRateLimited(err):
		return model.ProviderOutcomeRateLimited
	case resilience.IsTransient(err):
		return model.ProviderOutcomeTransient
	default:
		return model.ProviderOutcomeHard
	}
}
