package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// defaultRateLimitPause is used when a provider pushes back without a
// Retry-After hint.
const defaultRateLimitPause = 5 * time.Second

// Config tunes the enrichment orchestrator.
type Config struct {
	// MinContacts is the minimum merged contact count for acceptance.
	MinContacts int `yaml:"min_contacts" mapstructure:"min_contacts"`
	// MinReachableFraction is the minimum share of contacts meeting the
	// minimum-field rule.
	MinReachableFraction float64 `yaml:"min_reachable_fraction" mapstructure:"min_reachable_fraction"`
	// Concurrency bounds companies enriched in parallel.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// ProviderRPS paces requests per provider.
	ProviderRPS   float64 `yaml:"provider_rps" mapstructure:"provider_rps"`
	ProviderBurst int     `yaml:"provider_burst" mapstructure:"provider_burst"`
	// RateLimitRequeues bounds how often a rate-limited lookup is put
	// back on the queue before the provider is given up for this company.
	RateLimitRequeues int `yaml:"rate_limit_requeues" mapstructure:"rate_limit_requeues"`

	Retry resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MinContacts:          3,
		MinReachableFraction: 0.6,
		Concurrency:          4,
		ProviderRPS:          1,
		ProviderBurst:        1,
		RateLimitRequeues:    2,
		Retry:                resilience.DefaultRetryConfig(),
	}
}

// Task is one company+role pair to enrich.
type Task struct {
	Scored model.ScoredPosting
	Key    model.IdentityKey
}

// providerState serializes pacing per provider across workers. A rate
// limit response pauses the whole provider, not just the company that
// hit it.
type providerState struct {
	limiter *rate.Limiter

	mu          sync.Mutex
	pausedUntil time.Time
}

func (s *providerState) pause(until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until.After(s.pausedUntil) {
		s.pausedUntil = until
	}
}

func (s *providerState) wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		until := s.pausedUntil
		s.mu.Unlock()
		d := time.Until(until)
		if d <= 0 {
			break
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.limiter.Wait(ctx)
}

// Orchestrator walks each qualified company through the provider cascade
// and produces enriched leads with full provenance.
type Orchestrator struct {
	reg *Registry
	cfg Config
	log *zap.Logger

	stateMu sync.Mutex
	states  map[string]*providerState

	cacheMu sync.Mutex
	cache   map[string][]model.Contact
}

// New creates an Orchestrator over a provider registry.
func New(reg *Registry, cfg Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.L()
	}
	if cfg.MinContacts <= 0 {
		cfg.MinContacts = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.ProviderRPS <= 0 {
		cfg.ProviderRPS = 1
	}
	if cfg.ProviderBurst <= 0 {
		cfg.ProviderBurst = 1
	}
	return &Orchestrator{
		reg:    reg,
		cfg:    cfg,
		log:    log,
		states: make(map[string]*providerState),
		cache:  make(map[string][]model.Contact),
	}
}

// Enrich processes tasks through the cascade with bounded concurrency.
// On cancellation the remaining tasks are abandoned and an error is
// returned; no partial results are exposed.
func (o *Orchestrator) Enrich(ctx context.Context, tasks []Task) ([]model.EnrichedLead, error) {
	leads := make([]model.EnrichedLead, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			leads[i] = o.enrichOne(gctx, t)
			// A cascade cut short by cancellation leaves a partial
			// lead that must not masquerade as an evaluated one.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return leads, nil
}

func (o *Orchestrator) enrichOne(ctx context.Context, t Task) model.EnrichedLead {
	lead := model.EnrichedLead{Scored: t.Scored, Key: t.Key}
	req := Request{
		Key:          t.Key,
		CompanyName:  t.Scored.Posting.Company,
		HighPriority: t.Scored.HighPriority,
	}
	if !t.Key.Unverified {
		req.Domain = t.Key.Domain
	}

	if contacts, ok := o.cached(companyCacheKey(t.Key)); ok {
		lead.Contacts = contacts
		lead.Attempts = append(lead.Attempts, model.ProviderAttempt{
			Provider: "cache",
			Outcome:  model.ProviderOutcomeCached,
			Contacts: len(contacts),
		})
		lead.Accepted = o.accept(lead)
		return lead
	}

	for _, p := range o.reg.ByTier() {
		if ctx.Err() != nil {
			break
		}
		attempt, res := o.consult(ctx, p, req)
		lead.Attempts = append(lead.Attempts, attempt)
		if res != nil {
			lead.Contacts = Merge(lead.Contacts, res.Contacts)
		}
		// High-priority companies cascade through every tier to deepen
		// the contact set; others stop once satisfied.
		if !req.HighPriority && o.reachable(lead.Contacts) >= o.cfg.MinContacts {
			break
		}
	}

	lead.Contacts = Rank(lead.Contacts)
	o.storeCache(companyCacheKey(t.Key), lead.Contacts)
	lead.Accepted = o.accept(lead)
	return lead
}

func (o *Orchestrator) consult(ctx context.Context, p Provider, req Request) (model.ProviderAttempt, *Result) {
	st := o.state(p.Name())
	totalRetries := 0

	for requeues := 0; ; requeues++ {
		if err := st.wait(ctx); err != nil {
			return model.ProviderAttempt{
				Provider: p.Name(),
				Outcome:  model.ProviderOutcomeSkipped,
				Error:    err.Error(),
			}, nil
		}

		cfg := o.cfg.Retry
		cfg.OnRetry = resilience.RetryLogger(p.Name(), "lookup")
		res, retries, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Result, error) {
			return p.Lookup(ctx, req)
		})
		totalRetries += retries

		if err == nil {
			attempt := model.ProviderAttempt{
				Provider: p.Name(),
				Outcome:  model.ProviderOutcomeSuccess,
				Contacts: len(res.Contacts),
				Retries:  totalRetries,
			}
			attempt.CreditsRemaining = res.CreditsRemaining
			return attempt, res
		}

		// Quota pushback pauses the provider and requeues without
		// consuming retry budget.
		if resilience.IsRateLimited(err) && requeues < o.cfg.RateLimitRequeues {
			pause := resilience.RetryAfter(err)
			if pause <= 0 {
				pause = defaultRateLimitPause
			}
			st.pause(time.Now().Add(pause))
			o.log.Warn("provider rate limited, requeueing",
				zap.String("provider", p.Name()),
				zap.String("company", req.CompanyName),
				zap.Duration("pause", pause),
			)
			continue
		}

		return model.ProviderAttempt{
			Provider: p.Name(),
			Outcome:  classifyOutcome(err),
			Retries:  totalRetries,
			Error:    err.Error(),
		}, nil
	}
}

func (o *Orchestrator) state(name string) *providerState {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	st, ok := o.states[name]
	if !ok {
		st = &providerState{limiter: rate.NewLimiter(rate.Limit(o.cfg.ProviderRPS), o.cfg.ProviderBurst)}
		o.states[name] = st
	}
	return st
}

// companyCacheKey identifies a company irrespective of role, so two
// postings for different roles at the same company hit the providers
// once per run.
func companyCacheKey(k model.IdentityKey) string {
	if k.Unverified {
		return "name:" + k.Domain
	}
	return k.Domain
}

func (o *Orchestrator) cached(key string) ([]model.Contact, bool) {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	contacts, ok := o.cache[key]
	return contacts, ok
}

func (o *Orchestrator) storeCache(key string, contacts []model.Contact) {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	o.cache[key] = contacts
}

func (o *Orchestrator) reachable(contacts []model.Contact) int {
	n := 0
	for _, c := range contacts {
		if c.Reachable() {
			n++
		}
	}
	return n
}

func (o *Orchestrator) accept(lead model.EnrichedLead) bool {
	if len(lead.Contacts) < o.cfg.MinContacts {
		return false
	}
	frac := float64(lead.ReachableContacts()) / float64(len(lead.Contacts))
	return frac >= o.cfg.MinReachableFraction
}
