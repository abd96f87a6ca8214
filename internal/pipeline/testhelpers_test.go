package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/ledger"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scorer"
)

const validSummary = `**Must-Have Skills:**
- SAP
- B2B Vertrieb

**Key Requirements:**
- Mehrjaehrige Erfahrung im Enterprise-Vertrieb.

**Special Features:**
- Quelle: feed-a`

// memStore is an in-memory ledger.Store for pipeline tests.
type memStore struct {
	mu        sync.Mutex
	entries   []ledger.Entry
	commits   int
	snapErr   error
	commitErr error
}

func (s *memStore) Snapshot(_ context.Context, horizon time.Duration) (*ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapErr != nil {
		return nil, s.snapErr
	}
	now := time.Now()
	cutoff := now.Add(-horizon)
	var kept []ledger.Entry
	for _, e := range s.entries {
		if e.DeliveredAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return ledger.NewSnapshot(now, kept), nil
}

func (s *memStore) CommitDelivered(_ context.Context, entries []ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	s.entries = append(s.entries, entries...)
	s.commits++
	return nil
}

func (s *memStore) PruneExpired(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

func (s *memStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *memStore) Migrate(_ context.Context) error { return nil }

func (s *memStore) Close() error { return nil }

// stubSource yields a fixed batch of raw postings.
type stubSource struct {
	name     string
	postings []model.RawPosting
	err      error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context) ([]model.RawPosting, error) {
	return s.postings, s.err
}

// stubEnricher returns canned leads, or err. By default every task
// becomes an accepted lead with three reachable contacts.
type stubEnricher struct {
	err    error
	custom func(t enrich.Task) model.EnrichedLead
}

func (e *stubEnricher) Enrich(_ context.Context, tasks []enrich.Task) ([]model.EnrichedLead, error) {
	if e.err != nil {
		return nil, e.err
	}
	leads := make([]model.EnrichedLead, len(tasks))
	for i, t := range tasks {
		if e.custom != nil {
			leads[i] = e.custom(t)
			continue
		}
		leads[i] = acceptedLead(t)
	}
	return leads, nil
}

func acceptedLead(t enrich.Task) model.EnrichedLead {
	return model.EnrichedLead{
		Scored: t.Scored,
		Key:    t.Key,
		Contacts: []model.Contact{
			{FirstName: "Anna", LastName: "Weber", Email: "anna@example.com", Title: "Geschäftsführerin", Tier: model.TierExecutive, Provider: "apollo"},
			{FirstName: "Jonas", LastName: "Klein", Email: "jonas@example.com", Title: "VP Sales", Tier: model.TierRevenueLeader, Provider: "apollo"},
			{FirstName: "Mara", LastName: "Vogel", Phone: "+49 30 1234", Title: "Vertriebsleiterin", Tier: model.TierSalesDirector, Provider: "apollo"},
		},
		Attempts: []model.ProviderAttempt{{Provider: "apollo", Outcome: model.ProviderOutcomeSuccess, Contacts: 3}},
		Accepted: true,
	}
}

// stubSummarizer returns a fixed summary.
type stubSummarizer struct {
	summary string
	err     error
}

func (s *stubSummarizer) Summarize(_ context.Context, _ model.Posting) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	return s.summary, "stub", nil
}

// capturingPublisher records what was published.
type capturingPublisher struct {
	mu      sync.Mutex
	records []model.ReviewRecord
	err     error
}

func (p *capturingPublisher) Publish(_ context.Context, records []model.ReviewRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, records...)
	return p.err
}

func newTestEngine(t *testing.T) *scorer.Engine {
	t.Helper()
	eng, err := scorer.New(scorer.DefaultConfig())
	require.NoError(t, err)
	return eng
}

// fixedClock returns a Now func pinned to ts.
func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

var testLogger = zap.NewNop()
