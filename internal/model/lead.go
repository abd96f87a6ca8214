package model

import "time"

// ProviderOutcome classifies the result of one provider attempt for
// provenance.
type ProviderOutcome string

const (
	ProviderOutcomeSuccess     ProviderOutcome = "success"
	ProviderOutcomeRateLimited ProviderOutcome = "rate_limited"
	ProviderOutcomeTransient   ProviderOutcome = "transient_error"
	ProviderOutcomeHard        ProviderOutcome = "hard_error"
	ProviderOutcomeSkipped     ProviderOutcome = "skipped"
	ProviderOutcomeCached      ProviderOutcome = "cached"
)

// ProviderAttempt records one provider consultation in an enrichment.
type ProviderAttempt struct {
	Provider         string          `json:"provider"`
	Outcome          ProviderOutcome `json:"outcome"`
	Contacts         int             `json:"contacts"`
	Retries          int             `json:"retries,omitempty"`
	Error            string          `json:"error,omitempty"`
	CreditsRemaining string          `json:"credits_remaining,omitempty"`
}

// EnrichedLead is the terminal unit of work: a scored posting, its
// identity key, the merged decision-maker contacts, and provenance of
// every provider tried. Read-only downstream of the delivery gate.
type EnrichedLead struct {
	Scored   ScoredPosting     `json:"scored"`
	Key      IdentityKey       `json:"key"`
	Contacts []Contact         `json:"contacts"`
	Attempts []ProviderAttempt `json:"attempts"`
	Accepted bool              `json:"accepted"`
}

// ReachableContacts counts contacts meeting the minimum-field rule.
func (l EnrichedLead) ReachableContacts() int {
	n := 0
	for _, c := range l.Contacts {
		if c.Reachable() {
			n++
		}
	}
	return n
}

// Outcome is the terminal classification of one posting in a run.
type Outcome string

const (
	OutcomeDelivered            Outcome = "delivered"
	OutcomeRejectedByScore      Outcome = "rejected_by_score"
	OutcomeDuplicateSuppressed  Outcome = "duplicate_suppressed"
	OutcomeNeedsReview          Outcome = "possible_duplicate_review"
	OutcomeInsufficientContacts Outcome = "insufficient_contacts"
	OutcomeMalformedSummary     Outcome = "malformed_summary"
)

// DeliveryRecord is a fully gated lead ready for the export
// collaborator, with full provenance for audit.
type DeliveryRecord struct {
	ID          string        `json:"id"`
	Lead        EnrichedLead  `json:"lead"`
	Summary     string        `json:"summary"`
	Dedup       DedupDecision `json:"dedup"`
	DeliveredAt time.Time     `json:"delivered_at"`
}

// ReviewRecord surfaces a posting that must not be silently dropped:
// insufficient contacts, a possible duplicate, or a malformed summary.
type ReviewRecord struct {
	ID      string        `json:"id"`
	Outcome Outcome       `json:"outcome"`
	Reason  string        `json:"reason"`
	Scored  ScoredPosting `json:"scored"`
	Key     IdentityKey   `json:"key"`
	Lead    *EnrichedLead `json:"lead,omitempty"`
}

// RunReport aggregates per-outcome counts for one pipeline run.
type RunReport struct {
	RunID        string          `json:"run_id"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Fetched      int             `json:"fetched"`
	Outcomes     map[Outcome]int `json:"outcomes"`
	BySource     map[string]int  `json:"by_source"`
	HighPriority int             `json:"high_priority"`
	MeanScore    float64         `json:"mean_score"`
	Committed    int             `json:"committed"`
}
