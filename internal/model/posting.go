// Package model defines the core records flowing through the lead
// qualification pipeline: postings, scores, identity keys, contacts,
// enriched leads, and delivery outcomes.
package model

import "time"

// SignalBag carries source-specific signals attached to a posting.
type SignalBag struct {
	Applications  int    `json:"applications,omitempty"`
	Reposted      bool   `json:"reposted,omitempty"`
	Industry      string `json:"industry,omitempty"`
	SeniorityHint string `json:"seniority_hint,omitempty"`
}

// RawPosting is one posting record as yielded by a source collaborator,
// before normalization.
type RawPosting struct {
	Title          string    `json:"title"`
	CompanyName    string    `json:"company_name"`
	CompanyWebsite string    `json:"company_website"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	JobURL         string    `json:"job_url"`
	PostedDate     string    `json:"posted_date"` // YYYY-MM-DD, may be empty
	Source         string    `json:"source"`
	Signals        SignalBag `json:"signals"`
}

// Posting is one canonical job vacancy observation. Immutable once
// produced by the normalizer.
type Posting struct {
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Website     string     `json:"website,omitempty"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description"`
	JobURL      string     `json:"job_url,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	Source      string     `json:"source"`
	Signals     SignalBag  `json:"signals"`
}

// DaysOpen returns the number of whole days the posting has been open as
// of now. A posting with no publication date reports 0 so that age-based
// scoring rules contribute nothing.
func (p Posting) DaysOpen(now time.Time) int {
	if p.PostedAt == nil {
		return 0
	}
	d := int(now.Sub(*p.PostedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Factor is one scoring rule's contribution, kept for audit.
type Factor struct {
	Label string `json:"label"`
	Delta int    `json:"delta"`
}

// ScoredPosting is a Posting plus its pain score and the ordered factor
// trail that produced it. Never mutated after creation.
type ScoredPosting struct {
	Posting      Posting  `json:"posting"`
	Score        int      `json:"score"`
	Factors      []Factor `json:"factors"`
	HighPriority bool     `json:"high_priority"`
}
