package model

// SeniorityTier orders decision-maker contacts by outreach priority.
// Lower values rank first. HR is a last-resort fallback tier.
type SeniorityTier int

const (
	TierExecutive     SeniorityTier = iota + 1 // CEO / Geschäftsführer / founder
	TierRevenueLeader                          // CRO / VP Sales / Leiter Vertrieb
	TierSalesDirector                          // Sales Director / Vertriebsleiter
	TierBusinessDev                            // Head of Business Development
	TierHR                                     // Head of HR / Talent Acquisition
	TierUnknown
)

// String returns the tier name used in exports and logs.
func (t SeniorityTier) String() string {
	switch t {
	case TierExecutive:
		return "C-Level"
	case TierRevenueLeader:
		return "VP/Revenue"
	case TierSalesDirector:
		return "Director"
	case TierBusinessDev:
		return "BD-Lead"
	case TierHR:
		return "HR-Lead"
	default:
		return "Other"
	}
}

// Contact is one decision-maker record returned by an enrichment
// provider. Ephemeral until merged into an EnrichedLead.
type Contact struct {
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	Email       string        `json:"email,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Title       string        `json:"title,omitempty"`
	Tier        SeniorityTier `json:"tier"`
	LinkedInURL string        `json:"linkedin_url,omitempty"`
	Provider    string        `json:"provider"`
}

// Reachable reports whether the contact satisfies the minimum-field
// rule: a name plus at least one of email or phone.
func (c Contact) Reachable() bool {
	return c.FirstName != "" && c.LastName != "" && (c.Email != "" || c.Phone != "")
}

// BothChannels reports whether the contact carries email and phone.
// Used as the ranking tie-breaker within a seniority tier.
func (c Contact) BothChannels() bool {
	return c.Email != "" && c.Phone != ""
}
