package model

import "fmt"

// RoleCategory is the controlled-vocabulary classification of a posting
// title. Textual title variations map to the same category so that the
// identity key is stable across rewordings.
type RoleCategory string

const (
	RoleSalesEngineer      RoleCategory = "sales_engineer"
	RoleSolutionConsultant RoleCategory = "solution_consultant"
	RoleCyberSecuritySales RoleCategory = "cyber_security_sales"
	RoleSAPSales           RoleCategory = "sap_sales"
	RoleSecurityConsultant RoleCategory = "security_consultant"
	RoleOther              RoleCategory = "other"
)

// IdentityKey is the canonical (company-domain, role-category) pair used
// for cross-window deduplication. When no domain could be resolved the
// key falls back to the normalized company name and carries the
// Unverified marker so it never collides with a verified-domain key.
type IdentityKey struct {
	Domain     string       `json:"domain"`
	Role       RoleCategory `json:"role"`
	Unverified bool         `json:"unverified,omitempty"`
}

// String renders the key in its stored form. Unverified name-derived
// keys are prefixed so they occupy a distinct namespace.
func (k IdentityKey) String() string {
	if k.Unverified {
		return fmt.Sprintf("name:%s|%s", k.Domain, k.Role)
	}
	return fmt.Sprintf("%s|%s", k.Domain, k.Role)
}

// DedupReason explains a deduplication decision.
type DedupReason string

const (
	DedupReasonNew            DedupReason = "new"
	DedupReasonDelivered      DedupReason = "delivered_within_horizon"
	DedupReasonRepeatInRun    DedupReason = "repeat_in_run"
	DedupReasonNewRole        DedupReason = "new_role_at_known_company"
	DedupReasonSimilarCompany DedupReason = "similar_company_name"
)

// DedupDecision is the outcome of identity resolution for one posting.
type DedupDecision struct {
	Key         IdentityKey `json:"key"`
	Duplicate   bool        `json:"duplicate"`
	NeedsReview bool        `json:"needs_review"`
	Reason      DedupReason `json:"reason"`
	MatchedName string      `json:"matched_name,omitempty"`
}
