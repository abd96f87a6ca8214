package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/ledger"
	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestClassifyRole(t *testing.T) {
	tests := []struct {
		title string
		want  model.RoleCategory
	}{
		{"Senior Sales Engineer (m/w/d)", model.RoleSalesEngineer},
		{"Vertriebsingenieur Maschinenbau", model.RoleSalesEngineer},
		{"Solution Consultant DACH", model.RoleSolutionConsultant},
		{"Lösungsberater SAP-Umfeld", model.RoleSolutionConsultant},
		{"Pre-Sales Consultant", model.RoleSolutionConsultant},
		{"Cyber Security Sales Manager", model.RoleCyberSecuritySales},
		{"Account Executive IT-Sicherheit Vertrieb", model.RoleCyberSecuritySales},
		{"SAP Sales Engineer", model.RoleSAPSales},
		{"SAP Vertrieb Süddeutschland", model.RoleSAPSales},
		{"IT-Sicherheitsberater", model.RoleSecurityConsultant},
		{"Backend Developer", model.RoleOther},
		{"", model.RoleOther},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRole(tt.title))
		})
	}
}

func posting(title, company, website string) model.Posting {
	return model.Posting{Title: title, Company: company, Website: website}
}

func snapshotWith(entries ...ledger.Entry) *ledger.Snapshot {
	return ledger.NewSnapshot(time.Now().UTC(), entries)
}

func TestResolver_Key_DomainPreferred(t *testing.T) {
	r := NewResolver(snapshotWith())

	k := r.Key(posting("Sales Engineer", "Acme Software GmbH", "https://www.acme-soft.de/karriere"))
	assert.Equal(t, model.IdentityKey{Domain: "acme-soft.de", Role: model.RoleSalesEngineer}, k)
}

func TestResolver_Key_NameFallbackIsUnverified(t *testing.T) {
	r := NewResolver(snapshotWith())

	k := r.Key(posting("Sales Engineer", "Acme Software GmbH", ""))
	assert.True(t, k.Unverified)
	assert.Equal(t, "acme software", k.Domain)
}

func TestResolver_Resolve_DeliveredWithinHorizon(t *testing.T) {
	r := NewResolver(snapshotWith(ledger.Entry{
		Key:         model.IdentityKey{Domain: "acme-soft.de", Role: model.RoleSalesEngineer},
		CompanyName: "acme software",
		DeliveredAt: time.Now().Add(-30 * 24 * time.Hour),
	}))

	d := r.Resolve(posting("Sales Engineer (m/w/d)", "Acme Software GmbH", "https://acme-soft.de"))
	assert.True(t, d.Duplicate)
	assert.Equal(t, model.DedupReasonDelivered, d.Reason)
}

func TestResolver_Resolve_RepeatInRun(t *testing.T) {
	r := NewResolver(snapshotWith())

	first := r.Resolve(posting("Sales Engineer", "Acme GmbH", "https://acme.de"))
	require.False(t, first.Duplicate)

	second := r.Resolve(posting("Senior Sales Engineer", "Acme GmbH", "https://acme.de"))
	assert.True(t, second.Duplicate)
	assert.Equal(t, model.DedupReasonRepeatInRun, second.Reason)
}

func TestResolver_Resolve_NewRoleAtKnownCompany(t *testing.T) {
	r := NewResolver(snapshotWith(ledger.Entry{
		Key:         model.IdentityKey{Domain: "acme.de", Role: model.RoleSalesEngineer},
		CompanyName: "acme",
		DeliveredAt: time.Now().Add(-10 * 24 * time.Hour),
	}))

	d := r.Resolve(posting("SAP Vertrieb", "Acme GmbH", "https://acme.de"))
	assert.False(t, d.Duplicate)
	assert.False(t, d.NeedsReview)
	assert.Equal(t, model.DedupReasonNewRole, d.Reason)
}

func TestResolver_Resolve_SimilarNameRoutedToReview(t *testing.T) {
	r := NewResolver(snapshotWith(ledger.Entry{
		Key:         model.IdentityKey{Domain: "acme-soft.de", Role: model.RoleSalesEngineer},
		CompanyName: "acme software",
		DeliveredAt: time.Now().Add(-10 * 24 * time.Hour),
	}))

	// Same company advertised without a website: the name-derived key
	// differs from the delivered domain key, so this is not a hard
	// duplicate, but the name match routes it to review.
	d := r.Resolve(posting("Sales Engineer", "Acme Software AG", ""))
	assert.False(t, d.Duplicate)
	assert.True(t, d.NeedsReview)
	assert.Equal(t, model.DedupReasonSimilarCompany, d.Reason)
	assert.Equal(t, "acme software", d.MatchedName)
}

func TestResolver_Resolve_DissimilarNameIsNew(t *testing.T) {
	r := NewResolver(snapshotWith(ledger.Entry{
		Key:         model.IdentityKey{Domain: "acme-soft.de", Role: model.RoleSalesEngineer},
		CompanyName: "acme software",
		DeliveredAt: time.Now().Add(-10 * 24 * time.Hour),
	}))

	d := r.Resolve(posting("Sales Engineer", "Zeta Logistik GmbH", "https://zeta-logistik.de"))
	assert.False(t, d.Duplicate)
	assert.False(t, d.NeedsReview)
	assert.Equal(t, model.DedupReasonNew, d.Reason)
}

func TestResolver_Resolve_SimilarNameDifferentRoleIsNew(t *testing.T) {
	r := NewResolver(snapshotWith(ledger.Entry{
		Key:         model.IdentityKey{Domain: "acme-soft.de", Role: model.RoleSalesEngineer},
		CompanyName: "acme software",
		DeliveredAt: time.Now().Add(-10 * 24 * time.Hour),
	}))

	// Name similarity only matters within the same role category.
	d := r.Resolve(posting("SAP Vertrieb", "Acme Software GmbH", ""))
	assert.False(t, d.NeedsReview)
	assert.Equal(t, model.DedupReasonNew, d.Reason)
}

func TestDiceCoefficient(t *testing.T) {
	assert.Equal(t, 1.0, diceCoefficient("acme software", "acme software"))
	assert.Equal(t, 0.0, diceCoefficient("xy", "ab"))
	assert.Greater(t, diceCoefficient("acme software", "acme softwares"), 0.85)
	assert.Less(t, diceCoefficient("acme software", "zeta logistik"), 0.3)
	assert.Equal(t, 0.0, diceCoefficient("a", "b"))
}
