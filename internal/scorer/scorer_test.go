package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var evalTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	return e
}

func postingOpenFor(days int) model.Posting {
	posted := evalTime.AddDate(0, 0, -days)
	return model.Posting{
		Title:    "Account Manager",
		Company:  "Acme GmbH",
		PostedAt: &posted,
	}
}

func factorDelta(sp model.ScoredPosting, label string) (int, bool) {
	for _, f := range sp.Factors {
		if f.Label == label {
			return f.Delta, true
		}
	}
	return 0, false
}

func TestScoreBaseOnly(t *testing.T) {
	e := newTestEngine(t)
	sp := e.Score(model.Posting{Title: "Account Manager", Company: "Acme"}, evalTime)
	assert.Equal(t, 50, sp.Score)
	assert.False(t, sp.HighPriority)
	assert.False(t, e.Qualifies(sp))
}

func TestScoreDeterministic(t *testing.T) {
	e := newTestEngine(t)
	p := postingOpenFor(45)
	p.Description = "Enterprise B2B sales with SAP focus"

	a := e.Score(p, evalTime)
	b := e.Score(p, evalTime)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Factors, b.Factors)
}

func TestAgeTiersExclusive(t *testing.T) {
	e := newTestEngine(t)

	// 45 days: only the >30 tier.
	sp := e.Score(postingOpenFor(45), evalTime)
	delta, ok := factorDelta(sp, "days_open")
	require.True(t, ok)
	assert.Equal(t, 15, delta)

	// 65 days: exactly the >60 tier, never both.
	sp = e.Score(postingOpenFor(65), evalTime)
	delta, ok = factorDelta(sp, "days_open")
	require.True(t, ok)
	assert.Equal(t, 20, delta)

	count := 0
	for _, f := range sp.Factors {
		if f.Label == "days_open" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// Fresh posting: no age factor at all.
	sp = e.Score(postingOpenFor(10), evalTime)
	_, ok = factorDelta(sp, "days_open")
	assert.False(t, ok)
}

func TestMissingPublicationDate(t *testing.T) {
	e := newTestEngine(t)
	sp := e.Score(model.Posting{Title: "Sales Engineer", Company: "Acme"}, evalTime)
	_, ok := factorDelta(sp, "days_open")
	assert.False(t, ok)
}

func TestEmptyDescriptionKeywordRules(t *testing.T) {
	e := newTestEngine(t)
	sp := e.Score(model.Posting{Title: "Account Manager", Company: "Acme"}, evalTime)
	_, ok := factorDelta(sp, "sales_complexity")
	assert.False(t, ok)
}

func TestDiacriticInsensitiveMatching(t *testing.T) {
	e := newTestEngine(t)
	// "Vertriebsingenieur (Senior)" with umlauts in the description.
	p := model.Posting{
		Title:       "SENIOR Lösungsberater",
		Company:     "Müller AG",
		Description: "Beratung für ENTERPRISE Kunden, Cloud und SAP S/4HANA.",
	}
	sp := e.Score(p, evalTime)
	_, senior := factorDelta(sp, "seniority_title")
	_, tech := factorDelta(sp, "technical_complexity")
	assert.True(t, senior)
	assert.True(t, tech)
}

func TestInsideSalesExclusionAlwaysFires(t *testing.T) {
	e := newTestEngine(t)
	p := postingOpenFor(65)
	p.Title = "Senior Sales Engineer"
	p.Description = "Enterprise SAP sales. This is an inside sales position."

	sp := e.Score(p, evalTime)
	delta, ok := factorDelta(sp, "inside_sales")
	require.True(t, ok)
	assert.Equal(t, -30, delta)

	// Score equals the sum of additive deltas minus 30.
	sum := 0
	for _, f := range sp.Factors {
		sum += f.Delta
	}
	assert.Equal(t, sum, sp.Score)
}

func TestSDRTokenBoundary(t *testing.T) {
	e := newTestEngine(t)

	sp := e.Score(model.Posting{Title: "SDR / BDR Team Lead", Company: "Acme"}, evalTime)
	_, ok := factorDelta(sp, "sdr_bdr")
	assert.True(t, ok)

	// "sdr" embedded inside a longer word must not match.
	sp = e.Score(model.Posting{Title: "Vertrieb Sondermaschinen", Company: "Acme"}, evalTime)
	_, ok = factorDelta(sp, "sdr_bdr")
	assert.False(t, ok)
}

func TestJuniorExclusion(t *testing.T) {
	e := newTestEngine(t)
	p := postingOpenFor(65)
	p.Title = "Junior Sales Engineer"
	sp := e.Score(p, evalTime)
	delta, ok := factorDelta(sp, "junior_role")
	require.True(t, ok)
	assert.Equal(t, -25, delta)
}

func TestScoreClampedAtZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Base = 10
	e, err := New(cfg)
	require.NoError(t, err)

	sp := e.Score(model.Posting{
		Title:       "Junior SDR",
		Company:     "Acme",
		Description: "inside sales role",
	}, evalTime)
	assert.Equal(t, 0, sp.Score)
}

func TestEndToEndScenario(t *testing.T) {
	// Senior SAP Sales Consultant, 45 days open, 120 applications,
	// IT-services industry: 50 base + 15 age + 10 seniority + 10 SAP +
	// 10 applications + 5 industry = 100, high-priority.
	e := newTestEngine(t)

	p := postingOpenFor(45)
	p.Title = "Senior SAP Sales Consultant"
	p.Description = "Wir suchen Verstärkung im Vertrieb."
	p.Signals = model.SignalBag{
		Applications: 120,
		Industry:     "IT-Services",
	}

	sp := e.Score(p, evalTime)
	assert.Equal(t, 100, sp.Score)
	assert.True(t, sp.HighPriority)
	assert.True(t, e.Qualifies(sp))
}

func TestPainIndustryTokenBoundary(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		industry string
		fires    bool
	}{
		{"IT", true},
		{"IT-Services", true},
		{"IT Services", true},
		{"Software", true},
		{"Hospitality", false},
		{"Recruiting", false},
		{"Security Services", false},
	}
	for _, tc := range cases {
		p := model.Posting{Title: "Account Manager", Company: "Acme"}
		p.Signals.Industry = tc.industry
		sp := e.Score(p, evalTime)
		_, ok := factorDelta(sp, "pain_industry")
		assert.Equal(t, tc.fires, ok, "industry %q", tc.industry)
	}
}

func TestQualifiesThreshold(t *testing.T) {
	e := newTestEngine(t)
	assert.True(t, e.Qualifies(model.ScoredPosting{Score: 60}))
	assert.False(t, e.Qualifies(model.ScoredPosting{Score: 59}))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))

	bad := DefaultConfig()
	bad.HighPriorityThreshold = 10
	assert.Error(t, Validate(bad))

	bad = DefaultConfig()
	bad.InsideSalesDelta = 30
	assert.Error(t, Validate(bad))
}
