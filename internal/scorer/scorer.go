package scorer

import (
	"regexp"
	"strings"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// Engine scores postings against a fixed rule table. It is pure: the
// only time dependency is the posting's publication date measured
// against the evaluation time passed to Score.
type Engine struct {
	cfg        Config
	sdrRe      *regexp.Regexp
	industryRe *regexp.Regexp
}

// New builds a scoring engine after validating the rule table.
func New(cfg Config) (*Engine, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		// SDR/BDR and "it" are short tokens; match on word boundaries
		// so that e.g. "Sondermaschinen" or "Hospitality" never trips
		// the rule.
		sdrRe:      buildTokenRe(cfg.SDRKeywords),
		industryRe: buildTokenRe(cfg.PainIndustries),
	}, nil
}

// Config returns the engine's rule table.
func (e *Engine) Config() Config { return e.cfg }

func buildTokenRe(tokens []string) *regexp.Regexp {
	if len(tokens) == 0 {
		return nil
	}
	pattern := `\b(`
	for i, tok := range tokens {
		if i > 0 {
			pattern += "|"
		}
		pattern += regexp.QuoteMeta(tok)
	}
	pattern += `)\b`
	return regexp.MustCompile(pattern)
}

// Score evaluates a posting as of now and returns the scored record.
// All deltas are summed independently; rule order only shapes the
// factor audit trail. The final score is clamped to zero.
func (e *Engine) Score(p model.Posting, now time.Time) model.ScoredPosting {
	title := normalize.Fold(p.Title)
	desc := normalize.Fold(p.Description)
	text := title + " " + desc

	factors := []model.Factor{{Label: "base", Delta: e.cfg.Base}}
	add := func(label string, delta int) {
		if delta != 0 {
			factors = append(factors, model.Factor{Label: label, Delta: delta})
		}
	}

	// Age tiers: exclusive, highest-magnitude matching tier only.
	// A posting with no publication date reports zero days and matches
	// no tier.
	if days := p.DaysOpen(now); days > 0 {
		best := 0
		for _, tier := range e.cfg.AgeTiers {
			if days > tier.MinDays && tier.Delta > best {
				best = tier.Delta
			}
		}
		add("days_open", best)
	}

	if containsAny(title, e.cfg.SeniorityKeywords) {
		add("seniority_title", e.cfg.SeniorityDelta)
	}
	if containsAny(text, e.cfg.TechnicalKeywords) {
		add("technical_complexity", e.cfg.TechnicalDelta)
	}
	if desc != "" && containsAny(desc, e.cfg.ComplexityKeywords) {
		add("sales_complexity", e.cfg.ComplexityDelta)
	}
	if industry := normalize.Fold(p.Signals.Industry); industry != "" && e.industryRe != nil && e.industryRe.MatchString(industry) {
		add("pain_industry", e.cfg.IndustryDelta)
	}
	if e.cfg.ApplicationsMin > 0 && p.Signals.Applications >= e.cfg.ApplicationsMin {
		add("application_volume", e.cfg.ApplicationsDelta)
	}
	if p.Signals.Reposted {
		add("reposted", e.cfg.RepostDelta)
	}

	// Exclusion rules always apply, regardless of other matches.
	if containsAny(desc, e.cfg.InsideSalesKeywords) {
		add("inside_sales", e.cfg.InsideSalesDelta)
	}
	if e.sdrRe != nil && e.sdrRe.MatchString(title) {
		add("sdr_bdr", e.cfg.SDRDelta)
	}
	if containsAny(title, e.cfg.JuniorKeywords) {
		add("junior_role", e.cfg.JuniorDelta)
	}

	score := 0
	for _, f := range factors {
		score += f.Delta
	}
	if score < 0 {
		score = 0
	}

	return model.ScoredPosting{
		Posting:      p,
		Score:        score,
		Factors:      factors,
		HighPriority: score >= e.cfg.HighPriorityThreshold,
	}
}

// Qualifies reports whether a scored posting meets the keep threshold.
func (e *Engine) Qualifies(sp model.ScoredPosting) bool {
	return sp.Score >= e.cfg.KeepThreshold
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
