// Package summarize generates the structured lead summary attached to
// every delivery: three fixed sections the downstream outreach tooling
// parses by header.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// requiredSections are the exact headers a well-formed summary carries,
// in order.
var requiredSections = []string{
	"**Must-Have Skills:**",
	"**Key Requirements:**",
	"**Special Features:**",
}

// ValidateSummary checks a summary for the three required section
// headers in order. A summary failing validation must not be delivered.
func ValidateSummary(s string) error {
	if strings.TrimSpace(s) == "" {
		return eris.New("summary is empty")
	}
	pos := 0
	for _, header := range requiredSections {
		idx := strings.Index(s[pos:], header)
		if idx < 0 {
			if strings.Contains(s, header) {
				return eris.Errorf("summary section %q out of order", header)
			}
			return eris.Errorf("summary missing section %q", header)
		}
		pos += idx + len(header)
	}
	return nil
}

// Summarizer produces a lead summary for one posting.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, p model.Posting) (string, error)
}

// systemPrompt instructs the model on the fixed output contract.
const systemPrompt = `You write compact lead summaries of German-market job postings for B2B sales outreach.
Respond with exactly three markdown sections, in this order, and nothing else:
**Must-Have Skills:** bullet list of the hard skills the posting demands.
**Key Requirements:** bullet list of experience and qualification requirements.
**Special Features:** bullet list of anything unusual: urgency signals, travel, territory, tooling.
Write bullets in the posting's language.`

// buildPrompt renders one posting for the model.
func buildPrompt(p model.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nCompany: %s\n", p.Title, p.Company)
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	if p.Signals.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", p.Signals.Industry)
	}
	b.WriteString("\nPosting:\n")
	b.WriteString(p.Description)
	return b.String()
}

// Cascade tries summarizers in order and returns the first summary that
// validates, together with the producer's name. The last summarizer in
// the chain should be the deterministic template, which cannot fail.
type Cascade struct {
	chain []Summarizer
	log   *zap.Logger
}

// NewCascade builds a summarizer chain.
func NewCascade(log *zap.Logger, chain ...Summarizer) *Cascade {
	if log == nil {
		log = zap.L()
	}
	return &Cascade{chain: chain, log: log}
}

// Summarize walks the chain. It returns an error only when every
// summarizer fails or produces a malformed summary.
func (c *Cascade) Summarize(ctx context.Context, p model.Posting) (string, string, error) {
	var lastErr error
	for _, s := range c.chain {
		out, err := s.Summarize(ctx, p)
		if err == nil {
			if verr := ValidateSummary(out); verr == nil {
				return out, s.Name(), nil
			} else {
				err = verr
			}
		}
		lastErr = err
		c.log.Warn("summarizer failed, trying next",
			zap.String("summarizer", s.Name()),
			zap.String("company", p.Company),
			zap.Error(err),
		)
	}
	if lastErr == nil {
		lastErr = eris.New("no summarizers configured")
	}
	return "", "", eris.Wrap(lastErr, "summarize: all summarizers failed")
}
