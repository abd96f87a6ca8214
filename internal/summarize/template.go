package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// TemplateSummarizer is the deterministic fallback at the end of the
// chain. It extracts what it can from the posting text and always
// produces a well-formed summary, so no lead is lost to an LLM outage.
type TemplateSummarizer struct {
	now func() time.Time
}

// NewTemplate creates the fallback summarizer.
func NewTemplate() *TemplateSummarizer {
	return &TemplateSummarizer{now: time.Now}
}

func (t *TemplateSummarizer) Name() string { return "template" }

// skillTerms are scanned in the posting text for the skills section.
var skillTerms = []string{
	"SAP", "Salesforce", "CRM", "ERP", "Cloud", "SaaS", "Cyber Security",
	"IT-Sicherheit", "Presales", "Demo", "Englisch", "English",
}

func (t *TemplateSummarizer) Summarize(_ context.Context, p model.Posting) (string, error) {
	var b strings.Builder

	b.WriteString("**Must-Have Skills:**\n")
	text := p.Title + " " + p.Description
	found := 0
	for _, term := range skillTerms {
		if containsFold(text, term) {
			fmt.Fprintf(&b, "- %s\n", term)
			found++
		}
	}
	if found == 0 {
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(p.Title))
	}

	b.WriteString("\n**Key Requirements:**\n")
	for _, s := range firstSentences(p.Description, 3) {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	b.WriteString("\n**Special Features:**\n")
	fmt.Fprintf(&b, "- Quelle: %s\n", p.Source)
	if p.Location != "" {
		fmt.Fprintf(&b, "- Standort: %s\n", p.Location)
	}
	if days := p.DaysOpen(t.now()); days > 0 {
		fmt.Fprintf(&b, "- Seit %d Tagen ausgeschrieben\n", days)
	}
	if p.Signals.Reposted {
		b.WriteString("- Erneut ausgeschrieben\n")
	}
	if p.Signals.Applications > 0 {
		fmt.Fprintf(&b, "- %d Bewerbungen\n", p.Signals.Applications)
	}

	return b.String(), nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// firstSentences returns up to n trimmed sentences from text. Always
// returns at least one entry so the section is never empty.
func firstSentences(text string, n int) []string {
	var out []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n' || r == '!' || r == '?'
	}) {
		s := strings.TrimSpace(part)
		if len(s) < 15 {
			continue
		}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, "Siehe Stellenanzeige")
	}
	return out
}
