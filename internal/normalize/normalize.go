// Package normalize converts heterogeneous raw postings into the
// canonical Posting shape and provides the text, domain, and name
// canonicalization used for matching. The source market is German, so
// all matching text is case-folded and diacritic-stripped.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lower-cases s and strips diacritics, so "Lösungsberater" and
// "losungsberater" compare equal. ß is expanded to ss before folding.
func Fold(s string) string {
	s = strings.ReplaceAll(s, "ß", "ss")
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Fall back to plain lower-casing on malformed input.
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

var domainRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*(\.[a-z0-9][a-z0-9-]*)+$`)

// Domain extracts and canonicalizes a company domain from a website or
// posting URL: scheme, "www.", port, path, and trailing dots are
// stripped and the result is lower-cased. Returns "" when no plausible
// domain is present.
func Domain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	host = strings.TrimPrefix(host, "www.")
	if !domainRe.MatchString(host) {
		return ""
	}
	return host
}

// legalSuffixes lists entity-form suffixes stripped during company-name
// normalization, German forms first.
var legalSuffixes = []string{
	" gmbh & co. kg", " gmbh & co kg", " se & co. kga",
	" gmbh", " mbh", " ag", " se", " kg", " ohg", " ug", " e.v.", " ev",
	" inc", " inc.", " incorporated",
	" corp", " corp.", " corporation",
	" ltd", " ltd.", " limited",
	" llc", " l.l.c.",
	" plc", " co", " co.",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// CompanyName standardizes an employer name for matching: fold, strip
// one legal suffix, drop punctuation, collapse whitespace.
func CompanyName(name string) string {
	name = Fold(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "und",
		"-", " ",
	).Replace(name)
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// ContactFingerprint produces the provider-independent identity of a
// contact: the folded full name with whitespace collapsed. Two
// providers returning the same person yield the same fingerprint.
func ContactFingerprint(c model.Contact) string {
	full := Fold(c.FirstName) + " " + Fold(c.LastName)
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(full, " "))
}

// Posting converts a raw source record into the canonical Posting.
// An unparseable publication date is dropped, not an error.
func Posting(raw model.RawPosting) (model.Posting, error) {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.CompanyName)
	if title == "" || company == "" {
		return model.Posting{}, eris.Errorf("normalize: posting from %s missing title or company", raw.Source)
	}

	p := model.Posting{
		Title:       title,
		Company:     company,
		Website:     strings.TrimSpace(raw.CompanyWebsite),
		Location:    strings.TrimSpace(raw.Location),
		Description: raw.Description,
		JobURL:      strings.TrimSpace(raw.JobURL),
		Source:      raw.Source,
		Signals:     raw.Signals,
	}

	if raw.PostedDate != "" {
		if ts, err := time.Parse("2006-01-02", raw.PostedDate); err == nil {
			p.PostedAt = &ts
		}
	}

	return p, nil
}
