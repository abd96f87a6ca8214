package enrich

import (
	"sort"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// seniorityPhrases map folded title fragments to tiers, checked in tier
// order so the highest tier wins for combined titles.
var seniorityPhrases = []struct {
	tier    model.SeniorityTier
	phrases []string
	tokens  []string
}{
	{model.TierExecutive,
		[]string{"geschaftsfuhrer", "managing director", "chief executive", "founder", "grunder", "inhaber"},
		[]string{"ceo"}},
	{model.TierRevenueLeader,
		[]string{"chief revenue", "vp sales", "vp of sales", "vice president sales", "leiter vertrieb", "head of sales"},
		[]string{"cro"}},
	{model.TierSalesDirector,
		[]string{"sales director", "vertriebsleiter", "director of sales", "director sales"},
		nil},
	{model.TierBusinessDev,
		[]string{"business development", "geschaftsentwicklung"},
		nil},
	{model.TierHR,
		[]string{"human resources", "talent acquisition", "personalleiter", "head of hr", "recruiting"},
		[]string{"hr"}},
}

// ClassifySeniority maps a contact title to its outreach tier. Short
// abbreviations match as whole tokens only, so "CRO" never fires inside
// an unrelated word.
func ClassifySeniority(title string) model.SeniorityTier {
	folded := normalize.Fold(title)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/' || r == '-' || r == '(' || r == ')'
	})
	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
	}

	for _, s := range seniorityPhrases {
		for _, ph := range s.phrases {
			if strings.Contains(folded, ph) {
				return s.tier
			}
		}
		for _, tok := range s.tokens {
			if tokenSet[tok] {
				return s.tier
			}
		}
	}
	return model.TierUnknown
}

// Merge folds incoming contacts into existing ones. The first provider
// to report a person wins; later duplicates from other providers are
// dropped by fingerprint.
func Merge(existing, incoming []model.Contact) []model.Contact {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[normalize.ContactFingerprint(c)] = true
	}
	out := existing
	for _, c := range incoming {
		fp := normalize.ContactFingerprint(c)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		if c.Tier == 0 {
			c.Tier = ClassifySeniority(c.Title)
		}
		out = append(out, c)
	}
	return out
}

// Rank orders contacts for outreach: seniority tier first, then
// contacts carrying both channels, then name for stability.
func Rank(contacts []model.Contact) []model.Contact {
	out := make([]model.Contact, len(contacts))
	copy(out, contacts)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		if out[i].BothChannels() != out[j].BothChannels() {
			return out[i].BothChannels()
		}
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out
}
