// Package identity maps postings to canonical identity keys and decides
// whether a company+role pair was already delivered.
package identity

import (
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// rolePatterns map folded title substrings to role categories. Checked in
// order; the more specific categories come first so "SAP Sales Engineer"
// lands on sap_sales rather than sales_engineer.
var rolePatterns = []struct {
	role  model.RoleCategory
	terms []string
}{
	{model.RoleCyberSecuritySales, []string{
		"cyber security sales", "cybersecurity sales", "security sales",
		"it-sicherheit vertrieb", "it-security vertrieb", "cyber sales",
	}},
	{model.RoleSAPSales, []string{
		"sap sales", "sap vertrieb", "sap account executive", "sap account manager",
	}},
	{model.RoleSecurityConsultant, []string{
		"security consultant", "sicherheitsberater", "security berater",
		"it-sicherheitsberater",
	}},
	{model.RoleSolutionConsultant, []string{
		"solution consultant", "solutions consultant", "losungsberater",
		"presales consultant", "pre-sales consultant", "presales berater",
	}},
	{model.RoleSalesEngineer, []string{
		"sales engineer", "vertriebsingenieur", "technical sales",
		"technischer vertrieb",
	}},
}

// ClassifyRole maps a posting title to the controlled role vocabulary.
// Titles that match nothing classify as RoleOther rather than failing, so
// a noisy title still produces a usable identity key.
func ClassifyRole(title string) model.RoleCategory {
	folded := normalize.Fold(title)
	for _, p := range rolePatterns {
		for _, term := range p.terms {
			if strings.Contains(folded, term) {
				return p.role
			}
		}
	}
	return model.RoleOther
}
