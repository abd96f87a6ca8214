// Package export writes delivered leads and review items to CSV and
// XLSX files for the outreach team.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// maxExportContacts caps the flat contact columns per lead row. Ranked
// contacts beyond the cap stay in the ledgered record but not the export.
const maxExportContacts = 5

func leadsHeader() []string {
	h := []string{
		"company", "website", "role", "posting_title", "score", "high_priority",
		"location", "job_url", "posted_date", "source", "dedup_reason", "summary",
	}
	for i := 1; i <= maxExportContacts; i++ {
		h = append(h,
			fmt.Sprintf("contact_%d_name", i),
			fmt.Sprintf("contact_%d_title", i),
			fmt.Sprintf("contact_%d_email", i),
			fmt.Sprintf("contact_%d_phone", i),
		)
	}
	return h
}

func leadRow(rec model.DeliveryRecord) []string {
	p := rec.Lead.Scored.Posting
	posted := ""
	if p.PostedAt != nil {
		posted = p.PostedAt.Format("2006-01-02")
	}
	row := []string{
		p.Company,
		p.Website,
		string(rec.Lead.Key.Role),
		p.Title,
		strconv.Itoa(rec.Lead.Scored.Score),
		strconv.FormatBool(rec.Lead.Scored.HighPriority),
		p.Location,
		p.JobURL,
		posted,
		p.Source,
		string(rec.Dedup.Reason),
		rec.Summary,
	}
	for i := 0; i < maxExportContacts; i++ {
		if i < len(rec.Lead.Contacts) {
			c := rec.Lead.Contacts[i]
			row = append(row, c.FirstName+" "+c.LastName, c.Title, c.Email, c.Phone)
		} else {
			row = append(row, "", "", "", "")
		}
	}
	return row
}

// WriteLeadsCSV writes delivered leads with up to five ranked contacts
// flattened into columns.
func WriteLeadsCSV(path string, records []model.DeliveryRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(leadsHeader()); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, rec := range records {
		if err := w.Write(leadRow(rec)); err != nil {
			return eris.Wrapf(err, "export: write lead %s", rec.ID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

func reviewHeader() []string {
	return []string{
		"outcome", "reason", "company", "posting_title", "role", "score",
		"reachable_contacts",
	}
}

func reviewRow(rec model.ReviewRecord) []string {
	reachable := ""
	if rec.Lead != nil {
		reachable = strconv.Itoa(rec.Lead.ReachableContacts())
	}
	return []string{
		string(rec.Outcome),
		rec.Reason,
		rec.Scored.Posting.Company,
		rec.Scored.Posting.Title,
		string(rec.Key.Role),
		strconv.Itoa(rec.Scored.Score),
		reachable,
	}
}

// WriteReviewCSV writes the review queue: postings that must not be
// silently dropped.
func WriteReviewCSV(path string, records []model.ReviewRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reviewHeader()); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, rec := range records {
		if err := w.Write(reviewRow(rec)); err != nil {
			return eris.Wrapf(err, "export: write review %s", rec.ID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// Filenames stamps export file names with the run date.
func Filenames(dir string, now time.Time) (leadsCSV, leadsXLSX, reviewCSV string) {
	stamp := now.Format("2006-01-02")
	return fmt.Sprintf("%s/leads_%s.csv", dir, stamp),
		fmt.Sprintf("%s/leads_%s.xlsx", dir, stamp),
		fmt.Sprintf("%s/review_%s.csv", dir, stamp)
}
