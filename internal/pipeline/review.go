package pipeline

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// ReviewPublisher files review records somewhere a human will see them.
type ReviewPublisher interface {
	Publish(ctx context.Context, records []model.ReviewRecord) error
}

// NotionReviewQueue publishes review records as pages in a Notion
// database, one page per record, Status "Open". Companies that already
// have an open review item are skipped so reruns do not pile up
// duplicate pages.
type NotionReviewQueue struct {
	client notion.Client
	dbID   string
	log    *zap.Logger
}

// NewNotionReviewQueue creates a review queue backed by the given
// Notion database.
func NewNotionReviewQueue(client notion.Client, dbID string, log *zap.Logger) *NotionReviewQueue {
	if log == nil {
		log = zap.L()
	}
	return &NotionReviewQueue{client: client, dbID: dbID, log: log}
}

// Publish implements ReviewPublisher.
func (q *NotionReviewQueue) Publish(ctx context.Context, records []model.ReviewRecord) error {
	open := q.openCompanies(ctx)

	var failed int
	for _, rec := range records {
		company := rec.Scored.Posting.Company
		if _, ok := open[company]; ok {
			q.log.Debug("review: open item exists, skipping",
				zap.String("company", company),
			)
			continue
		}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(q.dbID),
			},
			Properties: reviewPageProperties(rec),
		}
		if _, err := q.client.CreatePage(ctx, req); err != nil {
			failed++
			q.log.Warn("review: create page failed",
				zap.String("company", company),
				zap.Error(err),
			)
			continue
		}
		open[company] = struct{}{}
	}

	if failed > 0 {
		return eris.New(fmt.Sprintf("review: %d of %d pages failed", failed, len(records)))
	}
	return nil
}

// openCompanies returns the set of companies with an open review item.
// A query failure degrades to an empty set; worst case is a duplicate
// page, not a lost record.
func (q *NotionReviewQueue) openCompanies(ctx context.Context) map[string]struct{} {
	open := make(map[string]struct{})
	pages, err := notion.QueryOpenReviews(ctx, q.client, q.dbID)
	if err != nil {
		q.log.Warn("review: query open items failed", zap.Error(err))
		return open
	}
	for _, page := range pages {
		if prop, ok := page.Properties["Company"]; ok {
			if tp, ok := prop.(*notionapi.TitleProperty); ok && len(tp.Title) > 0 {
				open[tp.Title[0].PlainText] = struct{}{}
			}
		}
	}
	return open
}

func reviewPageProperties(rec model.ReviewRecord) notionapi.Properties {
	return notionapi.Properties{
		"Company": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: rec.Scored.Posting.Company}},
			},
		},
		"Outcome": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Outcome)},
		},
		"Reason": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: rec.Reason}},
			},
		},
		"Role": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Key.Role)},
		},
		"Score": notionapi.NumberProperty{
			Number: float64(rec.Scored.Score),
		},
		"Posting": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: rec.Scored.Posting.Title}},
			},
		},
		"Status": notionapi.StatusProperty{
			Status: notionapi.Option{Name: "Open"},
		},
	}
}
