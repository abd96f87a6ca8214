package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/summarize"
)

// Gate is the final checkpoint before a lead is delivered. It
// re-checks the score threshold, requires an accepted contact set, and
// validates the generated summary. Anything that fails becomes a
// review record instead of being dropped silently.
type Gate struct {
	scorer     *scorer.Engine
	summarizer Summarizer
	now        func() time.Time
	log        *zap.Logger
}

// NewGate creates a Gate sharing the run clock.
func NewGate(eng *scorer.Engine, summarizer Summarizer, now func() time.Time, log *zap.Logger) *Gate {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.L()
	}
	return &Gate{scorer: eng, summarizer: summarizer, now: now, log: log}
}

// Evaluate gates one enriched lead. Exactly one of the returns is
// non-nil.
func (g *Gate) Evaluate(ctx context.Context, lead model.EnrichedLead, dedup model.DedupDecision) (*model.DeliveryRecord, *model.ReviewRecord) {
	if !g.scorer.Qualifies(lead.Scored) {
		return nil, &model.ReviewRecord{
			ID:      uuid.NewString(),
			Outcome: model.OutcomeRejectedByScore,
			Reason:  fmt.Sprintf("score %d below keep threshold at delivery time", lead.Scored.Score),
			Scored:  lead.Scored,
			Key:     lead.Key,
			Lead:    &lead,
		}
	}

	if !lead.Accepted {
		return nil, &model.ReviewRecord{
			ID:      uuid.NewString(),
			Outcome: model.OutcomeInsufficientContacts,
			Reason:  fmt.Sprintf("only %d reachable of %d contacts after all providers", lead.ReachableContacts(), len(lead.Contacts)),
			Scored:  lead.Scored,
			Key:     lead.Key,
			Lead:    &lead,
		}
	}

	summary, producer, err := g.summarizer.Summarize(ctx, lead.Scored.Posting)
	if err == nil {
		err = summarize.ValidateSummary(summary)
	}
	if err != nil {
		g.log.Warn("gate: summary rejected",
			zap.String("company", lead.Scored.Posting.Company),
			zap.Error(err),
		)
		return nil, &model.ReviewRecord{
			ID:      uuid.NewString(),
			Outcome: model.OutcomeMalformedSummary,
			Reason:  err.Error(),
			Scored:  lead.Scored,
			Key:     lead.Key,
			Lead:    &lead,
		}
	}
	g.log.Debug("gate: summary accepted",
		zap.String("company", lead.Scored.Posting.Company),
		zap.String("producer", producer),
	)

	return &model.DeliveryRecord{
		ID:          uuid.NewString(),
		Lead:        lead,
		Summary:     summary,
		Dedup:       dedup,
		DeliveredAt: g.now(),
	}, nil
}

// newSimilarityReview files a possible-duplicate posting for manual
// resolution before any enrichment spend.
func newSimilarityReview(sp model.ScoredPosting, decision model.DedupDecision) model.ReviewRecord {
	return model.ReviewRecord{
		ID:      uuid.NewString(),
		Outcome: model.OutcomeNeedsReview,
		Reason:  fmt.Sprintf("company name resembles previously delivered %q", decision.MatchedName),
		Scored:  sp,
		Key:     decision.Key,
	}
}
