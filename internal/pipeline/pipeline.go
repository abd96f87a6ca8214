// Package pipeline orchestrates one qualification run: fetch postings,
// score, resolve identities against the delivery ledger, enrich, gate,
// export, and commit delivered identities.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/identity"
	"github.com/sells-group/leadgen-cli/internal/ledger"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/source"
)

// DefaultHorizon is how long a delivered identity suppresses
// redelivery.
const DefaultHorizon = 365 * 24 * time.Hour

// Enricher resolves decision-maker contacts for scored postings.
// Satisfied by *enrich.Orchestrator.
type Enricher interface {
	Enrich(ctx context.Context, tasks []enrich.Task) ([]model.EnrichedLead, error)
}

// Summarizer produces a validated posting summary and names the
// producer that generated it. Satisfied by *summarize.Cascade.
type Summarizer interface {
	Summarize(ctx context.Context, p model.Posting) (summary, producer string, err error)
}

// Options tunes a pipeline run.
type Options struct {
	// Horizon is the redelivery suppression window. Zero means
	// DefaultHorizon.
	Horizon time.Duration
	// ExportDir receives the dated leads and review files.
	ExportDir string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Pipeline wires the run-level collaborators together.
type Pipeline struct {
	sources    []source.Source
	scorer     *scorer.Engine
	ledger     ledger.Store
	enricher   Enricher
	summarizer Summarizer
	review     ReviewPublisher
	opts       Options
	log        *zap.Logger
}

// New creates a Pipeline. review may be nil when no review queue is
// configured.
func New(
	sources []source.Source,
	eng *scorer.Engine,
	st ledger.Store,
	enricher Enricher,
	summarizer Summarizer,
	review ReviewPublisher,
	opts Options,
	log *zap.Logger,
) *Pipeline {
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.L()
	}
	return &Pipeline{
		sources:    sources,
		scorer:     eng,
		ledger:     st,
		enricher:   enricher,
		summarizer: summarizer,
		review:     review,
		opts:       opts,
		log:        log,
	}
}

// Run executes one full qualification run. The ledger is only written
// at the very end: a run that fails or is cancelled part-way commits
// nothing, so every posting is reconsidered next run.
func (p *Pipeline) Run(ctx context.Context) (*model.RunReport, error) {
	started := p.opts.Now()
	report := &model.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Outcomes:  make(map[model.Outcome]int),
		BySource:  make(map[string]int),
	}
	log := p.log.With(zap.String("run_id", report.RunID))
	log.Info("pipeline: starting run", zap.Int("sources", len(p.sources)))

	raw, bySource := source.FetchAll(ctx, log, p.sources)
	report.Fetched = len(raw)
	report.BySource = bySource
	if len(raw) == 0 {
		log.Warn("pipeline: no postings fetched")
		report.FinishedAt = p.opts.Now()
		return report, nil
	}

	snap, err := p.ledger.Snapshot(ctx, p.opts.Horizon)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: ledger snapshot")
	}
	log.Info("pipeline: ledger snapshot taken", zap.Int("entries", snap.Len()))

	resolver := identity.NewResolver(snap)
	gate := NewGate(p.scorer, p.summarizer, p.opts.Now, log)

	var (
		tasks      []enrich.Task
		decisions  []model.DedupDecision
		reviews    []model.ReviewRecord
		totalScore int
		scored     int
	)
	for _, r := range raw {
		posting, err := normalize.Posting(r)
		if err != nil {
			log.Warn("pipeline: dropping malformed posting",
				zap.String("source", r.Source),
				zap.String("company", r.CompanyName),
				zap.Error(err),
			)
			continue
		}

		sp := p.scorer.Score(posting, started)
		totalScore += sp.Score
		scored++
		if sp.HighPriority {
			report.HighPriority++
		}
		if !p.scorer.Qualifies(sp) {
			report.Outcomes[model.OutcomeRejectedByScore]++
			continue
		}

		decision := resolver.Resolve(posting)
		switch {
		case decision.Duplicate:
			report.Outcomes[model.OutcomeDuplicateSuppressed]++
			log.Debug("pipeline: duplicate suppressed",
				zap.String("key", decision.Key.String()),
				zap.String("reason", string(decision.Reason)),
			)
		case decision.NeedsReview:
			report.Outcomes[model.OutcomeNeedsReview]++
			reviews = append(reviews, newSimilarityReview(sp, decision))
		default:
			tasks = append(tasks, enrich.Task{Scored: sp, Key: decision.Key})
			decisions = append(decisions, decision)
		}
	}
	if scored > 0 {
		report.MeanScore = float64(totalScore) / float64(scored)
	}
	log.Info("pipeline: scoring complete",
		zap.Int("scored", scored),
		zap.Int("qualified", len(tasks)),
		zap.Int("suppressed", report.Outcomes[model.OutcomeDuplicateSuppressed]),
	)

	leads, err := p.enricher.Enrich(ctx, tasks)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: enrichment")
	}

	var delivered []model.DeliveryRecord
	for i, lead := range leads {
		rec, review := gate.Evaluate(ctx, lead, decisions[i])
		if rec != nil {
			delivered = append(delivered, *rec)
			report.Outcomes[model.OutcomeDelivered]++
		}
		if review != nil {
			reviews = append(reviews, *review)
			report.Outcomes[review.Outcome]++
		}
	}

	if err := p.export(delivered, reviews, started, log); err != nil {
		return nil, err
	}

	if p.review != nil && len(reviews) > 0 {
		if err := p.review.Publish(ctx, reviews); err != nil {
			// Review items are also in the review CSV, so a queue
			// outage must not fail the run.
			log.Warn("pipeline: review queue publish failed", zap.Error(err))
		}
	}

	if len(delivered) > 0 {
		entries := make([]ledger.Entry, 0, len(delivered))
		for _, rec := range delivered {
			entries = append(entries, ledger.Entry{
				Key:         rec.Dedup.Key,
				CompanyName: rec.Lead.Scored.Posting.Company,
				DeliveredAt: rec.DeliveredAt,
			})
		}
		if err := p.ledger.CommitDelivered(ctx, entries); err != nil {
			return nil, eris.Wrap(err, "pipeline: ledger commit")
		}
		report.Committed = len(entries)
	}

	report.FinishedAt = p.opts.Now()
	log.Info("pipeline: run complete",
		zap.Int("fetched", report.Fetched),
		zap.Int("delivered", report.Outcomes[model.OutcomeDelivered]),
		zap.Int("review", len(reviews)),
		zap.Int("committed", report.Committed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// Evaluation is the on-demand result for a single posting: its score,
// and when the posting qualifies, the enriched contact set.
type Evaluation struct {
	Scored    model.ScoredPosting `json:"scored"`
	Qualified bool                `json:"qualified"`
	Lead      *model.EnrichedLead `json:"lead,omitempty"`
}

// Evaluate scores one raw posting and, when it qualifies, runs it
// through enrichment. The ledger is not consulted and nothing is
// exported or committed; this backs the on-demand webhook.
func (p *Pipeline) Evaluate(ctx context.Context, raw model.RawPosting) (*Evaluation, error) {
	posting, err := normalize.Posting(raw)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: malformed posting")
	}

	sp := p.scorer.Score(posting, p.opts.Now())
	ev := &Evaluation{Scored: sp, Qualified: p.scorer.Qualifies(sp)}
	if !ev.Qualified {
		return ev, nil
	}

	leads, err := p.enricher.Enrich(ctx, []enrich.Task{{Scored: sp, Key: identity.KeyFor(posting)}})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: enrichment")
	}
	ev.Lead = &leads[0]
	return ev, nil
}

func (p *Pipeline) export(delivered []model.DeliveryRecord, reviews []model.ReviewRecord, now time.Time, log *zap.Logger) error {
	leadsCSV, leadsXLSX, reviewCSV := export.Filenames(p.opts.ExportDir, now)

	if err := export.WriteLeadsCSV(leadsCSV, delivered); err != nil {
		return eris.Wrap(err, "pipeline: export leads csv")
	}
	if err := export.WriteLeadsXLSX(leadsXLSX, delivered); err != nil {
		return eris.Wrap(err, "pipeline: export leads xlsx")
	}
	log.Info("pipeline: leads exported",
		zap.Int("leads", len(delivered)),
		zap.String("csv", leadsCSV),
		zap.String("xlsx", leadsXLSX),
	)

	if len(reviews) > 0 {
		if err := export.WriteReviewCSV(reviewCSV, reviews); err != nil {
			return eris.Wrap(err, "pipeline: export review csv")
		}
		log.Info("pipeline: review items exported",
			zap.Int("items", len(reviews)),
			zap.String("csv", reviewCSV),
		)
	}
	return nil
}
