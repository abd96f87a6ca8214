// Package source collects raw job postings from configured feeds. One
// unavailable source never fails the run; its postings are simply
// absent.
package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Source yields raw postings from one feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.RawPosting, error)
}

// FetchAll gathers postings from every source, tolerating per-source
// failures. Each posting is stamped with its source name. The returned
// map counts postings per source for the run report.
func FetchAll(ctx context.Context, log *zap.Logger, sources []Source) ([]model.RawPosting, map[string]int) {
	if log == nil {
		log = zap.L()
	}
	var all []model.RawPosting
	counts := make(map[string]int, len(sources))
	for _, s := range sources {
		if ctx.Err() != nil {
			break
		}
		postings, err := s.Fetch(ctx)
		if err != nil {
			log.Warn("source unavailable, continuing without it",
				zap.String("source", s.Name()),
				zap.Error(err),
			)
			continue
		}
		for i := range postings {
			if postings[i].Source == "" {
				postings[i].Source = s.Name()
			}
		}
		counts[s.Name()] = len(postings)
		all = append(all, postings...)
		log.Info("source fetched",
			zap.String("source", s.Name()),
			zap.Int("postings", len(postings)),
		)
	}
	return all, counts
}
