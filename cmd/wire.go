package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/ledger"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/summarize"
	apollopkg "github.com/sells-group/leadgen-cli/pkg/apollo"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
	lushapkg "github.com/sells-group/leadgen-cli/pkg/lusha"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// initLedger opens and migrates the configured ledger backend.
func initLedger(ctx context.Context) (ledger.Store, error) {
	var (
		st  ledger.Store
		err error
	)
	switch cfg.Ledger.Driver {
	case "postgres":
		st, err = ledger.NewPostgres(ctx, cfg.Ledger.DatabaseURL, &ledger.PoolConfig{
			MaxConns: int32(cfg.Ledger.MaxConns),
			MinConns: int32(cfg.Ledger.MinConns),
		})
	case "sqlite", "":
		st, err = ledger.NewSQLite(cfg.Ledger.Path)
	default:
		return nil, eris.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open ledger")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate ledger")
	}
	return st, nil
}

// buildSources turns source configs into fetchers. Unknown types are
// skipped with a warning so one bad entry does not block the run.
func buildSources() []source.Source {
	var sources []source.Source
	for _, sc := range cfg.Sources {
		timeout := time.Duration(sc.TimeoutSecs) * time.Second
		switch sc.Type {
		case "http":
			sources = append(sources, source.NewHTTPSource(sc.Name, sc.URL, source.HTTPOptions{
				Timeout: timeout,
				RPS:     sc.RPS,
			}))
		case "ftp":
			sources = append(sources, source.NewFTPSource(sc.Name, sc.URL, source.FTPOptions{
				User:     sc.User,
				Password: sc.Password,
				Timeout:  timeout,
			}))
		case "file":
			sources = append(sources, source.NewFileSource(sc.Name, sc.Path))
		default:
			zap.L().Warn("skipping source with unknown type",
				zap.String("name", sc.Name),
				zap.String("type", sc.Type),
			)
		}
	}
	return sources
}

// buildEnricher registers the configured providers in tier order.
func buildEnricher() (*enrich.Orchestrator, error) {
	reg := enrich.NewRegistry()
	if cfg.Apollo.Key != "" {
		client := apollopkg.NewClient(cfg.Apollo.Key, apollopkg.WithBaseURL(cfg.Apollo.BaseURL))
		reg.Register(enrich.NewApolloProvider(client, nil))
	}
	if cfg.Lusha.Key != "" {
		client := lushapkg.NewClient(cfg.Lusha.Key, lushapkg.WithBaseURL(cfg.Lusha.BaseURL))
		reg.Register(enrich.NewLushaProvider(client, nil))
	}
	if len(reg.ByTier()) == 0 {
		return nil, eris.New("no enrichment providers configured, set apollo.key or lusha.key")
	}

	ecfg := enrich.DefaultConfig()
	if cfg.Enrich.MinContacts > 0 {
		ecfg.MinContacts = cfg.Enrich.MinContacts
	}
	if cfg.Enrich.MinReachableFraction > 0 {
		ecfg.MinReachableFraction = cfg.Enrich.MinReachableFraction
	}
	if cfg.Enrich.Concurrency > 0 {
		ecfg.Concurrency = cfg.Enrich.Concurrency
	}
	if cfg.Enrich.ProviderRPS > 0 {
		ecfg.ProviderRPS = cfg.Enrich.ProviderRPS
	}
	if cfg.Enrich.ProviderBurst > 0 {
		ecfg.ProviderBurst = cfg.Enrich.ProviderBurst
	}
	if cfg.Enrich.RateLimitRequeues > 0 {
		ecfg.RateLimitRequeues = cfg.Enrich.RateLimitRequeues
	}
	return enrich.New(reg, ecfg, zap.L()), nil
}

// buildSummarizer assembles the summary cascade. The deterministic
// template always terminates the chain.
func buildSummarizer(ctx context.Context) *summarize.Cascade {
	var chain []summarize.Summarizer
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		chain = append(chain, summarize.NewAnthropic(client, cfg.Anthropic.Model))
	}
	if cfg.Gemini.Key != "" {
		gem, err := summarize.NewGemini(ctx, cfg.Gemini.Key, cfg.Gemini.Model)
		if err != nil {
			zap.L().Warn("gemini summarizer init failed, skipping", zap.Error(err))
		} else {
			chain = append(chain, gem)
		}
	}
	chain = append(chain, summarize.NewTemplate())
	return summarize.NewCascade(zap.L(), chain...)
}

// buildPipeline wires a full pipeline from config. The caller owns the
// returned ledger store.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, ledger.Store, error) {
	var scfg scorer.Config
	if cfg.Scoring.RulePath != "" {
		loaded, err := scorer.LoadConfig(cfg.Scoring.RulePath)
		if err != nil {
			return nil, nil, err
		}
		scfg = loaded
	} else {
		scfg = scorer.DefaultConfig()
	}
	if err := scorer.Validate(scfg); err != nil {
		return nil, nil, err
	}
	eng, err := scorer.New(scfg)
	if err != nil {
		return nil, nil, err
	}

	st, err := initLedger(ctx)
	if err != nil {
		return nil, nil, err
	}

	enricher, err := buildEnricher()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	var review pipeline.ReviewPublisher
	if cfg.Notion.Token != "" && cfg.Notion.ReviewDB != "" {
		review = pipeline.NewNotionReviewQueue(notion.NewClient(cfg.Notion.Token), cfg.Notion.ReviewDB, zap.L())
	}

	p := pipeline.New(
		buildSources(),
		eng,
		st,
		enricher,
		buildSummarizer(ctx),
		review,
		pipeline.Options{
			Horizon:   cfg.Ledger.Horizon(),
			ExportDir: cfg.Export.Dir,
		},
		zap.L(),
	)
	return p, st, nil
}
