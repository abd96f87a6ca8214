package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
)

func setTestConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Ledger: config.LedgerConfig{
			Driver:      "sqlite",
			Path:        filepath.Join(t.TempDir(), "ledger.db"),
			HorizonDays: 365,
		},
		Export: config.ExportConfig{Dir: t.TempDir()},
	}
	t.Cleanup(func() { cfg = prev })
	return cfg
}

func TestInitLedgerSQLite(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()

	st, err := initLedger(ctx)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInitLedgerUnknownDriver(t *testing.T) {
	c := setTestConfig(t)
	c.Ledger.Driver = "oracle"

	_, err := initLedger(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestBuildSources(t *testing.T) {
	c := setTestConfig(t)
	c.Sources = []config.SourceConfig{
		{Name: "feed-a", Type: "http", URL: "https://feed-a.example/postings"},
		{Name: "feed-b", Type: "ftp", URL: "ftp://feeds.example/daily.csv", User: "u", Password: "p"},
		{Name: "feed-c", Type: "file", Path: "postings.json"},
		{Name: "feed-d", Type: "kafka"},
	}

	sources := buildSources()
	require.Len(t, sources, 3)
	assert.Equal(t, "feed-a", sources[0].Name())
	assert.Equal(t, "feed-b", sources[1].Name())
	assert.Equal(t, "feed-c", sources[2].Name())
}

func TestBuildEnricherRequiresProvider(t *testing.T) {
	setTestConfig(t)

	_, err := buildEnricher()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no enrichment providers")
}

func TestBuildEnricherWithApollo(t *testing.T) {
	c := setTestConfig(t)
	c.Apollo = config.ApolloConfig{Key: "k", BaseURL: "https://api.apollo.io/v1"}
	c.Enrich.MinContacts = 5

	o, err := buildEnricher()
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestBuildSummarizerAlwaysHasTemplate(t *testing.T) {
	setTestConfig(t)

	c := buildSummarizer(context.Background())
	require.NotNil(t, c)

	// Without any API keys the deterministic template still produces a
	// valid summary.
	summary, producer, err := c.Summarize(context.Background(), testPosting())
	require.NoError(t, err)
	assert.Equal(t, "template", producer)
	assert.Contains(t, summary, "**Must-Have Skills:**")
}

func TestBuildPipeline(t *testing.T) {
	c := setTestConfig(t)
	c.Apollo = config.ApolloConfig{Key: "k", BaseURL: "https://api.apollo.io/v1"}

	p, st, err := buildPipeline(context.Background())
	require.NoError(t, err)
	defer st.Close()
	assert.NotNil(t, p)
}
