package summarize

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicSummarizer generates summaries via the Anthropic messages
// API. The system prompt is cached across postings in a run.
type AnthropicSummarizer struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates a summarizer over an Anthropic client. An empty
// model uses the default.
func NewAnthropic(client anthropic.Client, model string) *AnthropicSummarizer {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicSummarizer{client: client, model: model}
}

func (s *AnthropicSummarizer) Name() string { return "anthropic" }

func (s *AnthropicSummarizer) Summarize(ctx context.Context, p model.Posting) (string, error) {
	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: 1024,
		System: []anthropic.SystemBlock{
			{Text: systemPrompt, CacheControl: &anthropic.CacheControl{TTL: "1h"}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(p)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "summarize: anthropic")
	}
	resp.Usage.LogCost(s.model, "summarize")

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", eris.New("summarize: anthropic returned empty response")
	}
	return out, nil
}
