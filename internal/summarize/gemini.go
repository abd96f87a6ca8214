package summarize

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiSummarizer generates summaries via the Google GenAI API. It
// serves as the second tier of the summarizer chain.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
}

// NewGemini creates a summarizer for the Gemini API backend. An empty
// model uses the default.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiSummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, eris.New("summarize: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "summarize: create genai client")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	return &GeminiSummarizer{client: client, model: model}, nil
}

func (g *GeminiSummarizer) Name() string { return "gemini" }

func (g *GeminiSummarizer) Summarize(ctx context.Context, p model.Posting) (string, error) {
	prompt := systemPrompt + "\n\n" + buildPrompt(p)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", eris.Wrap(err, "summarize: gemini generate content")
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(strings.TrimSpace(part.Text))
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", eris.New("summarize: gemini returned empty response")
	}
	return out, nil
}
