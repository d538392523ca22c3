package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"peoplescourt-backend/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
)

// ErrGenerationFailed is returned when the judge produces no usable content
var ErrGenerationFailed = errors.New("failed to generate ruling")

// JudgeChunk is one fragment of a streamed ruling. Err is set on the final
// chunk of a failed stream.
type JudgeChunk struct {
	Text string
	Err  error
}

// Judge produces the structured ruling for an assembled court context.
// AdjudicateStream yields raw text fragments in emission order; the channel
// is closed when the stream ends or fails.
type Judge interface {
	Adjudicate(ctx context.Context, courtContext string) (string, error)
	AdjudicateStream(ctx context.Context, courtContext string) <-chan JudgeChunk
}

// GeminiJudge generates rulings with the Gemini API using JSON structured
// output constrained to the ruling schema.
type GeminiJudge struct {
	client  *genai.Client
	modelID string
}

// NewGeminiJudge creates a judge backed by the given Gemini client and
// model id
func NewGeminiJudge(client *genai.Client, modelID string) *GeminiJudge {
	return &GeminiJudge{client: client, modelID: modelID}
}

// rulingSchema constrains the judge's output: verdict from the closed set,
// opening statement, facts, per-case comparisons, and a deliberation
// narrative. The enrichment step parses accumulated output against the same
// shape (models.Citation et al).
func rulingSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"verdict": {
				Type: genai.TypeString,
				Enum: models.AllVerdicts(),
			},
			"opening_statement": {Type: genai.TypeString},
			"facts":             {Type: genai.TypeString},
			"precedents": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"case_id":    {Type: genai.TypeString},
						"comparison": {Type: genai.TypeString},
					},
					Required: []string{"case_id", "comparison"},
				},
			},
			"deliberation": {Type: genai.TypeString},
		},
		Required: []string{"verdict", "opening_statement", "facts", "precedents", "deliberation"},
	}
}

// buildPrompt wraps the court context in the judge persona instructions
func buildPrompt(courtContext string) string {
	return fmt.Sprintf(`You are the Judge of 'The People's Court'. Your task is to provide a final verdict in just 3-4 concise, authoritative sentences.

Mandatory Instructions:
1. Verdict: Must be one of YTA, NTA, ESH, NAH.
2. Explanation: Provide a few sentences explaining your ruling. You MUST refer to the precedents below by their case id.
3. Precedents: For each case provided in the context, create a very short (1 sentence) comparison with the current evidence.

%s`, courtContext)
}

func (g *GeminiJudge) model() *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelID)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = rulingSchema()
	return model
}

// Adjudicate generates the full ruling in one blocking call
func (g *GeminiJudge) Adjudicate(ctx context.Context, courtContext string) (string, error) {
	resp, err := g.model().GenerateContent(ctx, genai.Text(buildPrompt(courtContext)))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrGenerationFailed
	}
	return text, nil
}

// AdjudicateStream generates the ruling as an incremental token stream.
// Fragments are pushed in the order Gemini emits them; a failed stream ends
// with a chunk whose Err is set. Cancelling ctx tears the stream down.
func (g *GeminiJudge) AdjudicateStream(ctx context.Context, courtContext string) <-chan JudgeChunk {
	out := make(chan JudgeChunk)

	go func() {
		defer close(out)

		iter := g.model().GenerateContentStream(ctx, genai.Text(buildPrompt(courtContext)))
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				select {
				case out <- JudgeChunk{Err: fmt.Errorf("generation stream failed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}

			text := responseText(resp)
			if text == "" {
				continue
			}
			select {
			case out <- JudgeChunk{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// responseText concatenates the text parts of all candidates
func responseText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}
	return builder.String()
}
