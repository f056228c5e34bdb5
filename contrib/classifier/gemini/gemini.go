// Package gemini implements theme classification on the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/prompt"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// DefaultModel is the default Gemini model for classification.
const DefaultModel = "gemini-2.0-flash"

// recordTokenBudget bounds the encoded record JSON so the prompt stays well
// inside the model's context window.
const recordTokenBudget = 8192

// Classifier implements classifier.Classifier using Gemini.
type Classifier struct {
	client  *genai.Client
	model   string
	prompts *prompt.Manager
	budget  *prompt.Budget
}

// New creates a Gemini-backed classifier. An empty model uses DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Classifier, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	// Token counts through the fallback encoding are an approximation for
	// Gemini; a missing encoding just disables truncation.
	budget, _ := prompt.NewBudget(model, recordTokenBudget)
	return &Classifier{
		client:  client,
		model:   model,
		prompts: prompt.NewManager(),
		budget:  budget,
	}, nil
}

// Classify implements classifier.Classifier.
func (c *Classifier) Classify(ctx context.Context, queryText string, records []state.Record) ([]state.Theme, error) {
	if len(records) == 0 {
		return nil, nil
	}

	encoded, err := boundRecords(c.budget, records)
	if err != nil {
		return nil, fmt.Errorf("%w: encode records: %v", inserr.ErrClassification, err)
	}
	rendered, err := c.prompts.Render(prompt.ClassifyThemes, map[string]interface{}{
		"query":   queryText,
		"records": encoded,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: render prompt: %v", inserr.ErrClassification, err)
	}

	model := c.client.GenerativeModel(c.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(rendered))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inserr.ErrClassification, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty response", inserr.ErrClassification)
	}

	var responseText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText += string(text)
		}
	}

	return parseThemes(responseText, records)
}

// Close releases the underlying client.
func (c *Classifier) Close() error {
	return c.client.Close()
}

// modelTheme is the JSON shape the model returns per theme.
type modelTheme struct {
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords"`
	Relevance float64  `json:"relevance"`
	MemberIDs []string `json:"member_ids"`
}

// boundRecords encodes the record set as JSON, halving the slice until the
// encoding fits the token budget. A nil budget encodes everything.
func boundRecords(budget *prompt.Budget, records []state.Record) (string, error) {
	for {
		encoded, err := json.Marshal(records)
		if err != nil {
			return "", err
		}
		if budget == nil || len(records) == 0 || budget.Fits(string(encoded)) {
			return string(encoded), nil
		}
		records = records[:len(records)/2]
	}
}

func parseThemes(responseText string, records []state.Record) ([]state.Theme, error) {
	var parsed []modelTheme
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode themes: %v", inserr.ErrClassification, err)
	}

	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.ID()] = true
	}

	themes := make([]state.Theme, 0, len(parsed))
	for _, mt := range parsed {
		if mt.Name == "" {
			continue
		}
		var members []string
		for _, id := range mt.MemberIDs {
			if known[id] {
				members = append(members, id)
			}
		}
		themes = append(themes, state.Theme{
			Name:      mt.Name,
			Keywords:  mt.Keywords,
			Relevance: mt.Relevance,
			MemberIDs: members,
		})
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("%w: model returned no usable themes", inserr.ErrClassification)
	}
	return themes, nil
}
