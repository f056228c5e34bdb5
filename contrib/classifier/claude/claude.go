// Package claude implements theme classification on the Anthropic Messages
// API.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/prompt"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

const systemPrompt = "You classify social media records into themes and respond only with JSON."

// recordTokenBudget bounds the encoded record JSON so the prompt stays well
// inside the model's context window.
const recordTokenBudget = 8192

// Config holds classifier configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 4096,
	}
}

// Classifier implements classifier.Classifier using Claude.
type Classifier struct {
	config  *Config
	client  anthropic.Client
	prompts *prompt.Manager
	budget  *prompt.Budget
}

// New creates a Claude-backed classifier.
func New(config *Config) *Classifier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	// A missing token encoding just disables truncation.
	budget, _ := prompt.NewBudget(config.Model, recordTokenBudget)

	return &Classifier{
		config:  config,
		client:  anthropic.NewClient(options...),
		prompts: prompt.NewManager(),
		budget:  budget,
	}
}

// modelTheme is the JSON shape the model returns per theme.
type modelTheme struct {
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords"`
	Relevance float64  `json:"relevance"`
	MemberIDs []string `json:"member_ids"`
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

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: c.config.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(rendered)),
		},
	}
	if c.config.Temperature > 0 {
		params.Temperature = param.NewOpt(c.config.Temperature)
	}

	apiMessage, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inserr.ErrClassification, err)
	}

	var responseText string
	for _, content := range apiMessage.Content {
		if content.Type == "text" {
			responseText = content.Text
		}
	}

	return parseThemes(responseText, records)
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

// parseThemes decodes and sanity-checks the model output. Member IDs not in
// the record set are dropped.
func parseThemes(responseText string, records []state.Record) ([]state.Theme, error) {
	start := strings.Index(responseText, "[")
	end := strings.LastIndex(responseText, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in response", inserr.ErrClassification)
	}

	var parsed []modelTheme
	if err := json.Unmarshal([]byte(responseText[start:end+1]), &parsed); err != nil {
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
