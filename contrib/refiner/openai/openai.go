// Package openai implements a model-backed refiner on the OpenAI chat
// completions API. The model extracts requirement fields from raw user text;
// everything it returns is re-normalized before entering conversation state.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/Pratham2403/insights-dashboard-sub001/filters"
	"github.com/Pratham2403/insights-dashboard-sub001/message"
	"github.com/Pratham2403/insights-dashboard-sub001/prompt"
	"github.com/Pratham2403/insights-dashboard-sub001/refiner"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// historyTokenBudget bounds the rendered transcript so long conversations
// cannot push the prompt past the model's context window.
const historyTokenBudget = 2048

// Config holds refiner configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns the default refiner configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0,
	}
}

// Refiner implements refiner.Refiner using OpenAI chat completions.
type Refiner struct {
	config   *Config
	client   openaisdk.Client
	prompts  *prompt.Manager
	budget   *prompt.Budget
	fallback *refiner.RuleBased
}

// New creates a model-backed refiner.
func New(config *Config) *Refiner {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	// A missing token encoding just disables history truncation.
	budget, _ := prompt.NewBudget(config.Model, historyTokenBudget)

	return &Refiner{
		config:   config,
		client:   openaisdk.NewClient(options...),
		prompts:  prompt.NewManager(),
		budget:   budget,
		fallback: refiner.NewRuleBased(),
	}
}

// modelResult is the JSON shape the model is instructed to return.
type modelResult struct {
	RefinedQuery string   `json:"refined_query"`
	Products     []string `json:"products"`
	Channels     []string `json:"channels"`
	Goals        []string `json:"goals"`
	TimePeriod   string   `json:"time_period"`
	Location     string   `json:"location"`
	Confidence   float64  `json:"confidence"`
}

// Refine implements refiner.Refiner. Model failures fall back to the
// deterministic rule-based refiner so a conversation never stalls on an
// upstream outage.
func (r *Refiner) Refine(ctx context.Context, req *refiner.Request) (*refiner.Result, error) {
	if req == nil || strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("refine request cannot be empty")
	}

	rendered, err := r.renderPrompt(req)
	if err != nil {
		return nil, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(rendered),
		},
		Model: openaisdk.ChatModel(r.config.Model),
	}
	if r.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(r.config.MaxTokens)
	}
	params.Temperature = param.NewOpt(r.config.Temperature)

	completion, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return r.fallback.Refine(ctx, req)
	}
	if len(completion.Choices) == 0 {
		return r.fallback.Refine(ctx, req)
	}

	var parsed modelResult
	if err := json.Unmarshal([]byte(extractJSON(completion.Choices[0].Message.Content)), &parsed); err != nil {
		return r.fallback.Refine(ctx, req)
	}

	return r.normalize(&parsed, req), nil
}

func (r *Refiner) renderPrompt(req *refiner.Request) (string, error) {
	vars := map[string]interface{}{
		"input": req.Input,
	}
	if len(req.History) > 0 {
		if history := r.boundHistory(req.History); history != "" {
			vars["history"] = history
		}
	}
	if existing, err := json.Marshal(req.Existing); err == nil {
		vars["existing"] = string(existing)
	}
	if len(req.Matches) > 0 {
		if matches, err := json.Marshal(req.Matches); err == nil {
			vars["matches"] = string(matches)
		}
	}
	return r.prompts.Render(prompt.RefineQuery, vars)
}

// boundHistory renders the transcript, dropping the oldest half until the
// text fits the token budget. Recent turns carry the refinement context, so
// the tail survives. A nil budget renders everything.
func (r *Refiner) boundHistory(history []*message.Message) string {
	for {
		var sb strings.Builder
		for _, msg := range history {
			fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
		}
		text := sb.String()
		if r.budget == nil || len(history) == 0 || r.budget.Fits(text) {
			return text
		}
		history = history[(len(history)+1)/2:]
	}
}

// normalize re-validates everything the model produced. Unknown channels are
// dropped and an unparseable time period is discarded rather than trusted.
func (r *Refiner) normalize(parsed *modelResult, req *refiner.Request) *refiner.Result {
	result := &refiner.Result{
		RefinedQuery: strings.TrimSpace(parsed.RefinedQuery),
		Confidence:   parsed.Confidence,
		Filters:      make(filters.FilterSet),
	}

	for _, p := range parsed.Products {
		if p = strings.TrimSpace(p); p != "" {
			result.Requirements.Products = append(result.Requirements.Products, p)
			result.Filters.Add("product", p)
		}
	}
	for _, c := range parsed.Channels {
		if canon, ok := state.CanonicalChannel(c); ok {
			result.Requirements.Channels = append(result.Requirements.Channels, canon)
			result.Filters.Add(filters.FilterChannel, canon)
		}
	}
	for _, g := range parsed.Goals {
		if g = strings.TrimSpace(g); g != "" {
			result.Requirements.Goals = append(result.Requirements.Goals, g)
			result.Filters.Add(filters.FilterGoal, g)
		}
	}
	if state.ValidTimePeriod(parsed.TimePeriod) {
		result.Requirements.TimePeriod = strings.TrimSpace(parsed.TimePeriod)
		result.Filters.Add(filters.FilterTimePeriod, result.Requirements.TimePeriod)
	}
	if loc := strings.TrimSpace(parsed.Location); loc != "" {
		result.Requirements.Location = loc
		result.Filters.Add(filters.FilterLocation, loc)
	}

	if result.Requirements.TimePeriod == "" && req.Existing.TimePeriod == "" {
		result.Requirements.TimePeriod = refiner.DefaultTimePeriod
		result.DefaultsApplied = append(result.DefaultsApplied, state.FieldTimePeriod)
		result.Filters.Add(filters.FilterTimePeriod, refiner.DefaultTimePeriod)
	}

	merged := req.Existing.Clone()
	merged.Merge(result.Requirements)
	result.MissingInfo = merged.Missing([]string{
		state.FieldProducts, state.FieldChannels, state.FieldGoals, state.FieldTimePeriod,
	})
	return result
}

// extractJSON pulls the first JSON object out of a completion that may wrap
// it in markdown fences or prose.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return content
	}
	return content[start : end+1]
}
