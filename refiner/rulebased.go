package refiner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Pratham2403/insights-dashboard-sub001/filters"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// DefaultTimePeriod is applied when the user never names a period, matching
// the product default of a 30 day lookback.
const DefaultTimePeriod = "last 30 days"

// matchScoreFloor is the similarity below which a knowledge-base match is not
// trusted for automatic extraction.
const matchScoreFloor = 0.55

var (
	relPeriodRe  = regexp.MustCompile(`(?i)\b(?:last|past|previous)\s+(\d+)\s+(day|week|month|year)s?\b`)
	quotedTermRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	productRe    = regexp.MustCompile(`(?i)\b(?:about|for|on|regarding)\s+(?:my\s+|our\s+|the\s+)?([A-Za-z0-9][A-Za-z0-9 _-]{1,40}?)(?:\s+(?:on|in|across|over|during)\b|[,.;!?]|$)`)
	locationRe   = regexp.MustCompile(`(?i)\bin\s+([A-Z][A-Za-z ]{1,30}?)(?:[,.;!?]|$)`)
)

// RuleBased is the default deterministic refiner. It extracts requirement
// fields from the raw text using channel aliases, time-period phrases and the
// ranked knowledge-base matches, and applies documented defaults. LLM-backed
// refiners in contrib replace it without touching the stage machine.
type RuleBased struct {
	// ApplyDefaults controls whether unset fields get product defaults
	// (currently the 30 day time period).
	ApplyDefaults bool
}

// NewRuleBased creates the default refiner with defaults enabled.
func NewRuleBased() *RuleBased {
	return &RuleBased{ApplyDefaults: true}
}

// Refine implements Refiner.
func (r *RuleBased) Refine(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("refine request cannot be empty")
	}

	result := &Result{
		Filters: make(filters.FilterSet),
	}

	input := req.Input
	lower := strings.ToLower(input)

	r.extractChannels(lower, result)
	r.extractTimePeriod(input, result)
	r.extractProducts(input, result)
	r.extractLocation(input, result)
	r.applyMatches(lower, req.Matches, result)

	if r.ApplyDefaults && result.Requirements.TimePeriod == "" && req.Existing.TimePeriod == "" {
		result.Requirements.TimePeriod = DefaultTimePeriod
		result.DefaultsApplied = append(result.DefaultsApplied, state.FieldTimePeriod)
		result.Filters.Add(filters.FilterTimePeriod, DefaultTimePeriod)
	}

	merged := req.Existing.Clone()
	merged.Merge(result.Requirements)
	result.MissingInfo = merged.Missing([]string{
		state.FieldProducts, state.FieldChannels, state.FieldGoals, state.FieldTimePeriod,
	})
	result.RefinedQuery = buildRefinedQuery(&merged)
	result.Confidence = confidence(&merged, result.MissingInfo)
	return result, nil
}

func (r *RuleBased) extractChannels(lower string, result *Result) {
	for _, token := range strings.FieldsFunc(lower, func(c rune) bool {
		return !('a' <= c && c <= 'z' || '0' <= c && c <= '9')
	}) {
		if canon, ok := state.CanonicalChannel(token); ok {
			result.Requirements.Channels = appendUnique(result.Requirements.Channels, canon)
			result.Filters.Add(filters.FilterChannel, canon)
		}
	}
}

func (r *RuleBased) extractTimePeriod(input string, result *Result) {
	if m := relPeriodRe.FindStringSubmatch(input); m != nil {
		period := fmt.Sprintf("last %s %ss", m[1], strings.ToLower(m[2]))
		result.Requirements.TimePeriod = period
		result.Filters.Add(filters.FilterTimePeriod, period)
	}
}

func (r *RuleBased) extractProducts(input string, result *Result) {
	for _, m := range quotedTermRe.FindAllStringSubmatch(input, -1) {
		term := m[1]
		if term == "" {
			term = m[2]
		}
		if term = strings.TrimSpace(term); term != "" {
			result.Requirements.Products = appendUnique(result.Requirements.Products, term)
			result.Filters.Add("product", term)
		}
	}
	if len(result.Requirements.Products) > 0 {
		return
	}
	if m := productRe.FindStringSubmatch(input); m != nil {
		term := strings.TrimSpace(m[1])
		if term != "" && !isStopPhrase(term) {
			result.Requirements.Products = appendUnique(result.Requirements.Products, term)
			result.Filters.Add("product", term)
		}
	}
}

func (r *RuleBased) extractLocation(input string, result *Result) {
	if m := locationRe.FindStringSubmatch(input); m != nil {
		result.Requirements.Location = strings.TrimSpace(m[1])
		result.Filters.Add(filters.FilterLocation, result.Requirements.Location)
	}
}

// applyMatches folds high-confidence knowledge-base hits into the extraction.
// Goal and persona fields have no reliable surface syntax, so retrieval is
// the primary signal for them.
func (r *RuleBased) applyMatches(lower string, matches []filters.Match, result *Result) {
	for _, match := range matches {
		if match.Score < matchScoreFloor {
			continue
		}
		switch match.FilterName {
		case filters.FilterGoal:
			result.Requirements.Goals = appendUnique(result.Requirements.Goals, match.Value)
			result.Filters.Add(filters.FilterGoal, match.Value)
		case filters.FilterPersona:
			if result.Requirements.Persona == "" {
				result.Requirements.Persona = match.Value
				result.Filters.Add(filters.FilterPersona, match.Value)
			}
		case filters.FilterChannel:
			// only trust retrieval for channels the text actually mentions
			if strings.Contains(lower, match.Value) {
				result.Requirements.Channels = appendUnique(result.Requirements.Channels, match.Value)
				result.Filters.Add(filters.FilterChannel, match.Value)
			}
		case filters.FilterTimePeriod:
			if result.Requirements.TimePeriod == "" && strings.Contains(lower, match.Value) {
				result.Requirements.TimePeriod = match.Value
				result.Filters.Add(filters.FilterTimePeriod, match.Value)
			}
		}
	}
}

func buildRefinedQuery(r *state.Requirements) string {
	var parts []string
	if len(r.Products) > 0 {
		parts = append(parts, "analyze "+strings.Join(r.Products, ", "))
	}
	if len(r.Goals) > 0 {
		parts = append(parts, "for "+strings.Join(r.Goals, ", "))
	}
	if len(r.Channels) > 0 {
		parts = append(parts, "across "+strings.Join(r.Channels, ", "))
	}
	if r.Location != "" {
		parts = append(parts, "in "+r.Location)
	}
	if r.TimePeriod != "" {
		parts = append(parts, "over the "+r.TimePeriod)
	}
	return strings.Join(parts, " ")
}

func confidence(r *state.Requirements, missing []string) float64 {
	total := 4.0
	populated := total - float64(len(missing))
	if populated < 0 {
		populated = 0
	}
	return populated / total
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func isStopPhrase(term string) bool {
	switch strings.ToLower(term) {
	case "me", "it", "that", "this", "them", "us", "everything":
		return true
	}
	return false
}
