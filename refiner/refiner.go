package refiner

import (
	"context"

	"github.com/Pratham2403/insights-dashboard-sub001/filters"
	"github.com/Pratham2403/insights-dashboard-sub001/message"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// Request bundles everything a refiner may use to normalize raw user text:
// the text itself, the transcript so far, the requirements already collected,
// and the ranked knowledge-base matches for the text.
type Request struct {
	ConversationID string
	Input          string
	History        []*message.Message
	Existing       state.Requirements
	Matches        []filters.Match
}

// Result is the normalized outcome of a refinement pass.
type Result struct {
	// RefinedQuery is the single self-contained query text describing the
	// user's analytics objective.
	RefinedQuery string

	// Requirements holds the structured field updates extracted from the
	// input; the orchestrator merges them into conversation state.
	Requirements state.Requirements

	// Filters is the normalized filter set derived from input and matches.
	Filters filters.FilterSet

	// Confidence in the refinement, 0..1.
	Confidence float64

	// MissingInfo names parameters the refiner could not determine.
	MissingInfo []string

	// DefaultsApplied names fields filled with defaults rather than user input.
	DefaultsApplied []string
}

// Refiner turns free-text user input into a normalized filter set. It is a
// swappable strategy; implementations must not mutate the request.
type Refiner interface {
	Refine(ctx context.Context, req *Request) (*Result, error)
}
