// Package classifier groups fetched records into named themes.
package classifier

import (
	"context"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// Classifier derives themes from a record set. The query text gives the
// classifier the analysis intent. The orchestrator treats an empty record set
// as a processing failure before classification, so implementations never see
// one in normal operation; if called with no records anyway they return no
// themes and no error.
type Classifier interface {
	Classify(ctx context.Context, queryText string, records []state.Record) ([]state.Theme, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, queryText string, records []state.Record) ([]state.Theme, error)

func (f Func) Classify(ctx context.Context, queryText string, records []state.Record) ([]state.Theme, error) {
	return f(ctx, queryText, records)
}
