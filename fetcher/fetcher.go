// Package fetcher retrieves analytics records for query descriptors from an
// external reporting API.
package fetcher

import (
	"context"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// Fetcher executes one query descriptor against a data source and returns the
// matching records. Implementations must treat transport errors as transient
// and wrap terminal failures in errors.ErrFetchFailed.
type Fetcher interface {
	Fetch(ctx context.Context, q state.Query) ([]state.Record, error)
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, q state.Query) ([]state.Record, error)

func (f Func) Fetch(ctx context.Context, q state.Query) ([]state.Record, error) {
	return f(ctx, q)
}
