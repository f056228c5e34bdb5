// Package query builds boolean query descriptors from validated conversation
// requirements. One descriptor is produced per product/channel pair so each
// fetch targets a single stream, mirroring how the analytics API is consumed.
package query

import (
	"fmt"
	"strings"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/filters"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
	"github.com/google/uuid"
)

// Builder constructs query descriptors. Exclusions are AND NOT'ed onto every
// query text.
type Builder struct {
	Exclusions []string
}

// NewBuilder returns a builder with no exclusions.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces one descriptor per product/channel pair of the validated
// requirements. The filter set contributes extra per-query filters (location,
// persona) resolved during refinement.
func (b *Builder) Build(req *state.Requirements, fs filters.FilterSet) ([]state.Query, error) {
	if req == nil || len(req.Products) == 0 || len(req.Channels) == 0 {
		return nil, fmt.Errorf("%w: products and channels are required to build queries", inserr.ErrLookupMiss)
	}

	queries := make([]state.Query, 0, len(req.Products)*len(req.Channels))
	for _, product := range req.Products {
		for _, channel := range req.Channels {
			q := state.Query{
				ID:         uuid.NewString(),
				Text:       b.booleanText(product, req.Goals),
				Product:    product,
				Channel:    channel,
				TimePeriod: req.TimePeriod,
				Location:   req.Location,
			}
			if len(req.Goals) > 0 {
				q.Goal = req.Goals[0]
			}
			q.Filters = extraFilters(fs)
			queries = append(queries, q)
		}
	}
	return queries, nil
}

// booleanText renders the AND/OR/NOT composition for one product.
func (b *Builder) booleanText(product string, goals []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(%q)", product)

	if len(goals) > 0 {
		quoted := make([]string, len(goals))
		for i, g := range goals {
			quoted[i] = fmt.Sprintf("%q", g)
		}
		fmt.Fprintf(&sb, " AND (%s)", strings.Join(quoted, " OR "))
	}

	if len(b.Exclusions) > 0 {
		quoted := make([]string, len(b.Exclusions))
		for i, e := range b.Exclusions {
			quoted[i] = fmt.Sprintf("%q", e)
		}
		fmt.Fprintf(&sb, " NOT (%s)", strings.Join(quoted, " OR "))
	}
	return sb.String()
}

// extraFilters flattens filter-set entries that ride along with every query
// rather than shaping the boolean text.
func extraFilters(fs filters.FilterSet) map[string]string {
	if len(fs) == 0 {
		return nil
	}
	out := make(map[string]string)
	for _, name := range []string{filters.FilterLocation, filters.FilterPersona} {
		if values := fs[name]; len(values) > 0 {
			out[name] = values[0]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
