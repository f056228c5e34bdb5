package query

import (
	"errors"
	"strings"
	"testing"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/filters"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

func TestBuildProductChannelMatrix(t *testing.T) {
	b := NewBuilder()
	req := &state.Requirements{
		Products:   []string{"Samsung Galaxy", "iPhone"},
		Channels:   []string{"twitter", "reddit"},
		Goals:      []string{"brand health"},
		TimePeriod: "last 30 days",
	}

	queries, err := b.Build(req, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(queries) != 4 {
		t.Fatalf("expected 4 queries (2 products x 2 channels), got %d", len(queries))
	}

	seen := map[string]bool{}
	for _, q := range queries {
		seen[q.Product+"/"+q.Channel] = true
		if q.TimePeriod != "last 30 days" {
			t.Errorf("query %s: time period = %q", q.ID, q.TimePeriod)
		}
		if q.Goal != "brand health" {
			t.Errorf("query %s: goal = %q", q.ID, q.Goal)
		}
		if !strings.Contains(q.Text, "AND") {
			t.Errorf("query text missing AND clause: %q", q.Text)
		}
	}
	for _, pair := range []string{"Samsung Galaxy/twitter", "Samsung Galaxy/reddit", "iPhone/twitter", "iPhone/reddit"} {
		if !seen[pair] {
			t.Errorf("missing query for %s", pair)
		}
	}
}

func TestBuildBooleanText(t *testing.T) {
	b := &Builder{Exclusions: []string{"giveaway"}}
	req := &state.Requirements{
		Products: []string{"Pixel"},
		Channels: []string{"twitter"},
		Goals:    []string{"sentiment", "complaints"},
	}

	queries, err := b.Build(req, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	got := queries[0].Text
	want := `("Pixel") AND ("sentiment" OR "complaints") NOT ("giveaway")`
	if got != want {
		t.Errorf("boolean text = %q, want %q", got, want)
	}
}

func TestBuildRequiresProductsAndChannels(t *testing.T) {
	b := NewBuilder()
	cases := []struct {
		name string
		req  *state.Requirements
	}{
		{"nil requirements", nil},
		{"no products", &state.Requirements{Channels: []string{"twitter"}}},
		{"no channels", &state.Requirements{Products: []string{"Pixel"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := b.Build(tc.req, nil); !errors.Is(err, inserr.ErrLookupMiss) {
				t.Errorf("Build() error = %v, want ErrLookupMiss", err)
			}
		})
	}
}

func TestBuildExtraFilters(t *testing.T) {
	b := NewBuilder()
	req := &state.Requirements{
		Products: []string{"Pixel"},
		Channels: []string{"twitter"},
	}
	fs := filters.FilterSet{
		filters.FilterLocation: {"India"},
		filters.FilterPersona:  {"marketing manager"},
	}

	queries, err := b.Build(req, fs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := queries[0].Filters[filters.FilterLocation]; got != "India" {
		t.Errorf("location filter = %q", got)
	}
	if got := queries[0].Filters[filters.FilterPersona]; got != "marketing manager" {
		t.Errorf("persona filter = %q", got)
	}
}
