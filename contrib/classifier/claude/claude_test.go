package claude

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/prompt"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

func TestBoundRecordsTruncatesToBudget(t *testing.T) {
	budget, err := prompt.NewBudget("gpt-4", 50)
	if err != nil {
		t.Skipf("token encoding unavailable: %v", err)
	}

	records := make([]state.Record, 64)
	for i := range records {
		records[i] = state.Record{"id": fmt.Sprintf("m%d", i), "content": strings.Repeat("word ", 20)}
	}

	encoded, err := boundRecords(budget, records)
	if err != nil {
		t.Fatalf("boundRecords() error = %v", err)
	}
	if !budget.Fits(encoded) {
		t.Errorf("bounded encoding still exceeds the budget: %d tokens", budget.Count(encoded))
	}
	if !strings.HasPrefix(encoded, "[") {
		t.Errorf("bounded encoding is not a JSON array: %q", encoded)
	}
}

func TestBoundRecordsNilBudget(t *testing.T) {
	encoded, err := boundRecords(nil, []state.Record{{"id": "m1"}})
	if err != nil {
		t.Fatalf("boundRecords() error = %v", err)
	}
	if !strings.Contains(encoded, "m1") {
		t.Errorf("encoding lost records without a budget: %q", encoded)
	}
}

func TestParseThemesDropsUnknownMembers(t *testing.T) {
	records := []state.Record{{"id": "m1"}, {"id": "m2"}}
	response := `Here are the themes: [{"name":"praise","keywords":["love"],"relevance":0.5,"member_ids":["m1","ghost"]}]`

	themes, err := parseThemes(response, records)
	if err != nil {
		t.Fatalf("parseThemes() error = %v", err)
	}
	if len(themes) != 1 {
		t.Fatalf("themes = %d, want 1", len(themes))
	}
	if got := themes[0].MemberIDs; len(got) != 1 || got[0] != "m1" {
		t.Errorf("member_ids = %v, want [m1]", got)
	}
}

func TestParseThemesNoArray(t *testing.T) {
	_, err := parseThemes("sorry, I cannot help with that", []state.Record{{"id": "m1"}})
	if !errors.Is(err, inserr.ErrClassification) {
		t.Errorf("parseThemes() error = %v, want ErrClassification", err)
	}
}
