package classifier

import (
	"context"
	"testing"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

func TestKeywordClassifyBuckets(t *testing.T) {
	k := NewKeyword()
	records := []state.Record{
		{"id": "m1", "content": "I love this phone, best camera ever"},
		{"id": "m2", "content": "screen is broken and support is terrible"},
		{"id": "m3", "content": "how do I reset network settings"},
		{"id": "m4", "content": "just posted a photo"},
	}

	themes, err := k.Classify(context.Background(), "", records)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	byName := map[string]state.Theme{}
	for _, th := range themes {
		byName[th.Name] = th
	}

	if got := byName["praise"].MemberIDs; len(got) != 1 || got[0] != "m1" {
		t.Errorf("praise members = %v", got)
	}
	if got := byName["complaints"].MemberIDs; len(got) != 1 || got[0] != "m2" {
		t.Errorf("complaints members = %v", got)
	}
	if got := byName["support requests"].MemberIDs; len(got) != 2 {
		t.Errorf("support requests members = %v, want m2 and m3", got)
	}
	if got := byName[fallbackTheme].MemberIDs; len(got) != 1 || got[0] != "m4" {
		t.Errorf("fallback members = %v", got)
	}
}

func TestKeywordClassifyRelevance(t *testing.T) {
	k := NewKeyword(ThemeRule{Name: "battery", Keywords: []string{"battery"}})
	records := []state.Record{
		{"id": "m1", "content": "battery drains fast"},
		{"id": "m2", "content": "battery life is fine"},
		{"id": "m3", "content": "nice screen"},
		{"id": "m4", "content": "good camera"},
	}

	themes, err := k.Classify(context.Background(), "", records)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for _, th := range themes {
		if th.Name == "battery" {
			if th.Relevance != 0.5 {
				t.Errorf("battery relevance = %v, want 0.5", th.Relevance)
			}
			if len(th.Keywords) != 1 || th.Keywords[0] != "battery" {
				t.Errorf("battery keywords = %v", th.Keywords)
			}
			return
		}
	}
	t.Fatal("battery theme missing")
}

func TestKeywordClassifyEmptyRecords(t *testing.T) {
	themes, err := NewKeyword().Classify(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if themes != nil {
		t.Errorf("themes = %v, want nil", themes)
	}
}

func TestKeywordClassifySortedByMemberCount(t *testing.T) {
	k := NewKeyword()
	records := []state.Record{
		{"id": "m1", "content": "love it"},
		{"id": "m2", "content": "love the design"},
		{"id": "m3", "content": "awful experience"},
	}
	themes, err := k.Classify(context.Background(), "", records)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(themes) < 2 {
		t.Fatalf("got %d themes", len(themes))
	}
	if themes[0].Name != "praise" {
		t.Errorf("first theme = %q, want largest bucket first", themes[0].Name)
	}
}
