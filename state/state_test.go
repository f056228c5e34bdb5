package state

import (
	"strings"
	"testing"

	"github.com/Pratham2403/insights-dashboard-sub001/message"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Stage
		want     bool
	}{
		{StageCollecting, StageValidating, true},
		{StageCollecting, StageCollecting, true},
		{StageValidating, StageQuerying, true},
		{StageValidating, StageCollecting, true},
		{StageQuerying, StageProcessing, true},
		{StageQuerying, StageCollecting, true},
		{StageProcessing, StageConfirmation, true},
		{StageProcessing, StageQuerying, true},
		{StageConfirmation, StageEnd, true},
		{StageConfirmation, StageCollecting, true},

		{StageCollecting, StageQuerying, false},
		{StageCollecting, StageEnd, false},
		{StageValidating, StageConfirmation, false},
		{StageQuerying, StageEnd, false},
		{StageProcessing, StageCollecting, false},
		{StageEnd, StageCollecting, false},
		{StageEnd, StageConfirmation, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestAdvanceTo(t *testing.T) {
	st := New("conv-1")
	if st.Stage != StageCollecting {
		t.Fatalf("new state stage = %s", st.Stage)
	}

	if err := st.AdvanceTo(StageValidating); err != nil {
		t.Fatalf("AdvanceTo(validating) error = %v", err)
	}
	if err := st.AdvanceTo(StageProcessing); err == nil {
		t.Error("expected error skipping querying")
	}
	if st.Stage != StageValidating {
		t.Errorf("failed transition must not change the stage, got %s", st.Stage)
	}

	// Same-stage advance is a no-op.
	if err := st.AdvanceTo(StageValidating); err != nil {
		t.Errorf("AdvanceTo(same) error = %v", err)
	}
}

func TestAdvanceToEndIsTerminal(t *testing.T) {
	st := New("conv-1")
	st.Stage = StageEnd
	if err := st.AdvanceTo(StageCollecting); err == nil {
		t.Error("expected error leaving end stage")
	}
}

func TestNewGeneratesID(t *testing.T) {
	st := New("")
	if !strings.HasPrefix(st.ConversationID, "conv_") {
		t.Errorf("generated id = %q", st.ConversationID)
	}
	if New("").ConversationID == st.ConversationID {
		t.Error("generated ids must be unique")
	}
}

func TestRequirementsMerge(t *testing.T) {
	base := Requirements{
		Products: []string{"Pixel"},
		Channels: []string{"twitter"},
	}
	changed := base.Merge(Requirements{
		Products:   []string{"Pixel", "iPhone"},
		Channels:   []string{"twitter"},
		TimePeriod: "last 30 days",
	})

	if len(base.Products) != 2 {
		t.Errorf("products = %v", base.Products)
	}
	if base.TimePeriod != "last 30 days" {
		t.Errorf("time period = %q", base.TimePeriod)
	}
	has := func(v string) bool {
		for _, c := range changed {
			if c == v {
				return true
			}
		}
		return false
	}
	if !has(FieldProducts) || !has(FieldTimePeriod) {
		t.Errorf("changed = %v, want products and time_period", changed)
	}
	if has(FieldChannels) {
		t.Errorf("changed = %v, channels did not change", changed)
	}
}

func TestMissingAndIsComplete(t *testing.T) {
	required := []string{FieldProducts, FieldChannels, FieldGoals, FieldTimePeriod}
	st := New("conv-1")

	st.RecomputeMissing(required)
	if len(st.MissingFields) != 4 {
		t.Errorf("missing = %v", st.MissingFields)
	}
	if st.IsComplete(required) {
		t.Error("empty requirements cannot be complete")
	}

	st.Requirements = Requirements{
		Products:   []string{"Pixel"},
		Channels:   []string{"twitter"},
		Goals:      []string{"brand health"},
		TimePeriod: "last 30 days",
	}
	st.RecomputeMissing(required)
	if len(st.MissingFields) != 0 {
		t.Errorf("missing = %v, want none", st.MissingFields)
	}
	if !st.IsComplete(required) {
		t.Error("all required fields populated, IsComplete must hold")
	}

	// is_complete holds iff missing_fields is empty.
	st.Requirements.Channels = nil
	st.RecomputeMissing(required)
	if st.IsComplete(required) != (len(st.MissingFields) == 0) {
		t.Error("IsComplete must track MissingFields exactly")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	st := New("conv-1")
	st.Requirements.Products = []string{"Pixel"}
	st.Queries = []Query{{ID: "q1", Filters: map[string]string{"location": "India"}}}
	st.Records = []Record{{"id": "m1", "content": "hello"}}
	st.Themes = []Theme{{Name: "praise", MemberIDs: []string{"m1"}}}
	st.AppendMessage(message.New(message.RoleUser, "hi"))

	snap := st.Snapshot()
	snap.Requirements.Products[0] = "changed"
	snap.Queries[0].Filters["location"] = "changed"
	snap.Records[0]["content"] = "changed"
	snap.Themes[0].MemberIDs[0] = "changed"
	snap.Transcript[0].Content = "changed"

	if st.Requirements.Products[0] != "Pixel" {
		t.Error("products aliased")
	}
	if st.Queries[0].Filters["location"] != "India" {
		t.Error("query filters aliased")
	}
	if st.Records[0]["content"] != "hello" {
		t.Error("records aliased")
	}
	if st.Themes[0].MemberIDs[0] != "m1" {
		t.Error("theme members aliased")
	}
	if st.Transcript[0].Content != "hi" {
		t.Error("transcript aliased")
	}
}

func TestRecordID(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want string
	}{
		{"id field", Record{"id": "a"}, "a"},
		{"underscore id", Record{"_id": "b"}, "b"},
		{"message id", Record{"messageId": "c"}, "c"},
		{"id wins over messageId", Record{"id": "a", "messageId": "c"}, "a"},
		{"no id", Record{"content": "x"}, ""},
		{"non-string id", Record{"id": 42}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.ID(); got != tc.want {
				t.Errorf("ID() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSayAppendsAssistantMessage(t *testing.T) {
	st := New("conv-1")
	before := st.UpdatedAt
	st.Say("hello there")
	if len(st.Transcript) != 1 {
		t.Fatalf("transcript = %d messages", len(st.Transcript))
	}
	if st.Transcript[0].Role != message.RoleAssistant {
		t.Errorf("role = %s", st.Transcript[0].Role)
	}
	if st.UpdatedAt.Before(before) {
		t.Error("UpdatedAt not refreshed")
	}
}
