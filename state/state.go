package state

import (
	"fmt"
	"time"

	"github.com/Pratham2403/insights-dashboard-sub001/message"
	"github.com/google/uuid"
)

// Stage is a named phase of the conversation lifecycle.
type Stage string

const (
	StageCollecting   Stage = "collecting"
	StageValidating   Stage = "validating"
	StageQuerying     Stage = "querying"
	StageProcessing   Stage = "processing"
	StageConfirmation Stage = "confirmation"
	StageEnd          Stage = "end"
)

// transitions lists the allowed next stages. Progress is monotonic forward;
// the backward edges exist only for recovery (failed validation, lookup miss,
// processing retry, rejected confirmation).
var transitions = map[Stage][]Stage{
	StageCollecting:   {StageCollecting, StageValidating},
	StageValidating:   {StageQuerying, StageCollecting},
	StageQuerying:     {StageProcessing, StageCollecting},
	StageProcessing:   {StageConfirmation, StageQuerying},
	StageConfirmation: {StageEnd, StageCollecting},
	StageEnd:          {},
}

// Valid reports whether s is a member of the closed stage enumeration.
func (s Stage) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the stage machine permits moving from one
// stage to another.
func CanTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Canonical requirement field names. The orchestrator's required set is
// expressed in these names; it is configuration, never hard-coded here.
const (
	FieldPersona    = "persona"
	FieldProducts   = "products"
	FieldLocation   = "location"
	FieldChannels   = "channels"
	FieldGoals      = "goals"
	FieldTimePeriod = "time_period"
	FieldNotes      = "notes"
)

// AllFields lists every requirement field name in canonical order.
var AllFields = []string{
	FieldPersona,
	FieldProducts,
	FieldLocation,
	FieldChannels,
	FieldGoals,
	FieldTimePeriod,
	FieldNotes,
}

// Requirements holds the structured fields collected from the user. Each field
// is optional until populated.
type Requirements struct {
	Persona    string   `json:"persona,omitempty" bson:"persona,omitempty"`
	Products   []string `json:"products,omitempty" bson:"products,omitempty"`
	Location   string   `json:"location,omitempty" bson:"location,omitempty"`
	Channels   []string `json:"channels,omitempty" bson:"channels,omitempty"`
	Goals      []string `json:"goals,omitempty" bson:"goals,omitempty"`
	TimePeriod string   `json:"time_period,omitempty" bson:"time_period,omitempty"`
	Notes      string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Populated reports whether the named field currently holds a value.
func (r *Requirements) Populated(field string) bool {
	switch field {
	case FieldPersona:
		return r.Persona != ""
	case FieldProducts:
		return len(r.Products) > 0
	case FieldLocation:
		return r.Location != ""
	case FieldChannels:
		return len(r.Channels) > 0
	case FieldGoals:
		return len(r.Goals) > 0
	case FieldTimePeriod:
		return r.TimePeriod != ""
	case FieldNotes:
		return r.Notes != ""
	}
	return false
}

// Missing returns the subset of required field names that are not populated,
// preserving the order of required.
func (r *Requirements) Missing(required []string) []string {
	missing := make([]string, 0, len(required))
	for _, field := range required {
		if !r.Populated(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Merge copies populated fields from update into r. List fields are unioned
// preserving first-seen order. It returns the names of fields that changed.
func (r *Requirements) Merge(update Requirements) []string {
	var changed []string
	if update.Persona != "" && update.Persona != r.Persona {
		r.Persona = update.Persona
		changed = append(changed, FieldPersona)
	}
	if merged, grew := unionList(r.Products, update.Products); grew {
		r.Products = merged
		changed = append(changed, FieldProducts)
	}
	if update.Location != "" && update.Location != r.Location {
		r.Location = update.Location
		changed = append(changed, FieldLocation)
	}
	if merged, grew := unionList(r.Channels, update.Channels); grew {
		r.Channels = merged
		changed = append(changed, FieldChannels)
	}
	if merged, grew := unionList(r.Goals, update.Goals); grew {
		r.Goals = merged
		changed = append(changed, FieldGoals)
	}
	if update.TimePeriod != "" && update.TimePeriod != r.TimePeriod {
		r.TimePeriod = update.TimePeriod
		changed = append(changed, FieldTimePeriod)
	}
	if update.Notes != "" && update.Notes != r.Notes {
		r.Notes = update.Notes
		changed = append(changed, FieldNotes)
	}
	return changed
}

func unionList(base, extra []string) ([]string, bool) {
	if len(extra) == 0 {
		return base, false
	}
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	grew := false
	for _, v := range extra {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		base = append(base, v)
		grew = true
	}
	return base, grew
}

// Clone returns a deep copy of the requirements.
func (r Requirements) Clone() Requirements {
	out := r
	out.Products = append([]string(nil), r.Products...)
	out.Channels = append([]string(nil), r.Channels...)
	out.Goals = append([]string(nil), r.Goals...)
	return out
}

// Query is a boolean query descriptor issued against the analytics API.
type Query struct {
	ID         string            `json:"id" bson:"id"`
	Text       string            `json:"text" bson:"text"`
	Product    string            `json:"product" bson:"product"`
	Channel    string            `json:"channel" bson:"channel"`
	Goal       string            `json:"goal,omitempty" bson:"goal,omitempty"`
	TimePeriod string            `json:"time_period,omitempty" bson:"time_period,omitempty"`
	Location   string            `json:"location,omitempty" bson:"location,omitempty"`
	Filters    map[string]string `json:"filters,omitempty" bson:"filters,omitempty"`
}

// Record is an opaque record retrieved from the analytics API.
type Record map[string]any

// ID extracts the record identifier, if present.
func (r Record) ID() string {
	for _, key := range []string{"id", "_id", "messageId"} {
		if v, ok := r[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// Theme is a named cluster of retrieved records sharing a classified topic.
type Theme struct {
	Name      string   `json:"name" bson:"name"`
	Keywords  []string `json:"keywords,omitempty" bson:"keywords,omitempty"`
	Relevance float64  `json:"relevance" bson:"relevance"`
	MemberIDs []string `json:"member_record_ids,omitempty" bson:"member_record_ids,omitempty"`
}

// State is the complete per-conversation state. It is mutated exclusively by
// the workflow engine; stores persist deep-copied snapshots of it.
type State struct {
	ConversationID string       `json:"conversation_id" bson:"_id"`
	Requirements   Requirements `json:"requirements" bson:"requirements"`

	Stage              Stage    `json:"current_stage" bson:"current_stage"`
	MissingFields      []string `json:"missing_fields" bson:"missing_fields"`
	RequiresHumanInput bool     `json:"requires_human_input" bson:"requires_human_input"`

	RefinedQuery    string   `json:"refined_query,omitempty" bson:"refined_query,omitempty"`
	DefaultsApplied []string `json:"defaults_applied,omitempty" bson:"defaults_applied,omitempty"`

	Queries []Query  `json:"queries" bson:"queries"`
	Records []Record `json:"records" bson:"records"`
	Themes  []Theme  `json:"themes" bson:"themes"`

	Transcript []*message.Message `json:"transcript" bson:"transcript"`

	FetchAttempts   int    `json:"fetch_attempts" bson:"fetch_attempts"`
	ProcessAttempts int    `json:"process_attempts" bson:"process_attempts"`
	LastInput       string `json:"last_input,omitempty" bson:"last_input,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// New creates conversation state at the start of its lifecycle. An empty id is
// replaced with a generated one.
func New(conversationID string) *State {
	if conversationID == "" {
		conversationID = "conv_" + uuid.NewString()
	}
	now := time.Now()
	return &State{
		ConversationID: conversationID,
		Stage:          StageCollecting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AdvanceTo moves the state machine to the given stage, enforcing the
// transition table. Self-transition to collecting is permitted so a clarifying
// pass does not error.
func (s *State) AdvanceTo(stage Stage) error {
	if s.Stage == StageEnd {
		return fmt.Errorf("conversation %s: cannot leave terminal stage", s.ConversationID)
	}
	if stage == s.Stage {
		return nil
	}
	if !CanTransition(s.Stage, stage) {
		return fmt.Errorf("conversation %s: illegal transition %s -> %s", s.ConversationID, s.Stage, stage)
	}
	s.Stage = stage
	s.UpdatedAt = time.Now()
	return nil
}

// AppendMessage appends to the transcript. Messages are never mutated or
// removed once appended.
func (s *State) AppendMessage(msg *message.Message) {
	if msg == nil {
		return
	}
	s.Transcript = append(s.Transcript, msg)
	s.UpdatedAt = time.Now()
}

// Say appends an assistant message and returns it.
func (s *State) Say(content string) *message.Message {
	msg := message.New(message.RoleAssistant, content)
	s.AppendMessage(msg)
	return msg
}

// RecomputeMissing refreshes MissingFields against the required set so it
// always reflects the true residual gap at the moment of inspection.
func (s *State) RecomputeMissing(required []string) {
	s.MissingFields = s.Requirements.Missing(required)
}

// IsComplete holds iff MissingFields is empty and every required field is
// populated.
func (s *State) IsComplete(required []string) bool {
	s.RecomputeMissing(required)
	return len(s.MissingFields) == 0
}

// Snapshot returns a deep copy suitable for persistence or inspection.
func (s *State) Snapshot() *State {
	out := *s
	out.Requirements = s.Requirements.Clone()
	out.MissingFields = append([]string(nil), s.MissingFields...)
	out.DefaultsApplied = append([]string(nil), s.DefaultsApplied...)
	out.Queries = cloneQueries(s.Queries)
	out.Records = cloneRecords(s.Records)
	out.Themes = cloneThemes(s.Themes)
	out.Transcript = message.CloneAll(s.Transcript)
	return &out
}

func cloneQueries(queries []Query) []Query {
	if len(queries) == 0 {
		return nil
	}
	out := make([]Query, len(queries))
	for i, q := range queries {
		out[i] = q
		if q.Filters != nil {
			out[i].Filters = make(map[string]string, len(q.Filters))
			for k, v := range q.Filters {
				out[i].Filters[k] = v
			}
		}
	}
	return out
}

func cloneRecords(records []Record) []Record {
	if len(records) == 0 {
		return nil
	}
	out := make([]Record, len(records))
	for i, rec := range records {
		cloned := make(Record, len(rec))
		for k, v := range rec {
			cloned[k] = v
		}
		out[i] = cloned
	}
	return out
}

func cloneThemes(themes []Theme) []Theme {
	if len(themes) == 0 {
		return nil
	}
	out := make([]Theme, len(themes))
	for i, th := range themes {
		out[i] = th
		out[i].Keywords = append([]string(nil), th.Keywords...)
		out[i].MemberIDs = append([]string(nil), th.MemberIDs...)
	}
	return out
}
