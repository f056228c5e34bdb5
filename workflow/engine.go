// Package workflow orchestrates the conversation stage machine: gathering
// requirements, validating them, building and running queries, classifying
// the results and confirming them with the user.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Pratham2403/insights-dashboard-sub001/classifier"
	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/fetcher"
	"github.com/Pratham2403/insights-dashboard-sub001/filters"
	"github.com/Pratham2403/insights-dashboard-sub001/pipeline"
	"github.com/Pratham2403/insights-dashboard-sub001/pkg/logging"
	"github.com/Pratham2403/insights-dashboard-sub001/pkg/telemetry"
	"github.com/Pratham2403/insights-dashboard-sub001/prompt"
	"github.com/Pratham2403/insights-dashboard-sub001/query"
	"github.com/Pratham2403/insights-dashboard-sub001/refiner"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// Config tunes the engine.
type Config struct {
	// RequiredFields must all be populated before querying starts.
	RequiredFields []string

	// MaxFetchRetries bounds fetch attempts per conversation before the
	// stage falls back for new input.
	MaxFetchRetries int

	// MaxProcessRetries bounds classification attempts likewise.
	MaxProcessRetries int

	// MaxVisits bounds per-stage visits within a single pass.
	MaxVisits int

	// LookupTopK is how many knowledge-base matches to consider per lookup.
	LookupTopK int
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		RequiredFields:    []string{state.FieldProducts, state.FieldChannels, state.FieldGoals, state.FieldTimePeriod},
		MaxFetchRetries:   3,
		MaxProcessRetries: 2,
		MaxVisits:         10,
		LookupTopK:        8,
	}
}

// Engine drives a conversation through its stages. One Advance call applies
// one user message and runs the pipeline until the conversation either needs
// the user again or ends. Callers serialize Advance per conversation.
type Engine struct {
	cfg        Config
	refiner    refiner.Refiner
	kb         *filters.KnowledgeBase
	builder    *query.Builder
	fetcher    fetcher.Fetcher
	classifier classifier.Classifier
	pipeline   *pipeline.Pipeline
	prompts    *prompt.Manager
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) { e.cfg = cfg }
}

// WithBuilder replaces the default query builder.
func WithBuilder(b *query.Builder) EngineOption {
	return func(e *Engine) { e.builder = b }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine wires the engine from its collaborators.
func NewEngine(r refiner.Refiner, kb *filters.KnowledgeBase, f fetcher.Fetcher, c classifier.Classifier, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:        DefaultConfig(),
		refiner:    r,
		kb:         kb,
		builder:    query.NewBuilder(),
		fetcher:    f,
		classifier: c,
		prompts:    prompt.NewManager(),
		logger:     logging.WithComponent("workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pipeline = e.buildPipeline()
	return e
}

// stage and routing names used by the pipeline.
const (
	stageRoute    = "route"
	stageCollect  = "collect"
	stageValidate = "validate"
	stageBuild    = "build_queries"
	stageProcess  = "process"
	stageConfirm  = "confirm"
	stageAwait    = "await_input"
	stageDone     = "done"

	routeAwait = "await"
)

func (e *Engine) buildPipeline() *pipeline.Pipeline {
	return pipeline.NewBuilder().
		AddConditionStage(stageRoute, e.route, map[string]string{
			routeAwait:                      stageAwait,
			string(state.StageCollecting):   stageCollect,
			string(state.StageValidating):   stageValidate,
			string(state.StageQuerying):     stageBuild,
			string(state.StageProcessing):   stageProcess,
			string(state.StageConfirmation): stageConfirm,
			string(state.StageEnd):          stageDone,
		}).
		AddStage(stageCollect, pipeline.StageTypeWork, e.collect).
		AddStage(stageValidate, pipeline.StageTypeWork, e.validate).
		AddStage(stageBuild, pipeline.StageTypeWork, e.buildQueries).
		AddStage(stageProcess, pipeline.StageTypeWork, e.process).
		AddStage(stageConfirm, pipeline.StageTypeWork, e.confirm).
		AddStage(stageAwait, pipeline.StageTypeEnd, nil).
		AddStage(stageDone, pipeline.StageTypeEnd, nil).
		AddEdge(stageCollect, stageRoute).
		AddEdge(stageValidate, stageRoute).
		AddEdge(stageBuild, stageRoute).
		AddEdge(stageProcess, stageRoute).
		AddEdge(stageConfirm, stageRoute).
		SetStart(stageRoute).
		SetMaxVisits(e.cfg.MaxVisits).
		Build()
}

// route dispatches on the conversation stage, diverting to await_input
// whenever the conversation is blocked on the user.
func (e *Engine) route(_ context.Context, st *state.State) (string, error) {
	if st.RequiresHumanInput {
		return routeAwait, nil
	}
	return string(st.Stage), nil
}

// Advance applies one user message to the conversation and runs it forward
// until it blocks on the user again or ends. Replaying the same message in
// the same stage is a no-op. Errors reaching the user never strand the
// conversation; the stage always remains advanceable.
func (e *Engine) Advance(ctx context.Context, st *state.State, input string) error {
	ctx, span := telemetry.Tracer().Start(ctx, "workflow.advance", trace.WithAttributes(
		attribute.String("conversation.id", st.ConversationID),
		attribute.String("conversation.stage", string(st.Stage)),
	))
	var err error
	defer func() { telemetry.End(span, err) }()

	if st.Stage == state.StageEnd {
		err = fmt.Errorf("%w: %s", inserr.ErrConversationEnded, st.ConversationID)
		return err
	}
	input = strings.TrimSpace(input)
	if input != "" && input == st.LastInput {
		e.logger.Debug("duplicate input ignored", "conversation_id", st.ConversationID, "stage", st.Stage)
		return nil
	}

	if input != "" {
		st.AppendMessage(messageFromUser(input))
		st.LastInput = input
	}
	st.RequiresHumanInput = false

	err = e.pipeline.Execute(ctx, st)
	if err != nil {
		e.logger.Error("advance failed", "conversation_id", st.ConversationID, "stage", st.Stage, "error", err)
		return err
	}

	span.SetAttributes(attribute.String("conversation.stage_after", string(st.Stage)))
	e.logger.Info("conversation advanced",
		"conversation_id", st.ConversationID,
		"stage", st.Stage,
		"missing_fields", strings.Join(st.MissingFields, ","),
		"requires_human_input", st.RequiresHumanInput,
	)
	return nil
}

// collect merges the latest user input into the requirements and decides
// whether enough has been gathered to start validating.
func (e *Engine) collect(ctx context.Context, st *state.State) error {
	input := st.LastInput
	if input == "" {
		st.RecomputeMissing(e.cfg.RequiredFields)
		if st.IsComplete(e.cfg.RequiredFields) {
			return st.AdvanceTo(state.StageValidating)
		}
		st.RequiresHumanInput = true
		st.Say(e.askMissingMessage(st.MissingFields))
		return nil
	}

	var matches []filters.Match
	if e.kb != nil && input != "" {
		var err error
		matches, err = e.kb.Lookup(ctx, input, e.cfg.LookupTopK)
		if err != nil && !errors.Is(err, inserr.ErrLookupMiss) {
			return err
		}
	}

	result, err := e.refiner.Refine(ctx, &refiner.Request{
		ConversationID: st.ConversationID,
		Input:          input,
		History:        st.Transcript,
		Existing:       st.Requirements.Clone(),
		Matches:        matches,
	})
	if err != nil {
		return err
	}

	changed := st.Requirements.Merge(result.Requirements)
	if result.RefinedQuery != "" {
		st.RefinedQuery = result.RefinedQuery
	}
	for _, d := range result.DefaultsApplied {
		st.DefaultsApplied = appendUnique(st.DefaultsApplied, d)
	}
	st.RecomputeMissing(e.cfg.RequiredFields)

	e.logger.Debug("requirements updated",
		"conversation_id", st.ConversationID,
		"changed_fields", strings.Join(changed, ","),
		"missing_fields", strings.Join(st.MissingFields, ","),
	)

	if !st.IsComplete(e.cfg.RequiredFields) {
		st.RequiresHumanInput = true
		st.Say(e.askMissingMessage(st.MissingFields))
		return nil
	}
	return st.AdvanceTo(state.StageValidating)
}

// validate checks the collected requirements and either moves on to querying
// or sends the conversation back for the problem fields.
func (e *Engine) validate(_ context.Context, st *state.State) error {
	fieldErrs := state.Validate(&st.Requirements, e.cfg.RequiredFields)
	if len(fieldErrs) > 0 {
		if err := st.AdvanceTo(state.StageCollecting); err != nil {
			return err
		}
		st.RecomputeMissing(e.cfg.RequiredFields)
		st.RequiresHumanInput = true
		st.Say(validationMessage(fieldErrs))
		e.logger.Info("validation failed",
			"conversation_id", st.ConversationID,
			"errors", state.ValidationError(fieldErrs).Error(),
		)
		return nil
	}
	return st.AdvanceTo(state.StageQuerying)
}

// buildQueries resolves the refined query against the knowledge base and
// builds one query descriptor per product/channel pair.
func (e *Engine) buildQueries(ctx context.Context, st *state.State) error {
	fs := filters.FilterSet{}
	if e.kb != nil {
		lookupText := st.RefinedQuery
		if lookupText == "" {
			lookupText = st.LastInput
		}
		matches, err := e.kb.Lookup(ctx, lookupText, e.cfg.LookupTopK)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return e.recoverToCollecting(st,
				"I couldn't match your request to any known filters. Could you rephrase what you want to analyze?")
		}
		for _, m := range matches {
			fs.Add(m.FilterName, m.Value)
		}
	}

	queries, err := e.builder.Build(&st.Requirements, fs)
	if err != nil {
		if errors.Is(err, inserr.ErrLookupMiss) {
			return e.recoverToCollecting(st,
				"I couldn't build a query from what we have so far. Could you restate the products and channels you care about?")
		}
		return err
	}

	st.Queries = queries
	e.logger.Info("queries built", "conversation_id", st.ConversationID, "count", len(queries))
	return st.AdvanceTo(state.StageProcessing)
}

// process runs every query against the data source and classifies the merged
// record set. Failures are retried up to the configured bounds; exhausting
// them hands control back to the user instead of looping.
func (e *Engine) process(ctx context.Context, st *state.State) error {
	records, err := e.fetchAll(ctx, st)
	if err != nil {
		st.FetchAttempts++
		e.logger.Warn("fetch attempt failed",
			"conversation_id", st.ConversationID,
			"attempt", st.FetchAttempts,
			"error", err,
		)
		if st.FetchAttempts < e.cfg.MaxFetchRetries {
			// Stay in processing; the pipeline loops back through the router.
			return nil
		}
		return e.giveUp(st, inserr.ErrRetryExhausted,
			"I couldn't reach the data source after several attempts. Say \"retry\" to try again, or adjust your request.")
	}
	st.Records = records
	st.FetchAttempts = 0

	// An empty result set is a processing failure, not a result to confirm.
	if len(records) == 0 {
		st.ProcessAttempts++
		e.logger.Warn("data source returned no records",
			"conversation_id", st.ConversationID,
			"attempt", st.ProcessAttempts,
		)
		if st.ProcessAttempts < e.cfg.MaxProcessRetries {
			return nil
		}
		return e.giveUp(st, fmt.Errorf("%w: empty result set", inserr.ErrRetryExhausted),
			"The data source returned no records for your request. Say \"retry\" to try again, or adjust your request.")
	}

	themes, err := e.classifier.Classify(ctx, st.RefinedQuery, records)
	if err != nil {
		st.ProcessAttempts++
		e.logger.Warn("classification attempt failed",
			"conversation_id", st.ConversationID,
			"attempt", st.ProcessAttempts,
			"error", err,
		)
		if st.ProcessAttempts < e.cfg.MaxProcessRetries {
			return nil
		}
		return e.giveUp(st, fmt.Errorf("%w: %v", inserr.ErrClassification, err),
			"I fetched the data but couldn't organize it into themes. Say \"retry\" to try again, or adjust your request.")
	}
	st.Themes = themes
	st.ProcessAttempts = 0

	if err := st.AdvanceTo(state.StageConfirmation); err != nil {
		return err
	}
	st.RequiresHumanInput = true
	st.Say(summaryMessage(st))
	return nil
}

// confirm interprets the user's verdict on the presented themes.
func (e *Engine) confirm(_ context.Context, st *state.State) error {
	switch Classify(st.LastInput) {
	case DecisionApprove:
		if err := st.AdvanceTo(state.StageEnd); err != nil {
			return err
		}
		st.Say("Great, the analysis is confirmed. This conversation is complete.")
		return nil
	case DecisionRefine:
		if err := st.AdvanceTo(state.StageCollecting); err != nil {
			return err
		}
		// The refinement text itself is the next collecting input.
		st.Queries = nil
		st.Records = nil
		st.Themes = nil
		st.RecomputeMissing(e.cfg.RequiredFields)
		return nil
	default:
		st.RequiresHumanInput = true
		st.Say("Should I finalize these themes, or would you like to change something first?")
		return nil
	}
}

// fetchAll runs all pending queries, merging their records.
func (e *Engine) fetchAll(ctx context.Context, st *state.State) ([]state.Record, error) {
	var all []state.Record
	for _, q := range st.Queries {
		records, err := e.fetcher.Fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// recoverToCollecting sends the conversation back to gathering with a
// user-facing explanation. The querying stage owns the back-edge, so walk
// through it when needed.
func (e *Engine) recoverToCollecting(st *state.State, msg string) error {
	if st.Stage != state.StageQuerying && st.Stage != state.StageCollecting {
		if err := st.AdvanceTo(state.StageQuerying); err != nil {
			return err
		}
	}
	if st.Stage != state.StageCollecting {
		if err := st.AdvanceTo(state.StageCollecting); err != nil {
			return err
		}
	}
	st.RecomputeMissing(e.cfg.RequiredFields)
	st.RequiresHumanInput = true
	st.Say(msg)
	return nil
}

// giveUp records an exhausted retry budget and hands control to the user.
// The stage steps back to querying so a later "retry" rebuilds and reruns.
func (e *Engine) giveUp(st *state.State, cause error, msg string) error {
	if err := st.AdvanceTo(state.StageQuerying); err != nil {
		return err
	}
	st.FetchAttempts = 0
	st.ProcessAttempts = 0
	st.RequiresHumanInput = true
	st.Say(msg)
	e.logger.Error("retries exhausted", "conversation_id", st.ConversationID, "error", cause)
	return nil
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
