// Package pipeline is a small sequential flow engine. Stages run one at a
// time over a shared conversation state, with condition stages routing
// between branches and a visit bound guarding against runaway loops.
package pipeline

import (
	"context"
	"fmt"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// StageType distinguishes the kinds of pipeline stages.
type StageType string

const (
	StageTypeStart     StageType = "start"
	StageTypeEnd       StageType = "end"
	StageTypeWork      StageType = "work"
	StageTypeCondition StageType = "condition"
)

// StageFunc executes one stage, mutating the conversation state in place.
type StageFunc func(context.Context, *state.State) error

// ConditionFunc inspects the state and returns the routing key into NextMap.
type ConditionFunc func(context.Context, *state.State) (string, error)

// Stage is one step of a pipeline.
type Stage struct {
	Name      string
	Type      StageType
	Execute   StageFunc
	Condition ConditionFunc     // only for condition stages
	Next      string            // outgoing edge for start and work stages
	NextMap   map[string]string // for condition stages: routing key -> stage
}

// Pipeline is a directed flow of stages with a single start and end.
type Pipeline struct {
	stages    map[string]*Stage
	start     string
	maxVisits int
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{
		stages:    make(map[string]*Stage),
		maxVisits: 10,
	}
}

func (p *Pipeline) validateStage(s *Stage) {
	if s.Name == "" {
		panic("stage name cannot be empty")
	}
	switch s.Type {
	case StageTypeCondition:
		if s.Condition == nil {
			panic(fmt.Sprintf("condition stage %s must have non-nil Condition function", s.Name))
		}
	case StageTypeEnd:
		// an end stage may be a pure sink
	default:
		if s.Execute == nil {
			panic(fmt.Sprintf("stage %s of type %s must have non-nil Execute function", s.Name, s.Type))
		}
	}
}

// AddStage registers a stage.
func (p *Pipeline) AddStage(s *Stage) {
	if _, exists := p.stages[s.Name]; exists {
		panic(fmt.Sprintf("stage %s already exists", s.Name))
	}
	p.validateStage(s)
	p.stages[s.Name] = s
	if s.Type == StageTypeStart {
		p.start = s.Name
	}
}

// SetStart sets the start stage.
func (p *Pipeline) SetStart(name string) {
	if _, exists := p.stages[name]; !exists {
		panic(fmt.Sprintf("stage %s not found", name))
	}
	p.start = name
}

// SetMaxVisits bounds how often any single stage may run in one Execute call.
func (p *Pipeline) SetMaxVisits(maxVisits int) {
	p.maxVisits = maxVisits
}

// GetStage returns a stage by name.
func (p *Pipeline) GetStage(name string) (*Stage, error) {
	s, exists := p.stages[name]
	if !exists {
		return nil, fmt.Errorf("stage %s not found", name)
	}
	return s, nil
}

// Execute runs the pipeline from the start stage until an end stage returns.
// Revisiting a stage more than maxVisits times aborts with an error.
func (p *Pipeline) Execute(ctx context.Context, st *state.State) error {
	if p.start == "" {
		return fmt.Errorf("start stage not set")
	}
	if st == nil {
		return fmt.Errorf("nil state")
	}

	visited := make(map[string]int)
	current := p.start
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		stage, exists := p.stages[current]
		if !exists {
			return fmt.Errorf("stage %s not found", current)
		}

		visited[current]++
		if visited[current] > p.maxVisits {
			return fmt.Errorf("infinite loop detected at stage %s", current)
		}

		switch stage.Type {
		case StageTypeEnd:
			if stage.Execute != nil {
				return stage.Execute(ctx, st)
			}
			return nil
		case StageTypeCondition:
			key, err := stage.Condition(ctx, st)
			if err != nil {
				return fmt.Errorf("error evaluating condition at stage %s: %w", stage.Name, err)
			}
			next := stage.NextMap[key]
			if next == "" {
				return fmt.Errorf("no route for result %q at stage %s", key, stage.Name)
			}
			current = next
		default:
			if err := stage.Execute(ctx, st); err != nil {
				return fmt.Errorf("error executing stage %s: %w", stage.Name, err)
			}
			if stage.Next == "" {
				return fmt.Errorf("no next stage specified for stage %s", stage.Name)
			}
			current = stage.Next
		}
	}
}

// Builder helps build pipelines fluently.
type Builder struct {
	pipeline *Pipeline
	last     string
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{pipeline: New()}
}

// AddStage adds a stage of the given type.
func (b *Builder) AddStage(name string, stageType StageType, execute StageFunc) *Builder {
	b.pipeline.AddStage(&Stage{
		Name:    name,
		Type:    stageType,
		Execute: execute,
	})
	b.last = name
	return b
}

// AddConditionStage adds a condition stage with its routing table.
func (b *Builder) AddConditionStage(name string, condition ConditionFunc, nextMap map[string]string) *Builder {
	b.pipeline.AddStage(&Stage{
		Name:      name,
		Type:      StageTypeCondition,
		Condition: condition,
		NextMap:   nextMap,
	})
	b.last = name
	return b
}

// AddEdge connects two stages.
func (b *Builder) AddEdge(from, to string) *Builder {
	if s, exists := b.pipeline.stages[from]; exists {
		s.Next = to
	}
	return b
}

// SetStart sets the start stage.
func (b *Builder) SetStart(name string) *Builder {
	b.pipeline.SetStart(name)
	return b
}

// SetMaxVisits bounds per-stage visits.
func (b *Builder) SetMaxVisits(maxVisits int) *Builder {
	b.pipeline.SetMaxVisits(maxVisits)
	return b
}

// Build returns the constructed pipeline.
func (b *Builder) Build() *Pipeline {
	return b.pipeline
}
