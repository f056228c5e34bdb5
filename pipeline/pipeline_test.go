package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// note records execution order in the transcript.
func note(st *state.State, s string) {
	st.Say(s)
}

func visited(st *state.State) []string {
	out := make([]string, 0, len(st.Transcript))
	for _, msg := range st.Transcript {
		out = append(out, msg.Content)
	}
	return out
}

func TestExecuteLinearFlow(t *testing.T) {
	p := NewBuilder().
		AddStage("start", StageTypeStart, func(_ context.Context, st *state.State) error {
			note(st, "start")
			return nil
		}).
		AddStage("work", StageTypeWork, func(_ context.Context, st *state.State) error {
			note(st, "work")
			return nil
		}).
		AddStage("end", StageTypeEnd, func(_ context.Context, st *state.State) error {
			note(st, "end")
			return nil
		}).
		AddEdge("start", "work").
		AddEdge("work", "end").
		Build()

	st := state.New("conv-1")
	if err := p.Execute(context.Background(), st); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got := strings.Join(visited(st), ",")
	if got != "start,work,end" {
		t.Errorf("execution order = %s", got)
	}
}

func TestExecuteConditionRouting(t *testing.T) {
	build := func(route string) (*Pipeline, *state.State) {
		st := state.New("conv-1")
		p := NewBuilder().
			AddStage("start", StageTypeStart, func(_ context.Context, st *state.State) error { return nil }).
			AddConditionStage("route", func(_ context.Context, _ *state.State) (string, error) {
				return route, nil
			}, map[string]string{"left": "left", "right": "right"}).
			AddStage("left", StageTypeWork, func(_ context.Context, st *state.State) error {
				note(st, "left")
				return nil
			}).
			AddStage("right", StageTypeWork, func(_ context.Context, st *state.State) error {
				note(st, "right")
				return nil
			}).
			AddStage("end", StageTypeEnd, nil).
			AddEdge("start", "route").
			AddEdge("left", "end").
			AddEdge("right", "end").
			Build()
		return p, st
	}

	for _, route := range []string{"left", "right"} {
		t.Run(route, func(t *testing.T) {
			p, st := build(route)
			if err := p.Execute(context.Background(), st); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := visited(st); len(got) != 1 || got[0] != route {
				t.Errorf("visited = %v, want only %q", got, route)
			}
		})
	}
}

func TestExecuteUnknownRoute(t *testing.T) {
	p := NewBuilder().
		AddStage("start", StageTypeStart, func(_ context.Context, _ *state.State) error { return nil }).
		AddConditionStage("route", func(_ context.Context, _ *state.State) (string, error) {
			return "nowhere", nil
		}, map[string]string{"known": "end"}).
		AddStage("end", StageTypeEnd, nil).
		AddEdge("start", "route").
		Build()

	err := p.Execute(context.Background(), state.New("conv-1"))
	if err == nil || !strings.Contains(err.Error(), "no route") {
		t.Errorf("Execute() error = %v, want unknown route error", err)
	}
}

func TestExecuteLoopGuard(t *testing.T) {
	p := NewBuilder().
		AddStage("start", StageTypeStart, func(_ context.Context, _ *state.State) error { return nil }).
		AddStage("spin", StageTypeWork, func(_ context.Context, _ *state.State) error { return nil }).
		AddEdge("start", "spin").
		AddEdge("spin", "spin").
		SetMaxVisits(3).
		Build()

	err := p.Execute(context.Background(), state.New("conv-1"))
	if err == nil || !strings.Contains(err.Error(), "infinite loop") {
		t.Errorf("Execute() error = %v, want loop detection", err)
	}
}

func TestExecuteStageError(t *testing.T) {
	boom := errors.New("boom")
	p := NewBuilder().
		AddStage("start", StageTypeStart, func(_ context.Context, _ *state.State) error {
			return boom
		}).
		AddStage("end", StageTypeEnd, nil).
		AddEdge("start", "end").
		Build()

	err := p.Execute(context.Background(), state.New("conv-1"))
	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want wrapped stage error", err)
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewBuilder().
		AddStage("start", StageTypeStart, func(_ context.Context, _ *state.State) error { return nil }).
		AddStage("end", StageTypeEnd, nil).
		AddEdge("start", "end").
		Build()

	if err := p.Execute(ctx, state.New("conv-1")); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestAddStagePanics(t *testing.T) {
	cases := []struct {
		name string
		fn   func()
	}{
		{"empty name", func() {
			New().AddStage(&Stage{Type: StageTypeWork, Execute: func(_ context.Context, _ *state.State) error { return nil }})
		}},
		{"work stage without execute", func() {
			New().AddStage(&Stage{Name: "w", Type: StageTypeWork})
		}},
		{"condition stage without condition", func() {
			New().AddStage(&Stage{Name: "c", Type: StageTypeCondition})
		}},
		{"duplicate name", func() {
			p := New()
			s := &Stage{Name: "dup", Type: StageTypeEnd}
			p.AddStage(s)
			p.AddStage(&Stage{Name: "dup", Type: StageTypeEnd})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tc.fn()
		})
	}
}
