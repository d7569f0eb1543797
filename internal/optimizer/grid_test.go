package optimizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/walkforward"
)

// scoredBacktester returns metrics whose total return is computed from
// the candidate's parameters, so the best candidate is known up front.
type scoredBacktester struct {
	score func(core.Params) (float64, error)
	runs  []core.Params
}

func (s *scoredBacktester) Run(_ context.Context, _ core.Dataset, params core.Params) (core.Metrics, []core.Trade, error) {
	s.runs = append(s.runs, params)
	ret, err := s.score(params)
	if err != nil {
		return core.Metrics{}, nil, err
	}
	return core.Metrics{TotalReturnPct: ret, TotalTrades: 5}, nil, nil
}

func intVal(p core.Params, name string) int {
	v, _ := p[name].(int)
	return v
}

func TestOptimize_PicksBestCandidate(t *testing.T) {
	bt := &scoredBacktester{score: func(p core.Params) (float64, error) {
		// fast=2,slow=40 scores highest
		return float64(intVal(p, "slow") - intVal(p, "fast")), nil
	}}
	g := NewGrid(bt, nil, nil)

	space := walkforward.SearchSpace{
		"fast": {2, 5, 10},
		"slow": {20, 40},
	}
	best, metrics, runs, err := g.Optimize(context.Background(), core.Dataset{}, space)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if runs != 6 {
		t.Errorf("runs = %d, want 6", runs)
	}
	if intVal(best, "fast") != 2 || intVal(best, "slow") != 40 {
		t.Errorf("best = %v, want fast=2 slow=40", best)
	}
	if metrics.TotalReturnPct != 38 {
		t.Errorf("best metrics return = %f, want 38", metrics.TotalReturnPct)
	}
}

func TestOptimize_FailedCandidatesSkipped(t *testing.T) {
	bt := &scoredBacktester{score: func(p core.Params) (float64, error) {
		if intVal(p, "fast") == 5 {
			return 0, errors.New("no trades")
		}
		return float64(intVal(p, "fast")), nil
	}}
	g := NewGrid(bt, nil, nil)

	best, _, runs, err := g.Optimize(context.Background(), core.Dataset{}, walkforward.SearchSpace{
		"fast": {2, 5, 10},
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if runs != 3 {
		t.Errorf("runs = %d, failed attempts still count", runs)
	}
	if intVal(best, "fast") != 10 {
		t.Errorf("best = %v, want fast=10", best)
	}
}

func TestOptimize_AllCandidatesFail(t *testing.T) {
	bt := &scoredBacktester{score: func(core.Params) (float64, error) {
		return 0, errors.New("broken")
	}}
	g := NewGrid(bt, nil, nil)

	best, metrics, runs, err := g.Optimize(context.Background(), core.Dataset{}, walkforward.SearchSpace{
		"fast": {2, 5},
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if best == nil || len(best) != 0 {
		t.Errorf("best = %v, want empty non-nil params", best)
	}
	if metrics.TotalTrades != 0 {
		t.Errorf("metrics = %+v, want zero value", metrics)
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestOptimize_EmptySpace(t *testing.T) {
	bt := &scoredBacktester{score: func(core.Params) (float64, error) { return 1, nil }}
	g := NewGrid(bt, nil, nil)

	best, _, runs, err := g.Optimize(context.Background(), core.Dataset{}, walkforward.SearchSpace{})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if runs != 0 || len(best) != 0 {
		t.Errorf("runs = %d best = %v, empty space must produce no runs", runs, best)
	}
}

func TestOptimize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bt := &scoredBacktester{score: func(core.Params) (float64, error) { return 1, nil }}
	g := NewGrid(bt, nil, nil)

	_, _, _, err := g.Optimize(ctx, core.Dataset{}, walkforward.SearchSpace{"fast": {2}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExpand_DeterministicOrder(t *testing.T) {
	space := walkforward.SearchSpace{
		"b": {1, 2},
		"a": {10},
	}

	var first []string
	for i := 0; i < 5; i++ {
		candidates := expand(space)
		var order []string
		for _, c := range candidates {
			order = append(order, fmt.Sprintf("a=%v,b=%v", c["a"], c["b"]))
		}
		if i == 0 {
			first = order
			continue
		}
		for j := range order {
			if order[j] != first[j] {
				t.Fatalf("expansion order changed between runs: %v vs %v", first, order)
			}
		}
	}
	if len(first) != 2 {
		t.Errorf("candidates = %d, want 2", len(first))
	}
}

func TestExpand_SkipsEmptyValueLists(t *testing.T) {
	candidates := expand(walkforward.SearchSpace{
		"fast": {2, 4},
		"slow": {},
	})
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	for _, c := range candidates {
		if _, ok := c["slow"]; ok {
			t.Errorf("candidate %v must not contain empty-listed parameter", c)
		}
	}
}

func TestObjectives(t *testing.T) {
	m := core.Metrics{TotalReturnPct: 12.5, Expectancy: 0.8}
	if TotalReturnObjective(m) != 12.5 {
		t.Error("TotalReturnObjective must return TotalReturnPct")
	}
	if ExpectancyObjective(m) != 0.8 {
		t.Error("ExpectancyObjective must return Expectancy")
	}
}
