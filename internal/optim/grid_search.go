// Package optim searches tree parameters for the cheapest setting that keeps
// the force error within a budget.
package optim

import (
	"context"
	"errors"
	"maps"
	"math"
)

var ErrNoTrials = errors.New("optim: no trial succeeded")

// Objective scores one parameter assignment. Lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates every combination of the given parameter ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns every trial in grid order and the best one. Failed trials are
// kept with Err set and never win.
func (g *GridSearch) Search(ctx context.Context, objective Objective) ([]Trial, Trial, error) {
	var trials []Trial
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, objective, &trials); err != nil {
		return trials, Trial{}, err
	}

	best := Trial{Value: math.Inf(1)}
	found := false
	for _, t := range trials {
		if t.Err == nil && t.Value < best.Value {
			best = t
			found = true
		}
	}
	if !found {
		return trials, Trial{}, ErrNoTrials
	}
	return trials, best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, objective Objective, trials *[]Trial) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := objective(ctx, current)
		*trials = append(*trials, Trial{Params: current, Value: val, Err: err})
		return nil
	}

	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[g.paramNames[depth]] = val
		if err := g.searchRecursive(ctx, depth+1, next, objective, trials); err != nil {
			return err
		}
	}
	return nil
}
