// Package cpsolver is the default in-process solving backend: bounds
// propagation over linear constraints plus depth-first branch-and-bound on
// the objective. It sits behind the cpmodel.Backend seam so it can be
// swapped for any other engine without touching the model compiler.
package cpsolver

import (
	"context"

	"timesolver/internal/cpmodel"
)

type solver struct{}

// New returns the default backend.
func New() cpmodel.Backend {
	return &solver{}
}

func (s *solver) Solve(ctx context.Context, m *cpmodel.Model, params cpmodel.Params) (cpmodel.Outcome, error) {
	if err := m.Validate(); err != nil {
		return cpmodel.Outcome{Status: cpmodel.StatusInvalid}, nil
	}

	if params.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.TimeLimit)
		defer cancel()
	}

	workers := params.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > m.NumVars() && m.NumVars() > 0 {
		workers = m.NumVars()
	}

	rows := normalize(m)

	// Portfolio: every worker runs a complete, independently correct search
	// with a rotated branching order. The first conclusive verdict wins;
	// otherwise the best feasible assignment found anywhere is returned.
	searchCtx, stop := context.WithCancel(ctx)
	defer stop()

	outcomes := make(chan cpmodel.Outcome, workers)
	for k := 0; k < workers; k++ {
		go func(variant int) {
			outcomes <- newSearch(m, rows, variant).run(searchCtx)
		}(k)
	}

	best := cpmodel.Outcome{Status: cpmodel.StatusUnknown}
	for k := 0; k < workers; k++ {
		outcome := <-outcomes
		switch outcome.Status {
		case cpmodel.StatusOptimal, cpmodel.StatusInfeasible:
			stop()
			drain(outcomes, workers-k-1)
			return outcome, nil
		case cpmodel.StatusFeasible:
			if best.Status != cpmodel.StatusFeasible || outcome.Objective < best.Objective {
				best = outcome
			}
		}
	}
	return best, nil
}

func drain(outcomes <-chan cpmodel.Outcome, n int) {
	for i := 0; i < n; i++ {
		<-outcomes
	}
}

// row is a normalized constraint: sum(terms) <= bound.
type row struct {
	terms []cpmodel.Term
	bound int64
}

// normalize rewrites every constraint as one or two <= rows so the search
// needs a single propagator.
func normalize(m *cpmodel.Model) []row {
	rows := make([]row, 0, m.NumConstraints())
	for _, c := range m.Constraints() {
		switch c.Op {
		case cpmodel.OpLE:
			rows = append(rows, row{terms: c.Terms, bound: c.Bound})
		case cpmodel.OpGE:
			rows = append(rows, row{terms: negate(c.Terms), bound: -c.Bound})
		case cpmodel.OpEQ:
			rows = append(rows,
				row{terms: c.Terms, bound: c.Bound},
				row{terms: negate(c.Terms), bound: -c.Bound},
			)
		}
	}
	return rows
}

func negate(terms []cpmodel.Term) []cpmodel.Term {
	negated := make([]cpmodel.Term, len(terms))
	for i, t := range terms {
		negated[i] = cpmodel.Term{Var: t.Var, Coef: -t.Coef}
	}
	return negated
}

func divFloor(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func divCeil(a, b int64) int64 {
	return -divFloor(-a, b)
}

const abortCheckMask = 255

type change struct {
	v     cpmodel.Var
	isLow bool
	old   int64
}

type search struct {
	m    *cpmodel.Model
	rows []row

	low, high []int64
	trail     []change

	order     []cpmodel.Var
	preferLow []bool

	best     int64
	bestVals []int64
	hasBest  bool

	done    bool // feasibility model: stop at the first solution
	aborted bool

	ctx   context.Context
	nodes int
}

func newSearch(m *cpmodel.Model, rows []row, variant int) *search {
	n := m.NumVars()
	s := &search{
		m:         m,
		rows:      rows,
		low:       make([]int64, n),
		high:      make([]int64, n),
		order:     make([]cpmodel.Var, n),
		preferLow: make([]bool, n),
	}
	for v := 0; v < n; v++ {
		s.low[v], s.high[v] = m.Bounds(cpmodel.Var(v))
	}

	offset := 0
	if n > 0 {
		offset = (variant * 7919) % n
	}
	for i := 0; i < n; i++ {
		s.order[i] = cpmodel.Var((i + offset) % n)
	}

	// Value heuristic: take the cheap bound first for variables the
	// objective charges for, the high bound first for the rest (drives
	// equality quotas toward satisfaction early).
	for _, t := range m.Objective() {
		if t.Coef > 0 {
			s.preferLow[t.Var] = true
		}
	}
	return s
}

func (s *search) run(ctx context.Context) cpmodel.Outcome {
	s.ctx = ctx

	if s.propagate() {
		s.dfs()
	} else {
		return cpmodel.Outcome{Status: cpmodel.StatusInfeasible}
	}

	switch {
	case s.aborted && s.hasBest:
		return cpmodel.Outcome{Status: cpmodel.StatusFeasible, Values: s.bestVals, Objective: s.best}
	case s.aborted:
		return cpmodel.Outcome{Status: cpmodel.StatusUnknown}
	case s.hasBest:
		return cpmodel.Outcome{Status: cpmodel.StatusOptimal, Values: s.bestVals, Objective: s.best}
	default:
		return cpmodel.Outcome{Status: cpmodel.StatusInfeasible}
	}
}

func (s *search) dfs() {
	if s.aborted || s.done {
		return
	}
	s.nodes++
	if s.nodes&abortCheckMask == 0 && s.ctx.Err() != nil {
		s.aborted = true
		return
	}

	v := s.pickVar()
	if v < 0 {
		s.record()
		return
	}

	candidate := s.low[v]
	if !s.preferLow[v] {
		candidate = s.high[v]
	}

	// Branch 1: fix to the candidate value.
	mark := len(s.trail)
	s.setLow(cpmodel.Var(v), candidate)
	s.setHigh(cpmodel.Var(v), candidate)
	if s.propagate() {
		s.dfs()
	}
	s.undo(mark)
	if s.aborted || s.done {
		return
	}

	// Branch 2: exclude it.
	mark = len(s.trail)
	if s.preferLow[v] {
		s.setLow(cpmodel.Var(v), candidate+1)
	} else {
		s.setHigh(cpmodel.Var(v), candidate-1)
	}
	if s.propagate() {
		s.dfs()
	}
	s.undo(mark)
}

func (s *search) pickVar() int {
	for _, v := range s.order {
		if s.low[v] < s.high[v] {
			return int(v)
		}
	}
	return -1
}

func (s *search) record() {
	objective := int64(0)
	for _, t := range s.m.Objective() {
		objective += t.Coef * s.low[t.Var]
	}
	if s.hasBest && objective >= s.best {
		return
	}
	s.best = objective
	s.bestVals = append([]int64(nil), s.low...)
	s.hasBest = true
	if !s.m.HasObjective() {
		s.done = true
	}
}

// propagate runs bounds consistency to a fixpoint. Returns false on a
// wipeout (some row cannot be satisfied under the current bounds).
func (s *search) propagate() bool {
	for changed := true; changed; {
		changed = false
		for i := range s.rows {
			ok, tightened := s.propagateRow(s.rows[i].terms, s.rows[i].bound)
			if !ok {
				return false
			}
			changed = changed || tightened
		}
		if s.hasBest && s.m.HasObjective() {
			ok, tightened := s.propagateRow(s.m.Objective(), s.best-1)
			if !ok {
				return false
			}
			changed = changed || tightened
		}
	}
	return true
}

func (s *search) propagateRow(terms []cpmodel.Term, bound int64) (ok, tightened bool) {
	minActivity := int64(0)
	for _, t := range terms {
		if t.Coef > 0 {
			minActivity += t.Coef * s.low[t.Var]
		} else {
			minActivity += t.Coef * s.high[t.Var]
		}
	}
	if minActivity > bound {
		return false, false
	}

	for _, t := range terms {
		if t.Coef == 0 {
			continue
		}
		var slack int64
		if t.Coef > 0 {
			slack = bound - (minActivity - t.Coef*s.low[t.Var])
			if newHigh := divFloor(slack, t.Coef); newHigh < s.high[t.Var] {
				s.setHigh(t.Var, newHigh)
				tightened = true
				if s.low[t.Var] > s.high[t.Var] {
					return false, tightened
				}
			}
		} else {
			slack = bound - (minActivity - t.Coef*s.high[t.Var])
			if newLow := divCeil(slack, t.Coef); newLow > s.low[t.Var] {
				s.setLow(t.Var, newLow)
				tightened = true
				if s.low[t.Var] > s.high[t.Var] {
					return false, tightened
				}
			}
		}
	}
	return true, tightened
}

func (s *search) setLow(v cpmodel.Var, value int64) {
	s.trail = append(s.trail, change{v: v, isLow: true, old: s.low[v]})
	s.low[v] = value
}

func (s *search) setHigh(v cpmodel.Var, value int64) {
	s.trail = append(s.trail, change{v: v, isLow: false, old: s.high[v]})
	s.high[v] = value
}

func (s *search) undo(mark int) {
	for len(s.trail) > mark {
		last := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		if last.isLow {
			s.low[last.v] = last.old
		} else {
			s.high[last.v] = last.old
		}
	}
}
