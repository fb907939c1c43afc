package cpmodel

import (
	"context"
	"time"
)

// Status is the terminal verdict of a backend run.
type Status int8

const (
	StatusUnknown    Status = iota // time limit reached with no conclusive answer
	StatusOptimal                  // objective proven minimal (or any solution, for feasibility models)
	StatusFeasible                 // a satisfying assignment found, optimality unproven
	StatusInfeasible               // provably no assignment satisfies the constraints
	StatusInvalid                  // malformed model
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusInvalid:
		return "invalid"
	}
	return "unknown"
}

// Outcome carries the backend verdict and, for optimal/feasible, a full
// assignment indexed by Var.
type Outcome struct {
	Status    Status
	Values    []int64
	Objective int64
}

// Value reads a variable out of the assignment.
func (o Outcome) Value(v Var) int64 { return o.Values[v] }

// Params are pass-through solver configuration; they are not renegotiated
// mid-solve.
type Params struct {
	TimeLimit time.Duration
	Workers   int
}

// Backend is the seam the combinatorial search plugs into. Solve blocks
// until a terminal status or the time limit; implementations should honor
// ctx cancellation but callers must treat that as best-effort.
type Backend interface {
	Solve(ctx context.Context, m *Model, params Params) (Outcome, error)
}
