// Package cpmodel holds the constraint model intermediate representation:
// boolean and bounded integer variables, linear constraints, and a linear
// minimization objective. It is the contract between the model compiler and
// the solving backend; neither side depends on the other's internals.
package cpmodel

import (
	"fmt"
	"strings"
)

// Var is a handle into a Model. Handles are dense, starting at 0.
type Var int32

// Term is one coefficient*variable summand of a linear expression.
type Term struct {
	Var  Var
	Coef int64
}

type Op int8

const (
	OpLE Op = iota // sum <= bound
	OpGE           // sum >= bound
	OpEQ           // sum == bound
)

// Constraint is a linear constraint over integer-coefficient terms. A
// constraint with no terms is legal: its sum is 0, so e.g. an empty OpEQ
// with a positive bound is trivially unsatisfiable (how missing candidate
// variables surface as infeasibility).
type Constraint struct {
	Terms []Term
	Op    Op
	Bound int64
}

// Model is one isolated variable/constraint/objective set. It is built
// single-threaded per request and discarded after the solve.
type Model struct {
	names       []string
	lows, highs []int64
	constraints []Constraint
	objective   []Term // nil means pure feasibility
}

func New() *Model {
	return &Model{}
}

// NewBool allocates a 0/1 decision variable.
func (m *Model) NewBool(name string) Var {
	return m.NewInt(0, 1, name)
}

// NewInt allocates a bounded integer variable.
func (m *Model) NewInt(low, high int64, name string) Var {
	m.names = append(m.names, name)
	m.lows = append(m.lows, low)
	m.highs = append(m.highs, high)
	return Var(len(m.names) - 1)
}

func (m *Model) AddLinear(terms []Term, op Op, bound int64) {
	m.constraints = append(m.constraints, Constraint{Terms: terms, Op: op, Bound: bound})
}

// AddSum posts op over the plain (coefficient 1) sum of vars.
func (m *Model) AddSum(vars []Var, op Op, bound int64) {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}
	m.AddLinear(terms, op, bound)
}

// Fix pins a variable to a single value.
func (m *Model) Fix(v Var, value int64) {
	m.AddLinear([]Term{{Var: v, Coef: 1}}, OpEQ, value)
}

// Minimize installs the objective. Calling it again replaces the previous
// objective; passing nil reverts to pure feasibility.
func (m *Model) Minimize(terms []Term) {
	m.objective = terms
}

func (m *Model) NumVars() int             { return len(m.names) }
func (m *Model) NumConstraints() int      { return len(m.constraints) }
func (m *Model) Constraints() []Constraint { return m.constraints }
func (m *Model) Objective() []Term        { return m.objective }
func (m *Model) HasObjective() bool       { return len(m.objective) > 0 }
func (m *Model) Name(v Var) string        { return m.names[v] }

func (m *Model) Bounds(v Var) (low, high int64) {
	return m.lows[v], m.highs[v]
}

// Validate reports the first structural defect: inverted bounds or a term
// referencing a variable outside the model. Backends surface a failure here
// as a model-invalid status rather than an error.
func (m *Model) Validate() error {
	for v := range m.names {
		if m.lows[v] > m.highs[v] {
			return fmt.Errorf("variable %s: inverted bounds [%d,%d]", m.names[v], m.lows[v], m.highs[v])
		}
	}
	check := func(terms []Term, where string) error {
		for _, t := range terms {
			if t.Var < 0 || int(t.Var) >= len(m.names) {
				return fmt.Errorf("%s: term references unknown variable %d", where, t.Var)
			}
		}
		return nil
	}
	for i, c := range m.constraints {
		if err := check(c.Terms, fmt.Sprintf("constraint %d", i)); err != nil {
			return err
		}
	}
	return check(m.objective, "objective")
}

// String renders a compact LP-style dump, useful in failure logs.
func (m *Model) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "model: %d vars, %d constraints\n", m.NumVars(), m.NumConstraints())
	ops := map[Op]string{OpLE: "<=", OpGE: ">=", OpEQ: "=="}
	for _, c := range m.constraints {
		for i, t := range c.Terms {
			if i > 0 {
				builder.WriteString(" + ")
			}
			fmt.Fprintf(&builder, "%d*%s", t.Coef, m.names[t.Var])
		}
		if len(c.Terms) == 0 {
			builder.WriteString("0")
		}
		fmt.Fprintf(&builder, " %s %d\n", ops[c.Op], c.Bound)
	}
	return builder.String()
}
