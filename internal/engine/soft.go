package engine

import (
	"fmt"

	"timesolver/internal/cpmodel"
)

const (
	// Classes beyond these per-day counts start costing penalty.
	instructorLoadThreshold = 3
	groupLoadThreshold      = 5
)

// addSoftConstraints posts one independent penalty cluster per enabled
// preference. Every penalty term is a bounded non-negative integer variable
// linked to decision variables by linear constraints, so the aggregate
// objective has a finite, computable range.
func (b *modelBuilder) addSoftConstraints() {
	soft := b.request.Constraints.Soft
	if soft.InstructorLoadBalance.Enabled {
		b.instructorLoadBalance(int64(soft.InstructorLoadBalance.Weight))
	}
	if soft.AvoidBackToBack.Enabled {
		b.avoidBackToBack(int64(soft.AvoidBackToBack.Weight))
	}
	if soft.GroupDailyLoad.Enabled {
		b.groupDailyLoad(int64(soft.GroupDailyLoad.Weight))
	}
	if soft.EvenDistribution.Enabled {
		b.evenDistribution(int64(soft.EvenDistribution.Weight))
	}
	if soft.MinimizeIdleGaps.Enabled {
		b.minimizeIdleGaps(int64(soft.MinimizeIdleGaps.Weight))
	}
}

// composeObjective sums every penalty term into one minimization objective,
// or leaves the model in pure feasibility mode if no preference is active.
func (b *modelBuilder) composeObjective() {
	if len(b.penalties) > 0 {
		b.m.Minimize(b.penalties)
	}
}

// thresholdPenalty links p >= weight*(sum(vars) - threshold), p >= 0 by its
// bounds: each class beyond the threshold costs weight.
func (b *modelBuilder) thresholdPenalty(vars []cpmodel.Var, weight, threshold int64, name string) {
	p := b.m.NewInt(0, weight*(int64(len(vars))-threshold), name)
	terms := make([]cpmodel.Term, 0, len(vars)+1)
	for _, v := range vars {
		terms = append(terms, cpmodel.Term{Var: v, Coef: weight})
	}
	terms = append(terms, cpmodel.Term{Var: p, Coef: -1})
	b.m.AddLinear(terms, cpmodel.OpLE, weight*threshold)
	b.penalties = append(b.penalties, cpmodel.Term{Var: p, Coef: 1})
}

// Instructor daily-load balance: classes beyond the instructor-load
// threshold on a single day each incur the configured weight.
func (b *modelBuilder) instructorLoadBalance(weight int64) {
	for key, vars := range b.space.byInstructorDay {
		if int64(len(vars)) <= instructorLoadThreshold {
			continue
		}
		b.thresholdPenalty(vars, weight, instructorLoadThreshold,
			fmt.Sprintf("bal_pen_%s_%s", key.ID, key.Day))
	}
}

// Group daily-load preference: same shape as the instructor balance but
// over group days and a higher threshold.
func (b *modelBuilder) groupDailyLoad(weight int64) {
	for key, vars := range b.space.byGroupDay {
		if int64(len(vars)) <= groupLoadThreshold {
			continue
		}
		b.thresholdPenalty(vars, weight, groupLoadThreshold,
			fmt.Sprintf("load_pen_%s_%s", key.ID, key.Day))
	}
}

// Avoid back-to-back teaching: an auxiliary "both occupied" flag per
// instructor and adjacent slot pair, with the penalty conditioned on it.
// sum(earlier) + sum(later) - both <= 1 forces the flag up whenever both
// slots hold a class; minimization keeps it down otherwise.
func (b *modelBuilder) avoidBackToBack(weight int64) {
	for _, instructor := range b.request.Instructors {
		for _, day := range b.request.Days {
			for slot := 1; slot < b.request.SlotsPerDay; slot++ {
				earlier := b.space.byInstructorCell[cellKey{instructor.ID, day, slot}]
				later := b.space.byInstructorCell[cellKey{instructor.ID, day, slot + 1}]
				if len(earlier) == 0 || len(later) == 0 {
					continue
				}

				both := b.m.NewBool(fmt.Sprintf("b2b_%s_%s_%d", instructor.ID, day, slot))
				terms := make([]cpmodel.Term, 0, len(earlier)+len(later)+1)
				for _, v := range earlier {
					terms = append(terms, cpmodel.Term{Var: v, Coef: 1})
				}
				for _, v := range later {
					terms = append(terms, cpmodel.Term{Var: v, Coef: 1})
				}
				terms = append(terms, cpmodel.Term{Var: both, Coef: -1})
				b.m.AddLinear(terms, cpmodel.OpLE, 1)

				p := b.m.NewInt(0, weight, fmt.Sprintf("b2b_pen_%s_%s_%d", instructor.ID, day, slot))
				b.m.AddLinear([]cpmodel.Term{{Var: p, Coef: 1}, {Var: both, Coef: -weight}}, cpmodel.OpEQ, 0)
				b.penalties = append(b.penalties, cpmodel.Term{Var: p, Coef: 1})
			}
		}
	}
}

// Even subject distribution: a (group, subject) occurring n > 1 times on
// one day costs weight*(n-1).
func (b *modelBuilder) evenDistribution(weight int64) {
	for key, vars := range b.space.byGroupSubjectDay {
		if len(vars) < 2 {
			continue
		}
		p := b.m.NewInt(0, weight*int64(len(vars)-1),
			fmt.Sprintf("dist_pen_%s_%s_%s", key.Group, key.Subject, key.Day))
		terms := make([]cpmodel.Term, 0, len(vars)+1)
		for _, v := range vars {
			terms = append(terms, cpmodel.Term{Var: v, Coef: weight})
		}
		terms = append(terms, cpmodel.Term{Var: p, Coef: -1})
		b.m.AddLinear(terms, cpmodel.OpLE, weight)
		b.penalties = append(b.penalties, cpmodel.Term{Var: p, Coef: 1})
	}
}

// Idle-gap minimization: a class at 1-based slot s costs weight*(s-1),
// biasing solutions toward filling earlier slots first.
func (b *modelBuilder) minimizeIdleGaps(weight int64) {
	for v, key := range b.space.byVar {
		if key.Slot <= 1 {
			continue
		}
		cost := weight * int64(key.Slot-1)
		p := b.m.NewInt(0, cost, fmt.Sprintf("gap_pen_%s", b.m.Name(v)))
		b.m.AddLinear([]cpmodel.Term{{Var: p, Coef: 1}, {Var: v, Coef: -cost}}, cpmodel.OpEQ, 0)
		b.penalties = append(b.penalties, cpmodel.Term{Var: p, Coef: 1})
	}
}
