package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"timesolver/internal/cpmodel"
	"timesolver/internal/cpsolver"
	"timesolver/internal/schema"
)

// scoreNormalization maps the aggregate penalty onto a 0..1 score. With
// weights capped at 10 the realistic objective range for mid-size inputs
// stays well under this constant.
const scoreNormalization = 1000.0

// Engine compiles a request into a constraint model, runs the backend, and
// decodes the assignment into timetable events.
type Engine struct {
	backend cpmodel.Backend
	logger  *zap.Logger
}

func New(backend cpmodel.Backend, logger *zap.Logger) *Engine {
	if backend == nil {
		backend = cpsolver.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{backend: backend, logger: logger}
}

// Solve runs the full compile -> solve -> decode pipeline. Conditions the
// backend reports (infeasible, timeout) come back as terminal statuses in
// the result; everything detectable before the backend runs is an error.
func (e *Engine) Solve(ctx context.Context, request *schema.Request) (result *schema.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: panic during solve: %v", ErrBackend, r)
		}
	}()

	start := time.Now()
	request.ApplyDefaults()
	if verr := request.Validate(); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, verr)
	}

	idx, err := buildIndex(request)
	if err != nil {
		return nil, err
	}

	m := cpmodel.New()
	space, err := buildVariables(m, request, idx)
	if err != nil {
		return nil, err
	}
	if m.NumVars() == 0 {
		return nil, fmt.Errorf("%w: no requirement produced a candidate variable", ErrEmptyModel)
	}

	builder := &modelBuilder{m: m, request: request, space: space}
	hardCount := builder.addHardConstraints()
	builder.addSoftConstraints()
	builder.composeObjective()

	e.logger.Info("model compiled",
		zap.Int("variables", m.NumVars()),
		zap.Int("hard_constraints", hardCount),
		zap.Int("penalty_terms", len(builder.penalties)),
		zap.Int("skipped_requirements", len(space.skipped)),
	)

	outcome, err := e.backend.Solve(ctx, m, cpmodel.Params{
		TimeLimit: time.Duration(request.Config.TimeLimitSeconds) * time.Second,
		Workers:   request.Config.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	elapsed := time.Since(start).Seconds()
	statistics := map[string]any{
		"variables":            m.NumVars(),
		"hard_constraints":     hardCount,
		"penalty_terms":        len(builder.penalties),
		"skipped_requirements": space.skipped,
	}

	switch outcome.Status {
	case cpmodel.StatusOptimal, cpmodel.StatusFeasible:
		solution := e.decode(request, idx, space, builder, outcome)
		status := schema.StatusOptimal
		if outcome.Status == cpmodel.StatusFeasible {
			status = schema.StatusFeasible
		}
		return &schema.Result{
			Status:            status,
			Message:           fmt.Sprintf("solver finished with status %s", outcome.Status),
			SolveTimeSeconds:  elapsed,
			Solutions:         []schema.Solution{solution},
			BestSolutionIndex: 0,
			Statistics:        statistics,
		}, nil

	case cpmodel.StatusInfeasible:
		message := "no timetable satisfies the hard constraints"
		if len(space.skipped) > 0 {
			message = fmt.Sprintf("%s (requirements with no candidates: %v)", message, space.skipped)
		}
		return &schema.Result{
			Status:           schema.StatusInfeasible,
			Message:          message,
			SolveTimeSeconds: elapsed,
			Statistics:       statistics,
		}, nil

	case cpmodel.StatusUnknown:
		return &schema.Result{
			Status:           schema.StatusTimeout,
			Message:          "time limit reached before a conclusive answer",
			SolveTimeSeconds: elapsed,
			Statistics:       statistics,
		}, nil

	default:
		return nil, fmt.Errorf("%w: model rejected by backend: %s", ErrBackend, outcome.Status)
	}
}

// decode turns the satisfying assignment into sorted timetable events with a
// score and quality metrics.
func (e *Engine) decode(request *schema.Request, idx *entityIndex, space *variableSpace, builder *modelBuilder, outcome cpmodel.Outcome) schema.Solution {
	fixedCells := make(map[varKey]bool)
	for _, fixed := range request.FixedAssignments {
		for _, v := range space.byGroupSubject[pairKey{fixed.GroupID, fixed.SubjectID}] {
			key := space.byVar[v]
			if key.Day == fixed.Day && key.Slot == fixed.Slot {
				fixedCells[key] = true
			}
		}
	}

	events := make([]schema.Event, 0)
	for key, v := range space.vars {
		if outcome.Value(v) != 1 {
			continue
		}
		// Lookups cannot fail here: the key was built from indexed records.
		group := idx.groups[key.Group]
		subject := idx.subjects[key.Subject]
		instructor := idx.instructors[key.Instructor]
		room := idx.rooms[key.Room]
		events = append(events, schema.Event{
			Day:            key.Day,
			Slot:           key.Slot,
			GroupID:        group.ID,
			GroupCode:      group.Code,
			SubjectID:      subject.ID,
			SubjectCode:    subject.Code,
			InstructorID:   instructor.ID,
			InstructorName: instructor.Name,
			RoomID:         room.ID,
			RoomCode:       room.Code,
			Fixed:          fixedCells[key],
		})
	}
	sortEvents(request.Days, events)

	score := 1.0
	if len(builder.penalties) > 0 && outcome.Objective > 0 {
		score = 1.0 - float64(outcome.Objective)/scoreNormalization
		if score < 0 {
			score = 0
		}
	}

	return schema.Solution{
		Score:  score,
		Events: events,
		Violations: map[string]int{
			"hard": 0,
			"soft": int(outcome.Objective),
		},
		Metrics: computeMetrics(request, events),
	}
}

// sortEvents orders by the request's day order, then slot, then group id,
// making decoded output stable across runs.
func sortEvents(days []schema.Day, events []schema.Event) {
	dayOrder := make(map[schema.Day]int, len(days))
	for i, day := range days {
		dayOrder[day] = i
	}
	sort.Slice(events, func(i, j int) bool {
		if dayOrder[events[i].Day] != dayOrder[events[j].Day] {
			return dayOrder[events[i].Day] < dayOrder[events[j].Day]
		}
		if events[i].Slot != events[j].Slot {
			return events[i].Slot < events[j].Slot
		}
		return events[i].GroupID < events[j].GroupID
	})
}
