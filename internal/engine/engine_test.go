package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesolver/internal/schema"
)

// baseRequest is the smallest solvable input: one group needing two classes
// of one subject from one instructor in one room, on a single three-slot day.
func baseRequest() *schema.Request {
	return &schema.Request{
		Instructors: []schema.Instructor{
			{ID: "i1", Name: "Ada Lovelace", SubjectIDs: []string{"s1"}},
		},
		Rooms: []schema.Room{
			{ID: "r1", Code: "R-101", Capacity: 30, Kind: schema.RoomLecture},
		},
		Subjects: []schema.Subject{
			{ID: "s1", Code: "MATH", Name: "Mathematics"},
		},
		Groups: []schema.StudentGroup{
			{ID: "g1", Code: "G-1", Size: 20, Requirements: []schema.Requirement{
				{SubjectID: "s1", ClassesPerWeek: 2},
			}},
		},
		Days:        []schema.Day{schema.Mon},
		SlotsPerDay: 3,
		Config:      schema.SolverConfig{TimeLimitSeconds: 30, Workers: 2},
	}
}

// solve stops the test on a solve error; callers can dereference the
// result unconditionally.
func solve(t *testing.T, request *schema.Request) *schema.Result {
	t.Helper()
	result, err := New(nil, nil).Solve(context.Background(), request)
	require.NoError(t, err)
	return result
}

func TestSolveBasic(t *testing.T) {
	t.Run("finds a valid timetable", func(t *testing.T) {
		// Arrange
		request := baseRequest()

		// Act
		result := solve(t, request)

		// Assert
		assert.Equal(t, schema.StatusOptimal, result.Status)
		assert.Len(t, result.Solutions, 1)
		best := result.Solutions[result.BestSolutionIndex]
		assert.Len(t, best.Events, 2)
		assert.Equal(t, 1.0, best.Score)
		assert.Equal(t, 0, best.Violations["hard"])
		assert.NoError(t, VerifySolution(request, best.Events))
	})

	t.Run("reports build statistics", func(t *testing.T) {
		result := solve(t, baseRequest())

		assert.Equal(t, 3, result.Statistics["variables"])
		assert.Greater(t, result.Statistics["hard_constraints"].(int), 0)
	})

	t.Run("events come out sorted", func(t *testing.T) {
		request := baseRequest()
		request.Groups[0].Requirements[0].ClassesPerWeek = 3

		result := solve(t, request)

		events := result.Solutions[0].Events
		assert.Len(t, events, 3)
		for i := 1; i < len(events); i++ {
			assert.Less(t, events[i-1].Slot, events[i].Slot)
		}
	})
}

func TestSolveInfeasible(t *testing.T) {
	t.Run("quota exceeding the grid", func(t *testing.T) {
		// One slot cannot hold two classes of the same group.
		request := baseRequest()
		request.SlotsPerDay = 1

		result := solve(t, request)

		assert.Equal(t, schema.StatusInfeasible, result.Status)
		assert.Empty(t, result.Solutions)
	})

	t.Run("requirement with no qualified instructor", func(t *testing.T) {
		request := baseRequest()
		request.Subjects = append(request.Subjects, schema.Subject{ID: "s2", Code: "PHYS"})
		request.Groups[0].Requirements = append(request.Groups[0].Requirements,
			schema.Requirement{SubjectID: "s2", ClassesPerWeek: 1})

		result := solve(t, request)

		assert.Equal(t, schema.StatusInfeasible, result.Status)
		assert.Contains(t, result.Message, "g1/s2")
	})

	t.Run("instructor daily ceiling too tight", func(t *testing.T) {
		request := baseRequest()
		request.Instructors[0].MaxDailyClasses = 1

		result := solve(t, request)

		assert.Equal(t, schema.StatusInfeasible, result.Status)
	})
}

func TestSolveErrors(t *testing.T) {
	t.Run("empty model when nothing can be scheduled", func(t *testing.T) {
		request := baseRequest()
		request.Instructors[0].SubjectIDs = nil

		_, err := New(nil, nil).Solve(context.Background(), request)

		assert.ErrorIs(t, err, ErrEmptyModel)
	})

	t.Run("dangling subject reference", func(t *testing.T) {
		request := baseRequest()
		request.Groups[0].Requirements[0].SubjectID = "ghost"

		_, err := New(nil, nil).Solve(context.Background(), request)

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("structurally invalid request", func(t *testing.T) {
		request := baseRequest()
		request.Groups[0].ID = ""

		_, err := New(nil, nil).Solve(context.Background(), request)

		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestInstructorUnavailability(t *testing.T) {
	// Arrange: one class, two slots, the first one blocked.
	request := baseRequest()
	request.SlotsPerDay = 2
	request.Groups[0].Requirements[0].ClassesPerWeek = 1
	request.Instructors[0].UnavailableSlots = []schema.SlotRef{{Day: schema.Mon, Slot: 1}}

	// Act
	result := solve(t, request)

	// Assert
	assert.Equal(t, schema.StatusOptimal, result.Status)
	events := result.Solutions[0].Events
	assert.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Slot)
}

func TestRoomUnavailability(t *testing.T) {
	request := baseRequest()
	request.SlotsPerDay = 2
	request.Groups[0].Requirements[0].ClassesPerWeek = 1
	request.Rooms[0].UnavailableSlots = []schema.SlotRef{{Day: schema.Mon, Slot: 1}}

	result := solve(t, request)

	assert.Equal(t, schema.StatusOptimal, result.Status)
	assert.Equal(t, 2, result.Solutions[0].Events[0].Slot)
}

func TestFixedAssignments(t *testing.T) {
	t.Run("pins the class to the requested cell", func(t *testing.T) {
		// Arrange
		request := baseRequest()
		request.Groups[0].Requirements[0].ClassesPerWeek = 1
		request.FixedAssignments = []schema.FixedAssignment{
			{GroupID: "g1", SubjectID: "s1", Day: schema.Mon, Slot: 2},
		}

		// Act
		result := solve(t, request)

		// Assert
		assert.Equal(t, schema.StatusOptimal, result.Status)
		events := result.Solutions[0].Events
		assert.Len(t, events, 1)
		assert.Equal(t, 2, events[0].Slot)
		assert.True(t, events[0].Fixed)
		assert.NoError(t, VerifySolution(request, events))
	})

	t.Run("pin with a specific instructor", func(t *testing.T) {
		request := baseRequest()
		request.Instructors = append(request.Instructors,
			schema.Instructor{ID: "i2", Name: "Grace Hopper", SubjectIDs: []string{"s1"}})
		request.Groups[0].Requirements[0].ClassesPerWeek = 1
		request.FixedAssignments = []schema.FixedAssignment{
			{GroupID: "g1", SubjectID: "s1", InstructorID: "i2", Day: schema.Mon, Slot: 1},
		}

		result := solve(t, request)

		assert.Equal(t, schema.StatusOptimal, result.Status)
		events := result.Solutions[0].Events
		assert.Equal(t, "i2", events[0].InstructorID)
		assert.Equal(t, 1, events[0].Slot)
	})

	t.Run("pin at a blocked slot is infeasible", func(t *testing.T) {
		// Slot 2 keeps the model non-empty; the pinned cell itself has no
		// candidates, so the fixed-assignment equality is over an empty sum.
		request := baseRequest()
		request.SlotsPerDay = 2
		request.Groups[0].Requirements[0].ClassesPerWeek = 1
		request.FixedAssignments = []schema.FixedAssignment{
			{GroupID: "g1", SubjectID: "s1", Day: schema.Mon, Slot: 1},
		}
		request.Instructors[0].UnavailableSlots = []schema.SlotRef{{Day: schema.Mon, Slot: 1}}

		result := solve(t, request)

		assert.Equal(t, schema.StatusInfeasible, result.Status)
	})

	t.Run("pin on a fully blocked grid is an empty model", func(t *testing.T) {
		// With the only cell blocked there are no candidates at all, which
		// is reported before the backend runs rather than as infeasible.
		request := baseRequest()
		request.SlotsPerDay = 1
		request.Groups[0].Requirements[0].ClassesPerWeek = 1
		request.FixedAssignments = []schema.FixedAssignment{
			{GroupID: "g1", SubjectID: "s1", Day: schema.Mon, Slot: 1},
		}
		request.Instructors[0].UnavailableSlots = []schema.SlotRef{{Day: schema.Mon, Slot: 1}}

		_, err := New(nil, nil).Solve(context.Background(), request)

		assert.ErrorIs(t, err, ErrEmptyModel)
	})
}

func TestSoftConstraints(t *testing.T) {
	t.Run("idle gap preference pulls classes to early slots", func(t *testing.T) {
		// Arrange
		request := baseRequest()
		request.Groups[0].Requirements[0].ClassesPerWeek = 1
		request.Constraints.Soft.MinimizeIdleGaps = schema.SoftRule{Enabled: true, Weight: 2}

		// Act
		result := solve(t, request)

		// Assert
		assert.Equal(t, schema.StatusOptimal, result.Status)
		best := result.Solutions[0]
		assert.Equal(t, 1, best.Events[0].Slot)
		assert.Equal(t, 0, best.Violations["soft"])
		assert.Equal(t, 1.0, best.Score)
	})

	t.Run("unavoidable penalty lowers the score", func(t *testing.T) {
		// A fixed assignment at slot 2 makes the idle-gap penalty of 2
		// unavoidable.
		request := baseRequest()
		request.Groups[0].Requirements[0].ClassesPerWeek = 1
		request.Constraints.Soft.MinimizeIdleGaps = schema.SoftRule{Enabled: true, Weight: 2}
		request.FixedAssignments = []schema.FixedAssignment{
			{GroupID: "g1", SubjectID: "s1", Day: schema.Mon, Slot: 2},
		}

		result := solve(t, request)

		assert.Equal(t, schema.StatusOptimal, result.Status)
		best := result.Solutions[0]
		assert.Equal(t, 2, best.Violations["soft"])
		assert.InDelta(t, 0.998, best.Score, 1e-9)
	})

	t.Run("back-to-back avoidance spreads classes apart", func(t *testing.T) {
		// Two classes on a three-slot day: slots 1 and 3 are the only
		// penalty-free placement.
		request := baseRequest()
		request.Constraints.Soft.AvoidBackToBack = schema.SoftRule{Enabled: true, Weight: 3}

		result := solve(t, request)

		assert.Equal(t, schema.StatusOptimal, result.Status)
		best := result.Solutions[0]
		assert.Equal(t, 0, best.Violations["soft"])
		assert.Equal(t, 1, best.Events[0].Slot)
		assert.Equal(t, 3, best.Events[1].Slot)
	})

	t.Run("same-day repetition costs the even-distribution weight", func(t *testing.T) {
		// Two classes of one subject forced onto a single two-slot day.
		request := baseRequest()
		request.SlotsPerDay = 2
		request.Constraints.Soft.EvenDistribution = schema.SoftRule{Enabled: true, Weight: 4}

		result := solve(t, request)

		assert.Equal(t, schema.StatusOptimal, result.Status)
		best := result.Solutions[0]
		assert.Equal(t, 4, best.Violations["soft"])
		assert.InDelta(t, 0.996, best.Score, 1e-9)
	})

	t.Run("instructor load beyond the daily threshold is charged", func(t *testing.T) {
		// Four classes in one day: one beyond the balance threshold of 3.
		request := baseRequest()
		request.SlotsPerDay = 6
		request.Groups[0].Requirements[0].ClassesPerWeek = 4
		request.Constraints.Soft.InstructorLoadBalance = schema.SoftRule{Enabled: true, Weight: 1}

		result := solve(t, request)

		assert.Equal(t, schema.StatusOptimal, result.Status)
		assert.Equal(t, 1, result.Solutions[0].Violations["soft"])
	})
}

func TestSolveDeterminism(t *testing.T) {
	// A fully saturated day has exactly one solution, so repeated solves
	// must decode identical events.
	request := baseRequest()
	request.Groups[0].Requirements[0].ClassesPerWeek = 3

	first := solve(t, request)
	second := solve(t, baseRequestWithQuota(3))

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Solutions[0].Events, second.Solutions[0].Events)
}

func baseRequestWithQuota(quota int) *schema.Request {
	request := baseRequest()
	request.Groups[0].Requirements[0].ClassesPerWeek = quota
	return request
}

func TestLabRoomFiltering(t *testing.T) {
	// A lab subject with only a lecture room available produces no
	// candidates at all.
	request := baseRequest()
	request.Subjects[0].IsLab = true

	_, err := New(nil, nil).Solve(context.Background(), request)

	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestRoomCapacityFiltering(t *testing.T) {
	// A group larger than every room leaves no suitable room.
	request := baseRequest()
	request.Groups[0].Size = 50

	_, err := New(nil, nil).Solve(context.Background(), request)

	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestMetrics(t *testing.T) {
	t.Run("room utilization and load variance", func(t *testing.T) {
		request := baseRequest()

		result := solve(t, request)

		metrics := result.Solutions[0].Metrics
		assert.InDelta(t, 66.67, metrics.RoomUtilizationPercent, 0.01)
		assert.InDelta(t, 2.0, metrics.AvgDailyClassesPerGroup, 1e-9)
		assert.InDelta(t, 0.0, metrics.InstructorLoadVariance, 1e-9)
	})

	t.Run("preferred slot hits", func(t *testing.T) {
		request := baseRequest()
		request.Instructors[0].Preferences = &schema.InstructorPreferences{
			PreferredSlots: []schema.SlotRef{
				{Day: schema.Mon, Slot: 1},
				{Day: schema.Mon, Slot: 2},
				{Day: schema.Mon, Slot: 3},
			},
		}

		result := solve(t, request)

		assert.Equal(t, 2, result.Solutions[0].Metrics.PreferredSlotHits)
	})
}
