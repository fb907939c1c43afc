package engine

import (
	"timesolver/internal/cpmodel"
	"timesolver/internal/schema"
)

// modelBuilder accumulates the compiled model for one request. Each encoder
// step is independent and additive: constraints are only ever appended,
// never retracted, and counts are diagnostics, not control flow.
type modelBuilder struct {
	m         *cpmodel.Model
	request   *schema.Request
	space     *variableSpace
	penalties []cpmodel.Term
}

// addHardConstraints posts every feasibility rule and returns the total
// constraint count for the build statistics.
func (b *modelBuilder) addHardConstraints() int {
	count := 0
	count += b.groupExclusivity()
	count += b.roomExclusivity()
	count += b.instructorExclusivity()
	count += b.quotaSatisfaction()
	count += b.instructorUnavailability()
	count += b.fixedAssignments()
	count += b.groupDailyCeiling()
	count += b.instructorDailyCeiling()
	count += b.instructorWeeklyCeiling()
	return count
}

// At most one class per (group, day, slot).
func (b *modelBuilder) groupExclusivity() int {
	count := 0
	for _, vars := range b.space.byGroupCell {
		b.m.AddSum(vars, cpmodel.OpLE, 1)
		count++
	}
	return count
}

// At most one class per (room, day, slot).
func (b *modelBuilder) roomExclusivity() int {
	count := 0
	for _, vars := range b.space.byRoomCell {
		b.m.AddSum(vars, cpmodel.OpLE, 1)
		count++
	}
	return count
}

// At most one class per (instructor, day, slot).
func (b *modelBuilder) instructorExclusivity() int {
	count := 0
	for _, vars := range b.space.byInstructorCell {
		b.m.AddSum(vars, cpmodel.OpLE, 1)
		count++
	}
	return count
}

// Exactly classes-per-week true variables per (group, subject) requirement.
// Requirements whose candidate set came out empty get the equality over an
// empty sum, which is unsatisfiable unless the count is zero; that is how a
// structurally impossible requirement drives the solve to infeasible.
func (b *modelBuilder) quotaSatisfaction() int {
	count := 0
	for _, group := range b.request.Groups {
		for _, requirement := range group.Requirements {
			vars := b.space.byGroupSubject[pairKey{group.ID, requirement.SubjectID}]
			b.m.AddSum(vars, cpmodel.OpEQ, int64(requirement.ClassesPerWeek))
			count++
		}
	}
	return count
}

// Declared instructor unavailability. The variable space builder already
// filters these cells out, so this normally posts nothing; it stays as a
// defense should a candidate variable ever exist there.
func (b *modelBuilder) instructorUnavailability() int {
	count := 0
	for _, instructor := range b.request.Instructors {
		for _, ref := range instructor.UnavailableSlots {
			for _, v := range b.space.byInstructorCell[cellKey{instructor.ID, ref.Day, ref.Slot}] {
				b.m.Fix(v, 0)
				count++
			}
		}
	}
	return count
}

// Fixed assignments: variables at the pinned (group, subject, day, slot)
// that contradict a specified instructor or room are forced to 0, and
// exactly one of the remaining candidates must hold.
func (b *modelBuilder) fixedAssignments() int {
	count := 0
	for _, fixed := range b.request.FixedAssignments {
		matching := make([]cpmodel.Var, 0)
		for _, v := range b.space.byGroupSubject[pairKey{fixed.GroupID, fixed.SubjectID}] {
			key := b.space.byVar[v]
			if key.Day != fixed.Day || key.Slot != fixed.Slot {
				continue
			}
			if (fixed.InstructorID != "" && key.Instructor != fixed.InstructorID) ||
				(fixed.RoomID != "" && key.Room != fixed.RoomID) {
				b.m.Fix(v, 0)
				count++
				continue
			}
			matching = append(matching, v)
		}
		b.m.AddSum(matching, cpmodel.OpEQ, 1)
		count++
	}
	return count
}

// Per-group daily ceiling from the hard rule configuration.
func (b *modelBuilder) groupDailyCeiling() int {
	ceiling := int64(b.request.Constraints.Hard.MaxDailyClassesPerGroup)
	count := 0
	for _, vars := range b.space.byGroupDay {
		b.m.AddSum(vars, cpmodel.OpLE, ceiling)
		count++
	}
	return count
}

// Per-instructor daily ceiling.
func (b *modelBuilder) instructorDailyCeiling() int {
	count := 0
	for _, instructor := range b.request.Instructors {
		for _, day := range b.request.Days {
			vars := b.space.byInstructorDay[dayKey{instructor.ID, day}]
			if len(vars) == 0 {
				continue
			}
			b.m.AddSum(vars, cpmodel.OpLE, int64(instructor.MaxDailyClasses))
			count++
		}
	}
	return count
}

// Per-instructor weekly ceiling.
func (b *modelBuilder) instructorWeeklyCeiling() int {
	count := 0
	for _, instructor := range b.request.Instructors {
		vars := b.space.byInstructor[instructor.ID]
		if len(vars) == 0 {
			continue
		}
		b.m.AddSum(vars, cpmodel.OpLE, int64(instructor.MaxWeeklyClasses))
		count++
	}
	return count
}
