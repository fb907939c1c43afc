package engine

import (
	"fmt"

	"timesolver/internal/schema"
)

// VerifySolution independently checks a decoded timetable against every hard
// rule of the request. It shares no code with the constraint encoders, so a
// passing verification is evidence the model and decoder agree.
func VerifySolution(request *schema.Request, events []schema.Event) error {
	groupCells := make(map[cellKey]int)
	roomCells := make(map[cellKey]int)
	instructorCells := make(map[cellKey]int)
	quotas := make(map[pairKey]int)
	groupDaily := make(map[dayKey]int)
	instructorDaily := make(map[dayKey]int)
	instructorWeekly := make(map[string]int)

	for _, event := range events {
		groupCells[cellKey{event.GroupID, event.Day, event.Slot}]++
		roomCells[cellKey{event.RoomID, event.Day, event.Slot}]++
		instructorCells[cellKey{event.InstructorID, event.Day, event.Slot}]++
		quotas[pairKey{event.GroupID, event.SubjectID}]++
		groupDaily[dayKey{event.GroupID, event.Day}]++
		instructorDaily[dayKey{event.InstructorID, event.Day}]++
		instructorWeekly[event.InstructorID]++
	}

	for key, count := range groupCells {
		if count > 1 {
			return fmt.Errorf("group %s holds %d classes at %s slot %d", key.ID, count, key.Day, key.Slot)
		}
	}
	for key, count := range roomCells {
		if count > 1 {
			return fmt.Errorf("room %s holds %d classes at %s slot %d", key.ID, count, key.Day, key.Slot)
		}
	}
	for key, count := range instructorCells {
		if count > 1 {
			return fmt.Errorf("instructor %s teaches %d classes at %s slot %d", key.ID, count, key.Day, key.Slot)
		}
	}

	for _, group := range request.Groups {
		for _, requirement := range group.Requirements {
			got := quotas[pairKey{group.ID, requirement.SubjectID}]
			if got != requirement.ClassesPerWeek {
				return fmt.Errorf("group %s subject %s scheduled %d times, want %d",
					group.ID, requirement.SubjectID, got, requirement.ClassesPerWeek)
			}
		}
		for _, day := range request.Days {
			ceiling := request.Constraints.Hard.MaxDailyClassesPerGroup
			if ceiling > 0 && groupDaily[dayKey{group.ID, day}] > ceiling {
				return fmt.Errorf("group %s exceeds daily ceiling on %s", group.ID, day)
			}
		}
	}

	for _, instructor := range request.Instructors {
		for _, ref := range instructor.UnavailableSlots {
			if instructorCells[cellKey{instructor.ID, ref.Day, ref.Slot}] > 0 {
				return fmt.Errorf("instructor %s scheduled during unavailable %s slot %d", instructor.ID, ref.Day, ref.Slot)
			}
		}
		for _, day := range request.Days {
			if instructor.MaxDailyClasses > 0 && instructorDaily[dayKey{instructor.ID, day}] > instructor.MaxDailyClasses {
				return fmt.Errorf("instructor %s exceeds daily ceiling on %s", instructor.ID, day)
			}
		}
		if instructor.MaxWeeklyClasses > 0 && instructorWeekly[instructor.ID] > instructor.MaxWeeklyClasses {
			return fmt.Errorf("instructor %s exceeds weekly ceiling", instructor.ID)
		}
	}

	for _, room := range request.Rooms {
		for _, ref := range room.UnavailableSlots {
			if roomCells[cellKey{room.ID, ref.Day, ref.Slot}] > 0 {
				return fmt.Errorf("room %s scheduled during unavailable %s slot %d", room.ID, ref.Day, ref.Slot)
			}
		}
	}

	for _, fixed := range request.FixedAssignments {
		if err := verifyFixed(fixed, events); err != nil {
			return err
		}
	}
	return nil
}

func verifyFixed(fixed schema.FixedAssignment, events []schema.Event) error {
	for _, event := range events {
		if event.GroupID != fixed.GroupID || event.SubjectID != fixed.SubjectID {
			continue
		}
		if event.Day != fixed.Day || event.Slot != fixed.Slot {
			continue
		}
		if fixed.InstructorID != "" && event.InstructorID != fixed.InstructorID {
			continue
		}
		if fixed.RoomID != "" && event.RoomID != fixed.RoomID {
			continue
		}
		return nil
	}
	return fmt.Errorf("fixed assignment %s/%s at %s slot %d not honored",
		fixed.GroupID, fixed.SubjectID, fixed.Day, fixed.Slot)
}
