package schema

import (
	"fmt"

	"github.com/samber/lo"
)

// Diagnostics is the outcome of pre-solve validation. Issues do not stop a
// solve; they flag inputs that are likely to produce an infeasible or empty
// model.
type Diagnostics struct {
	Valid   bool           `json:"valid"`
	Issues  []string       `json:"issues"`
	Summary map[string]any `json:"summary"`
}

// Diagnose runs the pre-solve consistency checks: dangling subject
// references, instructors with nothing to teach, group sizes versus room
// capacities, and lab subjects without lab rooms.
func Diagnose(r *Request) Diagnostics {
	issues := []string{}

	subjectIDs := lo.SliceToMap(r.Subjects, func(s Subject) (string, struct{}) {
		return s.ID, struct{}{}
	})

	for _, group := range r.Groups {
		for _, req := range group.Requirements {
			if _, ok := subjectIDs[req.SubjectID]; !ok {
				issues = append(issues, fmt.Sprintf("group %s: unknown subject %s", group.ID, req.SubjectID))
			}
		}
	}

	for _, instructor := range r.Instructors {
		teachable := lo.Filter(instructor.SubjectIDs, func(id string, _ int) bool {
			_, ok := subjectIDs[id]
			return ok
		})
		if len(teachable) == 0 {
			issues = append(issues, fmt.Sprintf("instructor %s: no valid subjects assigned", instructor.ID))
		}
	}

	maxGroupSize := lo.Max(lo.Map(r.Groups, func(g StudentGroup, _ int) int { return g.Size }))
	maxRoomCapacity := lo.Max(lo.Map(r.Rooms, func(room Room, _ int) int { return room.Capacity }))
	if maxGroupSize > maxRoomCapacity {
		issues = append(issues, fmt.Sprintf("largest group (%d) exceeds largest room (%d)", maxGroupSize, maxRoomCapacity))
	}

	hasLabSubjects := lo.SomeBy(r.Subjects, func(s Subject) bool { return s.IsLab })
	hasLabRooms := lo.SomeBy(r.Rooms, func(room Room) bool { return room.Kind == RoomLab })
	if hasLabSubjects && !hasLabRooms {
		issues = append(issues, "lab subjects exist but no lab rooms available")
	}

	totalClasses := 0
	for _, group := range r.Groups {
		for _, req := range group.Requirements {
			totalClasses += req.ClassesPerWeek
		}
	}

	return Diagnostics{
		Valid:  len(issues) == 0,
		Issues: issues,
		Summary: map[string]any{
			"instructors":            len(r.Instructors),
			"rooms":                  len(r.Rooms),
			"subjects":               len(r.Subjects),
			"groups":                 len(r.Groups),
			"total_classes_per_week": totalClasses,
		},
	}
}
