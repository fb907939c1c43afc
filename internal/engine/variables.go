package engine

import (
	"fmt"

	"github.com/samber/lo"

	"timesolver/internal/cpmodel"
	"timesolver/internal/schema"
)

// varKey identifies one decision variable: the class of (group, subject)
// held at (day, slot) in (room) by (instructor).
type varKey struct {
	Group      string
	Subject    string
	Day        schema.Day
	Slot       int
	Room       string
	Instructor string
}

// cellKey addresses one (entity, day, slot) grid cell; the entity id is a
// group, room, or instructor depending on the index it keys.
type cellKey struct {
	ID   string
	Day  schema.Day
	Slot int
}

type pairKey struct {
	Group   string
	Subject string
}

type dayKey struct {
	ID  string
	Day schema.Day
}

type subjectDayKey struct {
	Group   string
	Subject string
	Day     schema.Day
}

// variableSpace is the sparse candidate space plus the secondary indices
// the constraint encoders consume. Indices are built once here; encoders
// never scan the full variable collection.
type variableSpace struct {
	vars  map[varKey]cpmodel.Var
	byVar map[cpmodel.Var]varKey

	byGroupCell       map[cellKey][]cpmodel.Var
	byRoomCell        map[cellKey][]cpmodel.Var
	byInstructorCell  map[cellKey][]cpmodel.Var
	byGroupSubject    map[pairKey][]cpmodel.Var
	byGroupDay        map[dayKey][]cpmodel.Var
	byInstructorDay   map[dayKey][]cpmodel.Var
	byInstructor      map[string][]cpmodel.Var
	byGroupSubjectDay map[subjectDayKey][]cpmodel.Var

	// skipped lists (group, subject) requirements with an empty qualified
	// instructor or suitable room set; they produce zero variables and an
	// unsatisfiable quota unless their count is zero.
	skipped []string
}

func newVariableSpace() *variableSpace {
	return &variableSpace{
		vars:              make(map[varKey]cpmodel.Var),
		byVar:             make(map[cpmodel.Var]varKey),
		byGroupCell:       make(map[cellKey][]cpmodel.Var),
		byRoomCell:        make(map[cellKey][]cpmodel.Var),
		byInstructorCell:  make(map[cellKey][]cpmodel.Var),
		byGroupSubject:    make(map[pairKey][]cpmodel.Var),
		byGroupDay:        make(map[dayKey][]cpmodel.Var),
		byInstructorDay:   make(map[dayKey][]cpmodel.Var),
		byInstructor:      make(map[string][]cpmodel.Var),
		byGroupSubjectDay: make(map[subjectDayKey][]cpmodel.Var),
	}
}

func (space *variableSpace) add(m *cpmodel.Model, key varKey) {
	name := fmt.Sprintf("x_%s_%s_%s_%d_%s_%s", key.Group, key.Subject, key.Day, key.Slot, key.Room, key.Instructor)
	v := m.NewBool(name)

	space.vars[key] = v
	space.byVar[v] = key
	space.byGroupCell[cellKey{key.Group, key.Day, key.Slot}] = append(space.byGroupCell[cellKey{key.Group, key.Day, key.Slot}], v)
	space.byRoomCell[cellKey{key.Room, key.Day, key.Slot}] = append(space.byRoomCell[cellKey{key.Room, key.Day, key.Slot}], v)
	space.byInstructorCell[cellKey{key.Instructor, key.Day, key.Slot}] = append(space.byInstructorCell[cellKey{key.Instructor, key.Day, key.Slot}], v)
	space.byGroupSubject[pairKey{key.Group, key.Subject}] = append(space.byGroupSubject[pairKey{key.Group, key.Subject}], v)
	space.byGroupDay[dayKey{key.Group, key.Day}] = append(space.byGroupDay[dayKey{key.Group, key.Day}], v)
	space.byInstructorDay[dayKey{key.Instructor, key.Day}] = append(space.byInstructorDay[dayKey{key.Instructor, key.Day}], v)
	space.byInstructor[key.Instructor] = append(space.byInstructor[key.Instructor], v)
	space.byGroupSubjectDay[subjectDayKey{key.Group, key.Subject, key.Day}] = append(space.byGroupSubjectDay[subjectDayKey{key.Group, key.Subject, key.Day}], v)
}

// buildVariables enumerates the structurally valid (day, slot, room,
// instructor) combinations per requirement. Infeasible combinations are
// never created: capacity, lab-room kind, teachable-subject membership, and
// declared instructor/room unavailability all filter the cross product up
// front.
func buildVariables(m *cpmodel.Model, request *schema.Request, idx *entityIndex) (*variableSpace, error) {
	space := newVariableSpace()

	instructorBlocked := blockedCells(request.Instructors, func(i schema.Instructor) (string, []schema.SlotRef) {
		return i.ID, i.UnavailableSlots
	})
	roomBlocked := blockedCells(request.Rooms, func(r schema.Room) (string, []schema.SlotRef) {
		return r.ID, r.UnavailableSlots
	})

	for gi := range request.Groups {
		group := &request.Groups[gi]
		for _, requirement := range group.Requirements {
			subject, err := idx.subject(requirement.SubjectID)
			if err != nil {
				return nil, err
			}

			qualified, err := qualifiedInstructors(request, idx, subject, requirement)
			if err != nil {
				return nil, err
			}
			suitable := suitableRooms(request, group, subject)

			if len(qualified) == 0 || len(suitable) == 0 {
				space.skipped = append(space.skipped, fmt.Sprintf("%s/%s", group.ID, subject.ID))
				continue
			}

			for _, day := range request.Days {
				for slot := 1; slot <= request.SlotsPerDay; slot++ {
					for _, room := range suitable {
						if roomBlocked[cellKey{room.ID, day, slot}] {
							continue
						}
						for _, instructor := range qualified {
							if instructorBlocked[cellKey{instructor.ID, day, slot}] {
								continue
							}
							space.add(m, varKey{
								Group:      group.ID,
								Subject:    subject.ID,
								Day:        day,
								Slot:       slot,
								Room:       room.ID,
								Instructor: instructor.ID,
							})
						}
					}
				}
			}
		}
	}
	return space, nil
}

func qualifiedInstructors(request *schema.Request, idx *entityIndex, subject *schema.Subject, requirement schema.Requirement) ([]*schema.Instructor, error) {
	if requirement.InstructorID != "" {
		pinned, err := idx.instructor(requirement.InstructorID)
		if err != nil {
			return nil, err
		}
		return []*schema.Instructor{pinned}, nil
	}
	qualified := make([]*schema.Instructor, 0)
	for i := range request.Instructors {
		if lo.Contains(request.Instructors[i].SubjectIDs, subject.ID) {
			qualified = append(qualified, &request.Instructors[i])
		}
	}
	return qualified, nil
}

func suitableRooms(request *schema.Request, group *schema.StudentGroup, subject *schema.Subject) []*schema.Room {
	suitable := make([]*schema.Room, 0)
	for i := range request.Rooms {
		room := &request.Rooms[i]
		if room.Capacity < group.Size {
			continue
		}
		if subject.IsLab && room.Kind != schema.RoomLab {
			continue
		}
		suitable = append(suitable, room)
	}
	return suitable
}

func blockedCells[T any](items []T, extract func(T) (string, []schema.SlotRef)) map[cellKey]bool {
	blocked := make(map[cellKey]bool)
	for _, item := range items {
		id, refs := extract(item)
		for _, ref := range refs {
			blocked[cellKey{id, ref.Day, ref.Slot}] = true
		}
	}
	return blocked
}
