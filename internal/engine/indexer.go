package engine

import (
	"fmt"

	"timesolver/internal/schema"
)

// entityIndex holds id -> record lookups for the four entity kinds. Lookups
// are presence-checked: an unknown id is a hard failure, never a blank
// record leaking into output events.
type entityIndex struct {
	instructors map[string]*schema.Instructor
	rooms       map[string]*schema.Room
	subjects    map[string]*schema.Subject
	groups      map[string]*schema.StudentGroup
}

// buildIndex constructs the lookups and rejects dangling references before
// model construction proceeds.
func buildIndex(request *schema.Request) (*entityIndex, error) {
	index := &entityIndex{
		instructors: make(map[string]*schema.Instructor, len(request.Instructors)),
		rooms:       make(map[string]*schema.Room, len(request.Rooms)),
		subjects:    make(map[string]*schema.Subject, len(request.Subjects)),
		groups:      make(map[string]*schema.StudentGroup, len(request.Groups)),
	}
	for i := range request.Instructors {
		index.instructors[request.Instructors[i].ID] = &request.Instructors[i]
	}
	for i := range request.Rooms {
		index.rooms[request.Rooms[i].ID] = &request.Rooms[i]
	}
	for i := range request.Subjects {
		index.subjects[request.Subjects[i].ID] = &request.Subjects[i]
	}
	for i := range request.Groups {
		index.groups[request.Groups[i].ID] = &request.Groups[i]
	}

	for _, group := range request.Groups {
		for _, requirement := range group.Requirements {
			if _, ok := index.subjects[requirement.SubjectID]; !ok {
				return nil, fmt.Errorf("%w: group %s references unknown subject %s", ErrValidation, group.ID, requirement.SubjectID)
			}
			if requirement.InstructorID != "" {
				if _, ok := index.instructors[requirement.InstructorID]; !ok {
					return nil, fmt.Errorf("%w: group %s pins unknown instructor %s", ErrValidation, group.ID, requirement.InstructorID)
				}
			}
		}
	}
	for _, fixed := range request.FixedAssignments {
		if _, ok := index.groups[fixed.GroupID]; !ok {
			return nil, fmt.Errorf("%w: fixed assignment references unknown group %s", ErrValidation, fixed.GroupID)
		}
		if _, ok := index.subjects[fixed.SubjectID]; !ok {
			return nil, fmt.Errorf("%w: fixed assignment references unknown subject %s", ErrValidation, fixed.SubjectID)
		}
		if fixed.InstructorID != "" {
			if _, ok := index.instructors[fixed.InstructorID]; !ok {
				return nil, fmt.Errorf("%w: fixed assignment references unknown instructor %s", ErrValidation, fixed.InstructorID)
			}
		}
		if fixed.RoomID != "" {
			if _, ok := index.rooms[fixed.RoomID]; !ok {
				return nil, fmt.Errorf("%w: fixed assignment references unknown room %s", ErrValidation, fixed.RoomID)
			}
		}
	}
	return index, nil
}

func (idx *entityIndex) instructor(id string) (*schema.Instructor, error) {
	record, ok := idx.instructors[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown instructor %s", ErrValidation, id)
	}
	return record, nil
}

func (idx *entityIndex) subject(id string) (*schema.Subject, error) {
	record, ok := idx.subjects[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown subject %s", ErrValidation, id)
	}
	return record, nil
}
