package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Day string

const (
	Mon Day = "Mon"
	Tue Day = "Tue"
	Wed Day = "Wed"
	Thu Day = "Thu"
	Fri Day = "Fri"
	Sat Day = "Sat"
)

// Weekdays is the default teaching week.
var Weekdays = []Day{Mon, Tue, Wed, Thu, Fri, Sat}

type RoomKind string

const (
	RoomLecture RoomKind = "lecture"
	RoomLab     RoomKind = "lab"
	RoomSeminar RoomKind = "seminar"
)

type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
)

// SlotRef points at one (day, slot) cell of the weekly grid. Slots are 1-based.
type SlotRef struct {
	Day  Day `json:"day" validate:"required"`
	Slot int `json:"slot" validate:"min=1"`
}

// InstructorPreferences are informational hints; only PreferredSlots feeds
// the decoded metrics, the rest is carried for callers.
type InstructorPreferences struct {
	PreferredSlots   []SlotRef `json:"preferred_slots"`
	AvoidConsecutive bool      `json:"avoid_consecutive"`
	PreferMorning    bool      `json:"prefer_morning"`
}

type Instructor struct {
	ID               string                 `json:"id" validate:"required"`
	Name             string                 `json:"name"`
	SubjectIDs       []string               `json:"subject_ids"`
	MaxDailyClasses  int                    `json:"max_daily_classes" validate:"omitempty,min=1,max=8"`
	MaxWeeklyClasses int                    `json:"max_weekly_classes" validate:"omitempty,min=1,max=35"`
	UnavailableSlots []SlotRef              `json:"unavailable_slots"`
	Preferences      *InstructorPreferences `json:"preferences,omitempty"`
}

type Room struct {
	ID               string    `json:"id" validate:"required"`
	Code             string    `json:"code"`
	Capacity         int       `json:"capacity" validate:"min=1"`
	Kind             RoomKind  `json:"kind" validate:"omitempty,oneof=lecture lab seminar"`
	UnavailableSlots []SlotRef `json:"unavailable_slots"`
}

type Subject struct {
	ID      string `json:"id" validate:"required"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	IsLab   bool   `json:"is_lab"`
	Credits int    `json:"credits"`
}

// Requirement asks for a weekly number of classes of one subject for the
// enclosing group, optionally pinned to a single instructor.
type Requirement struct {
	SubjectID      string `json:"subject_id" validate:"required"`
	ClassesPerWeek int    `json:"classes_per_week" validate:"min=1,max=10"`
	InstructorID   string `json:"instructor_id"`
}

type StudentGroup struct {
	ID           string        `json:"id" validate:"required"`
	Code         string        `json:"code"`
	Size         int           `json:"size" validate:"min=1"`
	Shift        Shift         `json:"shift" validate:"omitempty,oneof=morning afternoon"`
	Requirements []Requirement `json:"requirements" validate:"dive"`
}

// FixedAssignment pins a (group, subject) class to a (day, slot) cell and,
// when given, to a specific instructor and/or room. It must be honored exactly.
type FixedAssignment struct {
	GroupID      string `json:"group_id" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	InstructorID string `json:"instructor_id"`
	RoomID       string `json:"room_id"`
	Day          Day    `json:"day" validate:"required"`
	Slot         int    `json:"slot" validate:"min=1"`
}

// SoftRule is one enabled/weight toggle. Weights are bounded 1..10.
type SoftRule struct {
	Enabled bool `json:"enabled"`
	Weight  int  `json:"weight" validate:"omitempty,min=1,max=10"`
}

type SoftRules struct {
	InstructorLoadBalance SoftRule `json:"instructor_load_balance"`
	AvoidBackToBack       SoftRule `json:"avoid_back_to_back"`
	GroupDailyLoad        SoftRule `json:"group_daily_load"`
	EvenDistribution      SoftRule `json:"even_distribution"`
	MinimizeIdleGaps      SoftRule `json:"minimize_idle_gaps"`
}

type HardRules struct {
	MaxDailyClassesPerGroup int `json:"max_daily_classes_per_group" validate:"omitempty,min=1"`
}

type Constraints struct {
	Hard HardRules `json:"hard"`
	Soft SoftRules `json:"soft"`
}

type SolverConfig struct {
	TimeLimitSeconds int `json:"time_limit_seconds" validate:"omitempty,min=1,max=3600"`
	Workers          int `json:"workers" validate:"omitempty,min=1,max=8"`
	MaxSolutions     int `json:"max_solutions" validate:"omitempty,min=1,max=10"`
}

// Request is the full input of one solve. All entities are read-only
// snapshots; nothing here is mutated by the engine.
type Request struct {
	Instructors      []Instructor      `json:"instructors" validate:"dive"`
	Rooms            []Room            `json:"rooms" validate:"dive"`
	Subjects         []Subject         `json:"subjects" validate:"dive"`
	Groups           []StudentGroup    `json:"groups" validate:"required,dive"`
	Days             []Day             `json:"days" validate:"omitempty,dive,oneof=Mon Tue Wed Thu Fri Sat"`
	SlotsPerDay      int               `json:"slots_per_day" validate:"omitempty,min=1,max=10"`
	Constraints      Constraints       `json:"constraints"`
	FixedAssignments []FixedAssignment `json:"fixed_assignments" validate:"dive"`
	Config           SolverConfig      `json:"config"`
}

// Defaults mirroring the original service configuration.
const (
	DefaultSlotsPerDay         = 6
	DefaultMaxDailyClasses     = 6
	DefaultTimeLimitSeconds    = 300
	DefaultWorkers             = 4
	DefaultMaxSolutions        = 5
	DefaultInstructorDailyMax  = 4
	DefaultInstructorWeeklyMax = 20
)

// ApplyDefaults fills zero-valued knobs in place. Safe to call repeatedly.
func (r *Request) ApplyDefaults() {
	if len(r.Days) == 0 {
		r.Days = append([]Day(nil), Weekdays...)
	}
	if r.SlotsPerDay == 0 {
		r.SlotsPerDay = DefaultSlotsPerDay
	}
	if r.Constraints.Hard.MaxDailyClassesPerGroup == 0 {
		r.Constraints.Hard.MaxDailyClassesPerGroup = DefaultMaxDailyClasses
	}
	if r.Config.TimeLimitSeconds == 0 {
		r.Config.TimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if r.Config.Workers == 0 {
		r.Config.Workers = DefaultWorkers
	}
	if r.Config.MaxSolutions == 0 {
		r.Config.MaxSolutions = DefaultMaxSolutions
	}
	for i := range r.Instructors {
		if r.Instructors[i].MaxDailyClasses == 0 {
			r.Instructors[i].MaxDailyClasses = DefaultInstructorDailyMax
		}
		if r.Instructors[i].MaxWeeklyClasses == 0 {
			r.Instructors[i].MaxWeeklyClasses = DefaultInstructorWeeklyMax
		}
	}
	normalizeSoft(&r.Constraints.Soft)
}

func normalizeSoft(s *SoftRules) {
	for _, rule := range []*SoftRule{
		&s.InstructorLoadBalance,
		&s.AvoidBackToBack,
		&s.GroupDailyLoad,
		&s.EvenDistribution,
		&s.MinimizeIdleGaps,
	} {
		if rule.Enabled && rule.Weight == 0 {
			rule.Weight = 5
		}
	}
}

var validate = validator.New()

// Validate checks structural bounds (ids present, weights 1..10, slot
// ranges) and that each group lists a subject at most once. Cross-entity
// reference checks live in the engine's indexer.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	for _, group := range r.Groups {
		seen := make(map[string]struct{}, len(group.Requirements))
		for _, requirement := range group.Requirements {
			if _, ok := seen[requirement.SubjectID]; ok {
				return fmt.Errorf("group %s: duplicate requirement for subject %s", group.ID, requirement.SubjectID)
			}
			seen[requirement.SubjectID] = struct{}{}
		}
	}
	return nil
}
