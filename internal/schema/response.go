package schema

// Status is the request-level state machine:
// pending -> running -> {optimal, feasible, infeasible, timeout, error, cancelled}.
// Terminal states are final for a given request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusOptimal, StatusFeasible, StatusInfeasible, StatusTimeout, StatusError, StatusCancelled:
		return true
	}
	return false
}

// Event is one scheduled class of the decoded timetable.
type Event struct {
	Day            Day    `json:"day"`
	Slot           int    `json:"slot"`
	GroupID        string `json:"group_id"`
	GroupCode      string `json:"group_code"`
	SubjectID      string `json:"subject_id"`
	SubjectCode    string `json:"subject_code"`
	InstructorID   string `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
	RoomID         string `json:"room_id"`
	RoomCode       string `json:"room_code"`
	Fixed          bool   `json:"is_fixed"`
}

// Metrics are informational quality measures derived from the decoded
// events; they do not feed back into solving.
type Metrics struct {
	InstructorLoadVariance  float64 `json:"instructor_load_variance"`
	RoomUtilizationPercent  float64 `json:"room_utilization_percent"`
	AvgDailyClassesPerGroup float64 `json:"avg_daily_classes_per_group"`
	InstructorIdleGaps      int     `json:"instructor_idle_gaps"`
	PreferredSlotHits       int     `json:"classes_in_preferred_slots"`
}

type Solution struct {
	Score      float64        `json:"score"`
	Events     []Event        `json:"events"`
	Violations map[string]int `json:"violations"`
	Metrics    Metrics        `json:"metrics"`
}

// Result is the structured outcome of one solve request.
type Result struct {
	Status            Status         `json:"status"`
	Message           string         `json:"message"`
	SolveTimeSeconds  float64        `json:"solve_time_seconds"`
	Solutions         []Solution     `json:"solutions"`
	BestSolutionIndex int            `json:"best_solution_index"`
	Statistics        map[string]any `json:"statistics"`
}

// Progress is a point-in-time snapshot of an asynchronous job.
type Progress struct {
	JobID           string  `json:"job_id"`
	ProgressPercent int     `json:"progress_percent"`
	SolutionsFound  int     `json:"solutions_found"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	Status          Status  `json:"status"`
}
