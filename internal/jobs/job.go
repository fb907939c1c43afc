// Package jobs tracks asynchronous solve requests: submission, state
// transitions, result retention, and best-effort cancellation.
package jobs

import (
	"context"
	"errors"
	"time"

	"timesolver/internal/schema"
)

// ErrNotFound is returned for unknown or expired job ids.
var ErrNotFound = errors.New("job not found")

// Job is one tracked solve. Terminal jobs keep their result until the
// store's retention window expires.
type Job struct {
	ID        string          `json:"id"`
	Status    schema.Status   `json:"status"`
	Request   *schema.Request `json:"request,omitempty"`
	Result    *schema.Result  `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Submitted time.Time       `json:"submitted"`
	Started   time.Time       `json:"started,omitempty"`
	Finished  time.Time       `json:"finished,omitempty"`
}

// Progress snapshots the job for status polling.
func (j *Job) Progress() schema.Progress {
	progress := schema.Progress{
		JobID:  j.ID,
		Status: j.Status,
	}
	switch {
	case j.Status == schema.StatusPending:
		progress.ProgressPercent = 0
	case j.Status == schema.StatusRunning:
		progress.ProgressPercent = 50
	default:
		progress.ProgressPercent = 100
	}
	if j.Result != nil {
		progress.SolutionsFound = len(j.Result.Solutions)
	}
	if !j.Started.IsZero() {
		end := j.Finished
		if end.IsZero() {
			end = time.Now()
		}
		progress.ElapsedSeconds = end.Sub(j.Started).Seconds()
	}
	return progress
}

// Store persists jobs for the retention window. Implementations must be
// safe for concurrent use.
type Store interface {
	Put(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Delete(ctx context.Context, id string) error
}
