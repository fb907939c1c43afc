package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timesolver/internal/engine"
	"timesolver/internal/schema"
)

func quickRequest() *schema.Request {
	return &schema.Request{
		Instructors: []schema.Instructor{{ID: "i1", SubjectIDs: []string{"s1"}}},
		Rooms:       []schema.Room{{ID: "r1", Capacity: 30}},
		Subjects:    []schema.Subject{{ID: "s1"}},
		Groups: []schema.StudentGroup{{ID: "g1", Size: 20, Requirements: []schema.Requirement{
			{SubjectID: "s1", ClassesPerWeek: 2},
		}}},
		Days:        []schema.Day{schema.Mon},
		SlotsPerDay: 3,
		Config:      schema.SolverConfig{TimeLimitSeconds: 30, Workers: 2},
	}
}

// slowRequest over-fills the weekly grid: proving infeasibility needs an
// exhaustive search that cannot finish quickly, which keeps the job running
// long enough to cancel it.
func slowRequest() *schema.Request {
	subjects := []schema.Subject{}
	requirements := []schema.Requirement{}
	subjectIDs := []string{}
	for _, id := range []string{"s1", "s2", "s3", "s4"} {
		subjects = append(subjects, schema.Subject{ID: id})
		requirements = append(requirements, schema.Requirement{SubjectID: id, ClassesPerWeek: 8})
		subjectIDs = append(subjectIDs, id)
	}
	instructors := []schema.Instructor{}
	for _, id := range []string{"i1", "i2", "i3", "i4", "i5"} {
		instructors = append(instructors, schema.Instructor{ID: id, SubjectIDs: subjectIDs, MaxDailyClasses: 8, MaxWeeklyClasses: 35})
	}
	return &schema.Request{
		Instructors: instructors,
		Rooms:       []schema.Room{{ID: "r1", Capacity: 30}, {ID: "r2", Capacity: 30}},
		Subjects:    subjects,
		Groups:      []schema.StudentGroup{{ID: "g1", Size: 20, Requirements: requirements}},
		Days:        []schema.Day{schema.Mon, schema.Tue, schema.Wed, schema.Thu, schema.Fri},
		SlotsPerDay: 6,
		Constraints: schema.Constraints{Hard: schema.HardRules{MaxDailyClassesPerGroup: 6}},
		Config:      schema.SolverConfig{TimeLimitSeconds: 120, Workers: 2},
	}
}

func awaitTerminal(t *testing.T, store Store, id string) *Job {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job never reached a terminal state")
			return nil
		case <-time.After(10 * time.Millisecond):
		}
		job, err := store.Get(context.Background(), id)
		assert.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
	}
}

func TestMemoryStore(t *testing.T) {
	t.Run("round-trips jobs", func(t *testing.T) {
		// Arrange
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		job := &Job{ID: "j1", Status: schema.StatusPending, Submitted: time.Now()}

		// Act
		assert.NoError(t, store.Put(context.Background(), job))
		loaded, err := store.Get(context.Background(), "j1")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, schema.StatusPending, loaded.Status)
	})

	t.Run("unknown id is ErrNotFound", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()

		_, err := store.Get(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("entries expire after the TTL", func(t *testing.T) {
		store := NewMemoryStore(20*time.Millisecond, 0)
		defer store.Close()
		assert.NoError(t, store.Put(context.Background(), &Job{ID: "j1"}))

		time.Sleep(40 * time.Millisecond)
		_, err := store.Get(context.Background(), "j1")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		assert.NoError(t, store.Put(context.Background(), &Job{ID: "j1", Status: schema.StatusPending}))

		loaded, _ := store.Get(context.Background(), "j1")
		loaded.Status = schema.StatusError
		reloaded, _ := store.Get(context.Background(), "j1")

		assert.Equal(t, schema.StatusPending, reloaded.Status)
	})

	t.Run("Delete removes the entry", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		assert.NoError(t, store.Put(context.Background(), &Job{ID: "j1"}))

		assert.NoError(t, store.Delete(context.Background(), "j1"))
		_, err := store.Get(context.Background(), "j1")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRunner(t *testing.T) {
	t.Run("runs a job to completion", func(t *testing.T) {
		// Arrange
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		runner := NewRunner(engine.New(nil, nil), store, nil)

		// Act
		id, err := runner.Submit(context.Background(), quickRequest())

		// Assert
		assert.NoError(t, err)
		job := awaitTerminal(t, store, id)
		assert.Equal(t, schema.StatusOptimal, job.Status)
		assert.NotNil(t, job.Result)
		assert.Len(t, job.Result.Solutions, 1)
	})

	t.Run("records engine errors", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		runner := NewRunner(engine.New(nil, nil), store, nil)
		request := quickRequest()
		request.Instructors[0].SubjectIDs = nil // nothing schedulable

		id, err := runner.Submit(context.Background(), request)

		assert.NoError(t, err)
		job := awaitTerminal(t, store, id)
		assert.Equal(t, schema.StatusError, job.Status)
		assert.Contains(t, job.Error, "empty model")
	})

	t.Run("cancels a running job", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		runner := NewRunner(engine.New(nil, nil), store, nil)

		id, err := runner.Submit(context.Background(), slowRequest())
		assert.NoError(t, err)
		assert.NoError(t, runner.Cancel(context.Background(), id))

		job := awaitTerminal(t, store, id)
		assert.Equal(t, schema.StatusCancelled, job.Status)
	})

	t.Run("cancel of an unknown job is ErrNotFound", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		runner := NewRunner(engine.New(nil, nil), store, nil)

		assert.ErrorIs(t, runner.Cancel(context.Background(), "missing"), ErrNotFound)
	})

	t.Run("cancel after completion keeps the terminal state", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, 0)
		defer store.Close()
		runner := NewRunner(engine.New(nil, nil), store, nil)

		id, err := runner.Submit(context.Background(), quickRequest())
		assert.NoError(t, err)
		awaitTerminal(t, store, id)
		assert.NoError(t, runner.Cancel(context.Background(), id))

		job, err := store.Get(context.Background(), id)
		assert.NoError(t, err)
		assert.Equal(t, schema.StatusOptimal, job.Status)
	})
}

func TestProgress(t *testing.T) {
	job := &Job{ID: "j1", Status: schema.StatusPending}
	assert.Equal(t, 0, job.Progress().ProgressPercent)

	job.Status = schema.StatusRunning
	job.Started = time.Now().Add(-2 * time.Second)
	progress := job.Progress()
	assert.Equal(t, 50, progress.ProgressPercent)
	assert.Greater(t, progress.ElapsedSeconds, 1.0)

	job.Status = schema.StatusOptimal
	job.Finished = time.Now()
	job.Result = &schema.Result{Solutions: []schema.Solution{{}}}
	progress = job.Progress()
	assert.Equal(t, 100, progress.ProgressPercent)
	assert.Equal(t, 1, progress.SolutionsFound)
}
