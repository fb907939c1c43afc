package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timesolver/internal/engine"
	"timesolver/internal/schema"
)

// Runner executes submitted requests on background goroutines and records
// every state transition in the store. Cancellation is best-effort: the
// solver is interrupted at its next deadline check, and a job that reaches
// a terminal state first keeps that state.
type Runner struct {
	engine *engine.Engine
	store  Store
	logger *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewRunner(eng *engine.Engine, store Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:  eng,
		store:   store,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Submit registers the request as a pending job and starts solving it in
// the background. The returned id is immediately pollable.
func (r *Runner) Submit(ctx context.Context, request *schema.Request) (string, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    schema.StatusPending,
		Request:   request,
		Submitted: time.Now(),
	}
	if err := r.store.Put(ctx, job); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	go r.run(runCtx, job)
	return job.ID, nil
}

// Cancel requests interruption of a running job. Jobs already in a terminal
// state are left untouched.
func (r *Runner) Cancel(ctx context.Context, id string) error {
	job, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return nil
	}

	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}

	job.Status = schema.StatusCancelled
	job.Finished = time.Now()
	return r.store.Put(ctx, job)
}

func (r *Runner) run(ctx context.Context, job *Job) {
	defer func() {
		r.mu.Lock()
		if cancel, ok := r.cancels[job.ID]; ok {
			cancel()
			delete(r.cancels, job.ID)
		}
		r.mu.Unlock()
	}()

	job.Status = schema.StatusRunning
	job.Started = time.Now()
	if err := r.store.Put(ctx, job); err != nil {
		r.logger.Error("job transition not stored", zap.String("job_id", job.ID), zap.Error(err))
	}

	result, err := r.engine.Solve(ctx, job.Request)
	job.Finished = time.Now()
	switch {
	case ctx.Err() != nil:
		job.Status = schema.StatusCancelled
	case err != nil:
		job.Status = schema.StatusError
		job.Error = err.Error()
	default:
		job.Status = result.Status
		job.Result = result
	}

	if r.cancelled(job.ID) {
		return
	}
	if err := r.store.Put(context.Background(), job); err != nil {
		r.logger.Error("job result not stored", zap.String("job_id", job.ID), zap.Error(err))
	}
	r.logger.Info("job finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
	)
}

// cancelled reports whether Cancel already recorded a terminal state that
// the finishing goroutine must not overwrite.
func (r *Runner) cancelled(id string) bool {
	stored, err := r.store.Get(context.Background(), id)
	return err == nil && stored.Status == schema.StatusCancelled
}
