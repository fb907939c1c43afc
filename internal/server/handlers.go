package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timesolver/internal/config"
	"timesolver/internal/engine"
	"timesolver/internal/jobs"
	"timesolver/internal/schema"
)

// Handler wires the engine and the job runner into the HTTP surface.
type Handler struct {
	cfg    *config.Config
	engine *engine.Engine
	runner *jobs.Runner
	store  jobs.Store
	logger *zap.Logger
}

func NewHandler(cfg *config.Config, eng *engine.Engine, runner *jobs.Runner, store jobs.Store, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, engine: eng, runner: runner, store: store, logger: logger}
}

// clampSolverConfig caps per-request solver knobs at the server limits.
func (h *Handler) clampSolverConfig(request *schema.Request) {
	maxSeconds := int(h.cfg.Solver.MaxTimeLimit.Seconds())
	if maxSeconds > 0 && request.Config.TimeLimitSeconds > maxSeconds {
		request.Config.TimeLimitSeconds = maxSeconds
	}
	if h.cfg.Solver.MaxWorkers > 0 && request.Config.Workers > h.cfg.Solver.MaxWorkers {
		request.Config.Workers = h.cfg.Solver.MaxWorkers
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type jobAccepted struct {
	JobID  string        `json:"job_id"`
	Status schema.Status `json:"status"`
}

// Solve runs the request synchronously and returns the full result.
func (h *Handler) Solve(c *gin.Context) {
	request := &schema.Request{}
	if err := c.ShouldBindJSON(request); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	h.clampSolverConfig(request)

	start := time.Now()
	result, err := h.engine.Solve(c.Request.Context(), request)
	solveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		solvesTotal.WithLabelValues(string(schema.StatusError)).Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrValidation) || errors.Is(err, engine.ErrEmptyModel) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, errorBody{Error: err.Error()})
		return
	}

	solvesTotal.WithLabelValues(string(result.Status)).Inc()
	c.JSON(http.StatusOK, result)
}

// SolveAsync accepts the request and returns a pollable job id.
func (h *Handler) SolveAsync(c *gin.Context) {
	request := &schema.Request{}
	if err := c.ShouldBindJSON(request); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	h.clampSolverConfig(request)

	id, err := h.runner.Submit(c.Request.Context(), request)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	jobsSubmitted.Inc()
	c.JSON(http.StatusAccepted, jobAccepted{JobID: id, Status: schema.StatusPending})
}

// Status returns the progress snapshot of a job.
func (h *Handler) Status(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job.Progress())
}

// Result returns the solve result once the job is terminal, 202 with the
// progress snapshot while it is still running.
func (h *Handler) Result(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	if !job.Status.Terminal() {
		c.JSON(http.StatusAccepted, job.Progress())
		return
	}
	if job.Result == nil {
		c.JSON(http.StatusOK, schema.Result{Status: job.Status, Message: job.Error})
		return
	}
	c.JSON(http.StatusOK, job.Result)
}

// Cancel requests best-effort interruption of a running job.
func (h *Handler) Cancel(c *gin.Context) {
	err := h.runner.Cancel(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": c.Param("id"), "status": schema.StatusCancelled})
}

// Validate checks a request without solving it: structural validation plus
// cross-entity diagnostics.
func (h *Handler) Validate(c *gin.Context) {
	request := &schema.Request{}
	if err := c.ShouldBindJSON(request); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	request.ApplyDefaults()
	if err := request.Validate(); err != nil {
		c.JSON(http.StatusOK, schema.Diagnostics{Valid: false, Issues: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, schema.Diagnose(request))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) lookup(c *gin.Context) (*jobs.Job, bool) {
	job, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: "job not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return nil, false
	}
	return job, true
}
