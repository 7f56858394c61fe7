package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/amitbasuri/taskrunner/internal/storage"
)

// CreateTask handles POST /api/tasks: persists a new ScheduledTask row
// for the poller to pick up. Generalized from the teacher's CreateTask,
// which only carried Name/Type/Payload, to the full ScheduledTask record.
func (h *Handler) CreateTask(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	task := requestToTask(req)

	if err := h.store.Save(c.Request.Context(), task); err != nil {
		slog.Error("failed to create task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	slog.Info("task created", "task_id", task.ID, "handler", task.Handler.QualifiedName(), "priority", task.Priority)

	c.JSON(http.StatusCreated, task)
}

func requestToTask(req models.CreateTaskRequest) *models.ScheduledTask {
	runAt := time.Now().UTC()
	if req.RunAt != nil {
		runAt = req.RunAt.UTC()
	}

	task := &models.ScheduledTask{
		Priority:          req.Priority,
		Handler:           req.Handler,
		RunAt:             runAt,
		MaximumAttempts:   req.MaximumAttempts,
		DeleteOnSuccess:   req.DeleteOnSuccess,
		DeleteOnFailure:   req.DeleteOnFailure,
		DeleteOnError:     req.DeleteOnError,
		Tags:              req.Tags,
		Expression:        req.Expression,
		Start:             runAt,
		End:               req.End,
		ContinueOnSuccess: true,
		ContinueOnFailure: true,
		ContinueOnError:   true,
	}
	if req.MaximumRuntimeSeconds > 0 {
		d := time.Duration(req.MaximumRuntimeSeconds) * time.Second
		task.MaximumRuntime = &d
	}
	if req.ContinueOnSuccess != nil {
		task.ContinueOnSuccess = *req.ContinueOnSuccess
	}
	if req.ContinueOnFailure != nil {
		task.ContinueOnFailure = *req.ContinueOnFailure
	}
	if req.ContinueOnError != nil {
		task.ContinueOnError = *req.ContinueOnError
	}
	return task
}

// GetTask handles GET /api/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		slog.Error("failed to get task", "task_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

func parseTaskID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, err
	}
	return id, nil
}
