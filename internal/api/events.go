package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amitbasuri/taskrunner/internal/storage"
)

// GetTaskEvents handles GET /api/tasks/:id/events, the descendant of the
// teacher's GetTaskHistory adapted to the scheduled_task_events shape: a
// purely descriptive companion table with no bearing on scheduling.
func (h *Handler) GetTaskEvents(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		return
	}

	if _, err := h.store.GetTask(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		slog.Error("failed to verify task existence", "task_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve task"})
		return
	}

	events, err := h.store.GetEvents(c.Request.Context(), id)
	if err != nil {
		slog.Error("failed to get task events", "task_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve task events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
