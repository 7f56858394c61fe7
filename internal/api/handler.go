// Package api implements the producer-facing HTTP surface: task
// creation, lookup, event history and queue statistics. Wired here so
// the repository runs end to end. Grounded on the teacher's internal/api
// package,
// generalized from the teacher's fixed Name/Type/Payload task shape to
// the full ScheduledTask record (priority, handler reference, recurrence
// window, continue-flags, tags).
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/amitbasuri/taskrunner/internal/storage"
)

// Handler serves the task-producer HTTP API.
type Handler struct {
	store storage.Store
}

// NewHandler returns a Handler backed by store.
func NewHandler(store storage.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers every API route on r, mirroring the teacher's
// internal/api.Handler.RegisterRoutes route grouping.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/tasks", h.CreateTask)
		api.GET("/tasks/:id", h.GetTask)
		api.GET("/tasks/:id/events", h.GetTaskEvents)
		api.GET("/stats", h.GetStats)
		api.GET("/tasks/stream", h.StreamStats)
	}
}

// Health reports process liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "healthy"})
}
