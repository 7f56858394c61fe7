package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		slog.Error("failed to get stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// StreamStats streams queue statistics over Server-Sent Events, unchanged
// in shape from the teacher's StreamTasks.
func (h *Handler) StreamStats(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := h.store.GetStats(context.Background())
			if err != nil {
				slog.Error("failed to get stats for SSE", "error", err)
				continue
			}
			data, err := json.Marshal(stats)
			if err != nil {
				slog.Error("failed to marshal stats", "error", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: stats\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
