package handlers

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// RunQueryHandlerName is the qualified name this handler registers under
// ("db.run_query").
const RunQueryHandlerName = "db.run_query"

// RunQueryHandler simulates executing a database query. Query is
// populated from the task's HandlerReference.InstancePayload.
type RunQueryHandler struct {
	Query string `json:"query"`

	lastErr error
}

// Before rejects an empty query before Perform runs.
func (h *RunQueryHandler) Before() bool {
	if h.Query == "" {
		h.lastErr = fmt.Errorf("run_query: missing required field: query")
		return false
	}
	return true
}

// Perform simulates running the query: 20% regular failure, 80% success,
// mirroring the teacher's RunQueryHandler.Execute failure distribution
// (the teacher's additional 20% "timeout" bucket is represented here by
// the engine's own MaximumRuntime deadline rather than a handler-local
// sleep, since this handler has no ctx to observe).
func (h *RunQueryHandler) Perform() bool {
	slog.Info("running query", "query", h.Query, "length", len(h.Query))
	if rand.Intn(5) == 0 {
		h.lastErr = fmt.Errorf("query execution failed: database connection error")
		return false
	}
	return true
}

// Failure logs that this attempt is terminally failing.
func (h *RunQueryHandler) Failure() {
	slog.Warn("run_query: terminal failure", "query", h.Query, "error", h.lastErr)
}
