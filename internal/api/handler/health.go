package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// QueueDepther reports how many batch messages are waiting on the
// transport.
type QueueDepther interface {
	Size(ctx context.Context) (int64, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	queue QueueDepther
}

// NewHealthHandler creates a new health handler. A nil queue omits the
// depth readout.
func NewHealthHandler(queue QueueDepther) *HealthHandler {
	return &HealthHandler{queue: queue}
}

// Health returns the health status of the service, including the current
// queue depth when the transport is reachable.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.queue != nil {
		if depth, err := h.queue.Size(c.Request.Context()); err == nil {
			resp["queue_depth"] = depth
		}
	}
	c.JSON(http.StatusOK, resp)
}
