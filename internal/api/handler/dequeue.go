package handler

import (
	"errors"
	"net/http"

	"github.com/Tandez/vectorflow/internal/queue"
	"github.com/gin-gonic/gin"
)

// DequeueHandler exposes a manual pop-one-message operation for inspection
// and testing. It is not part of the ingestion contract; production
// consumers read the transport directly.
type DequeueHandler struct {
	consumer queue.Consumer
}

// NewDequeueHandler creates a new dequeue handler.
func NewDequeueHandler(consumer queue.Consumer) *DequeueHandler {
	return &DequeueHandler{consumer: consumer}
}

// Dequeue handles GET /dequeue.
func (h *DequeueHandler) Dequeue(c *gin.Context) {
	msg, err := h.consumer.Pop(c.Request.Context())
	if err != nil {
		if errors.Is(err, queue.ErrEmptyQueue) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No jobs in queue"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read from queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id":    msg.BatchID,
		"source_data": msg.Chunk,
	})
}
