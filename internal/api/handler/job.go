package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Tandez/vectorflow/internal/service"
	"github.com/gin-gonic/gin"
)

// JobHandler handles job status lookups.
type JobHandler struct {
	status *service.StatusService
}

// NewJobHandler creates a new job handler.
func NewJobHandler(status *service.StatusService) *JobHandler {
	return &JobHandler{status: status}
}

// GetStatus handles GET /jobs/:id/status. Non-numeric ids map to 404 the
// same as unknown ids.
func (h *JobHandler) GetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	status, err := h.status.GetJobStatus(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read job status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"JobStatus": status})
}
