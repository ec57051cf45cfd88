package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Tandez/vectorflow/internal/chunker"
	"github.com/Tandez/vectorflow/internal/domain"
	"github.com/Tandez/vectorflow/internal/extract"
	"github.com/Tandez/vectorflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Pass-through secret headers; forwarded to the queue message, never
// persisted.
const (
	VectorDBKeyHeader     = "X-VectorDB-Key"
	EmbeddingAPIKeyHeader = "X-EmbeddingAPI-Key"
)

// EmbedConfig holds request handling limits for the embed endpoint.
type EmbedConfig struct {
	MaxFileSizeMB  int
	RequestTimeout time.Duration
}

// EmbedHandler handles document ingestion requests.
type EmbedHandler struct {
	ingest    *service.IngestService
	extractor extract.Extractor
	validate  *validator.Validate
	cfg       EmbedConfig
}

// NewEmbedHandler creates a new embed handler.
// Parameters:
//   - ingest: ingestion orchestrator.
//   - extractor: document-to-text capability.
//   - cfg: request limits.
// Returns:
//   - *EmbedHandler: initialized handler.
func NewEmbedHandler(ingest *service.IngestService, extractor extract.Extractor, cfg EmbedConfig) *EmbedHandler {
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 25
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	return &EmbedHandler{
		ingest:    ingest,
		extractor: extractor,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

// Embed handles POST /embed. All validation happens before any store or
// queue interaction.
func (h *EmbedHandler) Embed(c *gin.Context) {
	params, ok := h.parseRequest(c)
	if !ok {
		return
	}

	text, ok := h.extractSource(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	result, err := h.ingest.Ingest(ctx, text, *params)
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully added %d batches to the queue", result.BatchCount),
		"JobID":   result.JobID,
	})
}

// parseRequest reads and validates the form fields and secret headers.
func (h *EmbedHandler) parseRequest(c *gin.Context) (*service.IngestParams, bool) {
	embeddingsJSON := c.PostForm("EmbeddingsMetadata")
	vectorDBJSON := c.PostForm("VectorDBMetadata")
	if embeddingsJSON == "" || vectorDBJSON == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return nil, false
	}

	var embeddingsMetadata domain.EmbeddingsMetadata
	if err := json.Unmarshal([]byte(embeddingsJSON), &embeddingsMetadata); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid EmbeddingsMetadata: " + err.Error()})
		return nil, false
	}
	var vectorDBMetadata domain.VectorDBMetadata
	if err := json.Unmarshal([]byte(vectorDBJSON), &vectorDBMetadata); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid VectorDBMetadata: " + err.Error()})
		return nil, false
	}

	if err := h.validate.Struct(embeddingsMetadata); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid EmbeddingsMetadata: " + err.Error()})
		return nil, false
	}
	if err := h.validate.Struct(vectorDBMetadata); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid VectorDBMetadata: " + err.Error()})
		return nil, false
	}

	linesPerBatch := 0
	if raw := c.PostForm("LinesPerBatch"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "LinesPerBatch must be a positive integer"})
			return nil, false
		}
		linesPerBatch = n
	}

	return &service.IngestParams{
		WebhookURL:         c.PostForm("WebhookURL"),
		EmbeddingsMetadata: embeddingsMetadata,
		VectorDBMetadata:   vectorDBMetadata,
		LinesPerBatch:      linesPerBatch,
		VectorDBKey:        c.GetHeader(VectorDBKeyHeader),
		EmbeddingAPIKey:    c.GetHeader(EmbeddingAPIKeyHeader),
	}, true
}

// extractSource reads the uploaded file part and converts it to text.
func (h *EmbedHandler) extractSource(c *gin.Context) (string, bool) {
	fileHeader, err := c.FormFile("SourceData")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file part in the request"})
		return "", false
	}
	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return "", false
	}

	maxBytes := int64(h.cfg.MaxFileSizeMB) << 20
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("File exceeds the %d MB limit", h.cfg.MaxFileSizeMB),
		})
		return "", false
	}

	if !h.extractor.Supports(fileHeader.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file must be a .txt or .pdf"})
		return "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return "", false
	}

	text, err := h.extractor.Extract(fileHeader.Filename, data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file must be a .txt or .pdf"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to extract text: " + err.Error()})
		}
		return "", false
	}
	return text, true
}

// writeIngestError maps orchestrator failures to HTTP responses. A
// dispatch failure still reports the committed JobID so callers can
// reconcile.
func (h *EmbedHandler) writeIngestError(c *gin.Context, err error) {
	var dispatchErr *service.DispatchError
	if errors.As(err, &dispatchErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": fmt.Sprintf("Job stored but %d of %d batches failed to dispatch", dispatchErr.Failed, dispatchErr.BatchCount),
			"JobID": dispatchErr.JobID,
		})
		return
	}
	if errors.Is(err, chunker.ErrInvalidLinesPerBatch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "LinesPerBatch must be a positive integer"})
		return
	}
	var persistErr *service.PersistenceError
	if errors.As(err, &persistErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store job"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion failed"})
}
