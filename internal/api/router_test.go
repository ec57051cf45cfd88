package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Tandez/vectorflow/internal/api/handler"
	"github.com/Tandez/vectorflow/internal/api/middleware"
	"github.com/Tandez/vectorflow/internal/auth"
	"github.com/Tandez/vectorflow/internal/domain"
	"github.com/Tandez/vectorflow/internal/extract"
	"github.com/Tandez/vectorflow/internal/queue"
	"github.com/Tandez/vectorflow/internal/repository"
	"github.com/Tandez/vectorflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-internal-key"

type memStore struct {
	mu         sync.Mutex
	jobs       []*domain.Job
	batches    []*domain.Batch
	dispatched []uint
}

func (s *memStore) CreateJobWithBatches(ctx context.Context, job *domain.Job, batches []*domain.Batch, chunks [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.ID = uint(len(s.jobs) + 1)
	job.Status = domain.JobStatusNotStarted
	job.TotalBatches = len(batches)
	for i, b := range batches {
		b.ID = uint(len(s.batches) + i + 1)
		b.JobID = job.ID
	}
	s.jobs = append(s.jobs, job)
	s.batches = append(s.batches, batches...)
	return nil
}

func (s *memStore) MarkDispatched(ctx context.Context, batchIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, batchIDs...)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uint) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, repository.ErrJobNotFound
}

// memQueue is an in-memory Queue for handler tests.
type memQueue struct {
	mu       sync.Mutex
	messages []queue.Message
}

func (q *memQueue) Publish(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return nil
}

func (q *memQueue) Pop(ctx context.Context) (*queue.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return nil, queue.ErrEmptyQueue
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	return &msg, nil
}

func (q *memQueue) Size(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.messages)), nil
}

func (q *memQueue) Close() error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *memStore, *memQueue) {
	t.Helper()

	store := &memStore{}
	q := &memQueue{}

	ingestService, err := service.NewIngestService(store, q, nil, &service.IngestConfig{DispatchWorkers: 2})
	require.NoError(t, err)
	t.Cleanup(ingestService.Close)

	router := SetupRouter(
		ingestService,
		service.NewStatusService(store),
		q,
		extract.NewFileExtractor(),
		RouterConfig{
			Mode:      "test",
			CORS:      middleware.CORSConfig{AllowAllOrigins: true},
			Validator: auth.NewStaticValidator(testAPIKey),
			Embed:     handler.EmbedConfig{},
		},
	)
	return router, store, q
}

type embedForm struct {
	webhookURL         string
	embeddingsMetadata string
	vectorDBMetadata   string
	linesPerBatch      string
	filename           string
	fileContent        string
	omitFile           bool
}

func defaultEmbedForm() embedForm {
	return embedForm{
		webhookURL:         "https://example.com/hook",
		embeddingsMetadata: `{"embeddings_type": "open_ai", "chunk_size": 256, "chunk_overlap": 32}`,
		vectorDBMetadata:   `{"vector_db_type": "pinecone", "index_name": "docs", "environment": "us-east-1"}`,
		linesPerBatch:      "2",
		filename:           "doc.txt",
		fileContent:        "a\nb\nc\nd\ne",
	}
}

func buildEmbedRequest(t *testing.T, form embedForm, headers map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if form.webhookURL != "" {
		require.NoError(t, writer.WriteField("WebhookURL", form.webhookURL))
	}
	if form.embeddingsMetadata != "" {
		require.NoError(t, writer.WriteField("EmbeddingsMetadata", form.embeddingsMetadata))
	}
	if form.vectorDBMetadata != "" {
		require.NoError(t, writer.WriteField("VectorDBMetadata", form.vectorDBMetadata))
	}
	if form.linesPerBatch != "" {
		require.NoError(t, writer.WriteField("LinesPerBatch", form.linesPerBatch))
	}
	if !form.omitFile {
		part, err := writer.CreateFormFile("SourceData", form.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(form.fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/embed", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestEmbedSuccess(t *testing.T) {
	router, store, q := newTestRouter(t)

	req := buildEmbedRequest(t, defaultEmbedForm(), map[string]string{
		"Authorization":               testAPIKey,
		handler.VectorDBKeyHeader:     "vdb-secret",
		handler.EmbeddingAPIKeyHeader: "emb-secret",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Message string `json:"message"`
		JobID   uint   `json:"JobID"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Successfully added 3 batches to the queue", resp.Message)
	assert.Equal(t, uint(1), resp.JobID)

	require.Len(t, store.jobs, 1)
	assert.Equal(t, 3, store.jobs[0].TotalBatches)
	require.Len(t, q.messages, 3)

	// secrets ride the messages
	for _, msg := range q.messages {
		assert.Equal(t, "vdb-secret", msg.VectorDBKey)
		assert.Equal(t, "emb-secret", msg.EmbeddingAPIKey)
	}
}

func TestEmbedMissingCredentials(t *testing.T) {
	router, store, q := newTestRouter(t)

	req := buildEmbedRequest(t, defaultEmbedForm(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// no side effects at all: no job, no batch, no publish
	assert.Empty(t, store.jobs)
	assert.Empty(t, store.batches)
	assert.Empty(t, q.messages)
}

func TestEmbedWrongCredentials(t *testing.T) {
	router, store, _ := newTestRouter(t)

	req := buildEmbedRequest(t, defaultEmbedForm(), map[string]string{"Authorization": "wrong"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.jobs)
}

func TestEmbedVendorHeaderAccepted(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := buildEmbedRequest(t, defaultEmbedForm(), map[string]string{middleware.VendorKeyHeader: testAPIKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestEmbedUnsupportedFileType(t *testing.T) {
	router, store, q := newTestRouter(t)

	form := defaultEmbedForm()
	form.filename = "data.csv"
	req := buildEmbedRequest(t, form, map[string]string{"Authorization": testAPIKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.jobs, "no job may be created for an unsupported file")
	assert.Empty(t, q.messages)
}

func TestEmbedMissingMetadata(t *testing.T) {
	router, store, _ := newTestRouter(t)

	form := defaultEmbedForm()
	form.embeddingsMetadata = ""
	req := buildEmbedRequest(t, form, map[string]string{"Authorization": testAPIKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.jobs)
}

func TestEmbedInvalidMetadataEnum(t *testing.T) {
	router, store, _ := newTestRouter(t)

	form := defaultEmbedForm()
	form.embeddingsMetadata = `{"embeddings_type": "telepathy", "chunk_size": 256, "chunk_overlap": 0}`
	req := buildEmbedRequest(t, form, map[string]string{"Authorization": testAPIKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.jobs)
}

func TestEmbedMissingFile(t *testing.T) {
	router, store, _ := newTestRouter(t)

	form := defaultEmbedForm()
	form.omitFile = true
	req := buildEmbedRequest(t, form, map[string]string{"Authorization": testAPIKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.jobs)
}

func TestEmbedEmptyDocument(t *testing.T) {
	router, store, q := newTestRouter(t)

	form := defaultEmbedForm()
	form.fileContent = ""
	req := buildEmbedRequest(t, form, map[string]string{"Authorization": testAPIKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Successfully added 0 batches")
	require.Len(t, store.jobs, 1)
	assert.Equal(t, 0, store.jobs[0].TotalBatches)
	assert.Empty(t, q.messages)
}

func TestJobStatus(t *testing.T) {
	router, store, _ := newTestRouter(t)

	// seed a job through the embed endpoint
	req := buildEmbedRequest(t, defaultEmbedForm(), map[string]string{"Authorization": testAPIKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.jobs, 1)

	statusReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%d/status", store.jobs[0].ID), nil)
	statusReq.Header.Set("Authorization", testAPIKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, statusReq)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"JobStatus": "not_started"}`, rec.Body.String())
}

func TestJobStatusUnknownJob(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/jobs/999/status", "/jobs/abc/status"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", testAPIKey)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "path %s", path)
	}
}

func TestJobStatusRequiresCredentials(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs/1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDequeue(t *testing.T) {
	router, _, q := newTestRouter(t)

	// empty queue first
	req := httptest.NewRequest(http.MethodGet, "/dequeue", nil)
	req.Header.Set("Authorization", testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// seed a batch and pop it back
	embedReq := buildEmbedRequest(t, defaultEmbedForm(), map[string]string{"Authorization": testAPIKey})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, embedReq)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, q.messages)

	req = httptest.NewRequest(http.MethodGet, "/dequeue", nil)
	req.Header.Set("Authorization", testAPIKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		BatchID    uint     `json:"batch_id"`
		SourceData []string `json:"source_data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.BatchID)
	assert.NotEmpty(t, resp.SourceData)
}

func TestHealthNeedsNoCredentials(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "queue_depth": 0}`, rec.Body.String())
}
