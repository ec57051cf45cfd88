package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Tandez/vectorflow/internal/chunker"
	"github.com/Tandez/vectorflow/internal/domain"
	"github.com/Tandez/vectorflow/internal/logger"
	"github.com/Tandez/vectorflow/internal/queue"
	"github.com/panjf2000/ants/v2"
)

// IngestStore is the transactional persistence surface the orchestrator
// needs. *repository.IngestStore implements it; tests use fakes.
type IngestStore interface {
	CreateJobWithBatches(ctx context.Context, job *domain.Job, batches []*domain.Batch, chunks [][]string) error
	MarkDispatched(ctx context.Context, batchIDs []uint) error
}

// IngestParams carries one ingestion request's configuration.
type IngestParams struct {
	WebhookURL         string
	EmbeddingsMetadata domain.EmbeddingsMetadata
	VectorDBMetadata   domain.VectorDBMetadata
	LinesPerBatch      int // 0 means chunker.DefaultLinesPerBatch

	// Pass-through secrets; ride the queue messages only.
	VectorDBKey     string
	EmbeddingAPIKey string
}

// IngestResult reports what the Store committed. BatchCount is the number
// of batches created, not the number successfully published.
type IngestResult struct {
	JobID      uint
	BatchCount int
}

// IngestConfig holds configuration for the ingest service.
type IngestConfig struct {
	DispatchWorkers int
}

// IngestService orchestrates ingestion: chunk the document, commit the job
// and its batches atomically, then publish one queue message per batch.
type IngestService struct {
	store     IngestStore
	publisher queue.Publisher
	pool      *ants.Pool
	logger    *logger.Logger
}

// NewIngestService creates a new ingest service with a bounded worker pool
// for the dispatch fan-out.
func NewIngestService(store IngestStore, publisher queue.Publisher, log *logger.Logger, cfg *IngestConfig) (*IngestService, error) {
	workers := cfg.DispatchWorkers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &IngestService{
		store:     store,
		publisher: publisher,
		pool:      pool,
		logger:    log,
	}, nil
}

// Close releases the dispatch worker pool.
func (s *IngestService) Close() {
	s.pool.Release()
}

func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Ingest runs the full pipeline for one document.
//
// The Store transaction commits the job, its batches, and their outbox
// rows together; any Store failure aborts everything and surfaces as a
// *PersistenceError. Publishing happens after commit and is at-least-once:
// failures surface as a *DispatchError while the committed rows stay
// durable, awaiting the reconciler. An empty document succeeds with zero
// batches.
func (s *IngestService) Ingest(ctx context.Context, text string, params IngestParams) (*IngestResult, error) {
	linesPerBatch := params.LinesPerBatch
	if linesPerBatch == 0 {
		linesPerBatch = chunker.DefaultLinesPerBatch
	}

	chunks, err := chunker.Split(text, linesPerBatch)
	if err != nil {
		return nil, err
	}

	batches := make([]*domain.Batch, len(chunks))
	for i := range batches {
		batches[i] = &domain.Batch{
			EmbeddingsMetadata: params.EmbeddingsMetadata,
			VectorDBMetadata:   params.VectorDBMetadata,
			Status:             domain.BatchStatusNotStarted,
		}
	}

	// The commit must finish even if the caller disconnects mid-request;
	// half-committed jobs are worse than an orphaned response.
	commitCtx := context.WithoutCancel(ctx)

	job := &domain.Job{WebhookURL: params.WebhookURL}
	if err := s.store.CreateJobWithBatches(commitCtx, job, batches, chunks); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	ctx = logger.WithField(ctx, logger.FieldJobID, job.ID)
	result := &IngestResult{JobID: job.ID, BatchCount: len(batches)}

	if len(batches) == 0 {
		s.log(ctx).Info("Ingestion committed with zero batches (empty document)")
		return result, nil
	}

	dispatched, publishErr := s.dispatch(ctx, batches, chunks, params)

	if err := s.store.MarkDispatched(commitCtx, dispatched); err != nil {
		// Not fatal: the outbox rows stay pending and the reconciler will
		// re-publish them, which at-least-once delivery tolerates.
		s.log(ctx).WithError(err).Warn("Failed to mark outbox entries dispatched")
	}

	if publishErr != nil {
		failed := len(batches) - len(dispatched)
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldCount: failed,
		}).WithError(publishErr).Error("Some batches were not published")
		return result, &DispatchError{
			JobID:      job.ID,
			BatchCount: len(batches),
			Failed:     failed,
			Err:        publishErr,
		}
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldCount: len(batches),
	}).Info("Ingestion committed and dispatched")
	return result, nil
}

// dispatch publishes one message per batch through the bounded worker
// pool and returns the batch ids that reached the queue.
func (s *IngestService) dispatch(ctx context.Context, batches []*domain.Batch, chunks [][]string, params IngestParams) ([]uint, error) {
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		dispatched  []uint
		publishErrs []error
	)

	for i, batch := range batches {
		msg := queue.Message{
			BatchID:         batch.ID,
			Chunk:           chunks[i],
			VectorDBKey:     params.VectorDBKey,
			EmbeddingAPIKey: params.EmbeddingAPIKey,
		}

		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.publisher.Publish(ctx, msg); err != nil {
				mu.Lock()
				publishErrs = append(publishErrs, err)
				mu.Unlock()
				return
			}
			mu.Lock()
			dispatched = append(dispatched, msg.BatchID)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			publishErrs = append(publishErrs, submitErr)
			mu.Unlock()
		}
	}
	wg.Wait()

	return dispatched, errors.Join(publishErrs...)
}
