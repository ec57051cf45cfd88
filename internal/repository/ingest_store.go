package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Tandez/vectorflow/internal/domain"
	"github.com/Tandez/vectorflow/internal/queue"
	"gorm.io/gorm"
)

// createBatchSize bounds the number of rows per bulk INSERT.
const createBatchSize = 200

// IngestStore persists one ingestion's job, batches, and outbox rows as a
// single atomic unit of work.
type IngestStore struct {
	db *gorm.DB
}

// NewIngestStore creates a new IngestStore.
func NewIngestStore(db *gorm.DB) *IngestStore {
	return &IngestStore{db: db}
}

// CreateJobWithBatches creates the job row, one batch row per chunk, and
// one outbox row per batch inside a single transaction. Batch creation
// order matches chunk order, and the job's TotalBatches is set to the
// batch count before commit, so no partial state is ever visible to other
// readers. The outbox payload is the durable queue message minus secrets.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to create; ID and TotalBatches are filled in.
//   - batches: batch records to create; JobID and IDs are filled in.
//   - chunks: line groups, one per batch, in batch order.
// Returns:
//   - error: non-nil if any write fails; the transaction is rolled back.
func (s *IngestStore) CreateJobWithBatches(ctx context.Context, job *domain.Job, batches []*domain.Batch, chunks [][]string) error {
	if len(batches) != len(chunks) {
		return fmt.Errorf("batch/chunk count mismatch: %d != %d", len(batches), len(chunks))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job.Status = domain.JobStatusNotStarted
		job.TotalBatches = domain.TotalBatchesUnset
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}

		if len(batches) > 0 {
			for _, batch := range batches {
				batch.JobID = job.ID
			}
			if err := tx.CreateInBatches(batches, createBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create batches: %w", err)
			}

			entries := make([]*domain.OutboxEntry, len(batches))
			for i, batch := range batches {
				payload, err := json.Marshal(queue.Message{
					BatchID: batch.ID,
					Chunk:   chunks[i],
				})
				if err != nil {
					return fmt.Errorf("failed to encode outbox payload for batch %d: %w", batch.ID, err)
				}
				entries[i] = &domain.OutboxEntry{
					BatchID: batch.ID,
					Payload: string(payload),
					State:   domain.DispatchPending,
				}
			}
			if err := tx.CreateInBatches(entries, createBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create outbox entries: %w", err)
			}
		}

		job.TotalBatches = len(batches)
		if err := tx.Model(&domain.Job{}).
			Where("id = ?", job.ID).
			Update("total_batches", job.TotalBatches).Error; err != nil {
			return fmt.Errorf("failed to update total batches: %w", err)
		}
		return nil
	})
}

// MarkDispatched flips the outbox rows for the given batches to
// dispatched. Safe to call more than once per batch.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - batchIDs: batches whose messages reached the queue.
// Returns:
//   - error: non-nil if the update fails.
func (s *IngestStore) MarkDispatched(ctx context.Context, batchIDs []uint) error {
	if len(batchIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&domain.OutboxEntry{}).
		Where("batch_id IN ?", batchIDs).
		Update("state", domain.DispatchDone).Error
}
