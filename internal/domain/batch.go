package domain

import "time"

// BatchStatus represents the processing state of a batch, owned by the
// downstream workers after dispatch.
type BatchStatus string

const (
	BatchStatusNotStarted BatchStatus = "not_started"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// DispatchState tracks whether a batch's queue message has been handed to
// the queue. Batches are committed before publishing, so a crash can leave
// outbox rows in DispatchPending; the reconciler drains those.
type DispatchState string

const (
	DispatchPending DispatchState = "pending"
	DispatchDone    DispatchState = "dispatched"
)

// Batch is one dispatchable work item: a contiguous slice of source lines
// plus copies of the per-job processing configuration, duplicated so a
// worker never has to look up the owning job.
type Batch struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	JobID              uint               `gorm:"not null;index" json:"job_id"`
	EmbeddingsMetadata EmbeddingsMetadata `gorm:"type:text" json:"embeddings_metadata"`
	VectorDBMetadata   VectorDBMetadata   `gorm:"type:text" json:"vector_db_metadata"`
	Status             BatchStatus        `gorm:"type:text;default:not_started" json:"batch_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// TableName returns the database table name for Batch.
func (Batch) TableName() string {
	return "batches"
}

// OutboxEntry holds the durable queue payload for a batch, written in the
// same transaction as the batch itself. The stored payload never contains
// the pass-through API keys.
type OutboxEntry struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	BatchID   uint          `gorm:"not null;uniqueIndex" json:"batch_id"`
	Payload   string        `gorm:"type:text;not null" json:"payload"`
	State     DispatchState `gorm:"type:text;default:pending;index" json:"state"`
	Attempts  int           `gorm:"default:0" json:"attempts"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName returns the database table name for OutboxEntry.
func (OutboxEntry) TableName() string {
	return "dispatch_outbox"
}
