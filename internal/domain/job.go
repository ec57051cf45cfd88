package domain

import "time"

// JobStatus represents the lifecycle state of an ingestion job.
// The pipeline only ever sets JobStatusNotStarted; downstream workers own
// every later transition.
type JobStatus string

const (
	JobStatusNotStarted         JobStatus = "not_started"
	JobStatusInProgress         JobStatus = "in_progress"
	JobStatusCompleted          JobStatus = "completed"
	JobStatusPartiallyCompleted JobStatus = "partially_completed"
	JobStatusFailed             JobStatus = "failed"
)

// TotalBatchesUnset is the sentinel stored until orchestration for a job has
// finished creating all of its batches.
const TotalBatchesUnset = -1

// Job is one ingestion request's unit of accounting. It owns zero or more
// batches; once the creating transaction commits, TotalBatches equals the
// exact number of batch rows owned by the job.
type Job struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	WebhookURL   string    `gorm:"type:text" json:"webhook_url,omitempty"`
	Status       JobStatus `gorm:"type:text;default:not_started" json:"job_status"`
	TotalBatches int       `gorm:"default:-1" json:"total_batches"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string {
	return "jobs"
}
