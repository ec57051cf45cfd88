package repository

import (
	"context"
	"errors"

	"github.com/Tandez/vectorflow/internal/domain"
	"gorm.io/gorm"
)

// ErrJobNotFound is returned when a job lookup matches no row.
var ErrJobNotFound = errors.New("repository: job not found")

// JobRepository handles job data operations.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// GetByID retrieves a job by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.Job: job record if found.
//   - error: ErrJobNotFound for unknown ids, otherwise the query error.
func (r *JobRepository) GetByID(ctx context.Context, id uint) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// CountBatches derives the number of batches owned by a job from a live
// count. This is the recovery path for total_batches: the stored value can
// always be recomputed from the batch rows themselves.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: owning job ID.
// Returns:
//   - int64: number of batch rows referencing the job.
//   - error: non-nil if the query fails.
func (r *JobRepository) CountBatches(ctx context.Context, jobID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("job_id = ?", jobID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
