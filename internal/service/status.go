package service

import (
	"context"
	"errors"

	"github.com/Tandez/vectorflow/internal/domain"
	"github.com/Tandez/vectorflow/internal/repository"
)

// JobGetter is the read surface the status projector needs.
type JobGetter interface {
	GetByID(ctx context.Context, id uint) (*domain.Job, error)
}

// StatusService is a read-only projection of a job's current status. No
// caching: every call reads the Store.
type StatusService struct {
	jobs JobGetter
}

// NewStatusService creates a new status service.
func NewStatusService(jobs JobGetter) *StatusService {
	return &StatusService{jobs: jobs}
}

// GetJobStatus returns the job's current status, or ErrJobNotFound.
func (s *StatusService) GetJobStatus(ctx context.Context, id uint) (domain.JobStatus, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return "", ErrJobNotFound
		}
		return "", err
	}
	return job.Status, nil
}
