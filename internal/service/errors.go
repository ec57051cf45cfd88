package service

import (
	"errors"
	"fmt"
)

// ErrJobNotFound is returned by the status projector for unknown job ids.
var ErrJobNotFound = errors.New("service: job not found")

// PersistenceError reports a Store failure during job/batch creation. The
// whole ingestion is aborted and no partial state is visible.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during ingestion: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DispatchError reports queue publish failures after the Store transaction
// committed. The job and batch rows are already durable; the undispatched
// batches remain in the outbox for reconciliation.
type DispatchError struct {
	JobID      uint
	BatchCount int // batches created (and committed)
	Failed     int // publishes that did not reach the queue
	Err        error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failure for job %d: %d of %d batches unpublished: %v",
		e.JobID, e.Failed, e.BatchCount, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
