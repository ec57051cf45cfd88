package repository

import (
	"context"
	"time"

	"github.com/Tandez/vectorflow/internal/domain"
	"gorm.io/gorm"
)

// OutboxRepository reads and updates the dispatch outbox. The reconciler
// uses it to find committed-but-undispatched batches.
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// PendingBefore lists pending entries created before the cutoff, oldest
// first. Entries younger than the cutoff are assumed to still be in the
// hands of the original dispatch loop.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cutoff: only entries created before this instant are returned.
//   - limit: maximum number of entries to return.
// Returns:
//   - []domain.OutboxEntry: stale pending entries.
//   - error: non-nil if the query fails.
func (r *OutboxRepository) PendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.OutboxEntry, error) {
	var entries []domain.OutboxEntry
	if err := r.db.WithContext(ctx).
		Where("state = ? AND created_at < ?", domain.DispatchPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// MarkDispatched flips a single entry to dispatched.
func (r *OutboxRepository) MarkDispatched(ctx context.Context, entryID uint) error {
	return r.db.WithContext(ctx).Model(&domain.OutboxEntry{}).
		Where("id = ?", entryID).
		Update("state", domain.DispatchDone).Error
}

// IncrementAttempts records a failed re-publish attempt.
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, entryID uint) error {
	return r.db.WithContext(ctx).Model(&domain.OutboxEntry{}).
		Where("id = ?", entryID).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

// CountPending returns the number of entries still awaiting dispatch.
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.OutboxEntry{}).
		Where("state = ?", domain.DispatchPending).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
