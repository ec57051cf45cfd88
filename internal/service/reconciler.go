package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tandez/vectorflow/internal/domain"
	"github.com/Tandez/vectorflow/internal/logger"
	"github.com/Tandez/vectorflow/internal/queue"
)

// OutboxSource is the outbox surface the reconciler drains.
type OutboxSource interface {
	PendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.OutboxEntry, error)
	MarkDispatched(ctx context.Context, entryID uint) error
	IncrementAttempts(ctx context.Context, entryID uint) error
}

// ReconcilerConfig holds reconciliation settings.
type ReconcilerConfig struct {
	Interval   time.Duration // how often to scan the outbox
	StaleAfter time.Duration // age before a pending entry is considered stuck
	BatchLimit int           // max entries per drain pass
}

// Reconciler re-publishes committed-but-undispatched batches. The Store
// commit and the queue publish are separate systems with no shared
// transaction, so a crash between them strands outbox rows in the pending
// state; this closes that gap with at-least-once semantics. Re-published
// messages carry null secret keys, because secrets are never persisted.
type Reconciler struct {
	outbox    OutboxSource
	publisher queue.Publisher
	cfg       ReconcilerConfig
	logger    *logger.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(outbox OutboxSource, publisher queue.Publisher, log *logger.Logger, cfg ReconcilerConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 2 * time.Minute
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	return &Reconciler{outbox: outbox, publisher: publisher, cfg: cfg, logger: log}
}

// Run drains the outbox on a ticker until the context is canceled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.DrainOnce(ctx); err != nil {
				r.logger.WithError(err).Warn("Outbox drain pass failed")
			} else if n > 0 {
				r.logger.WithFields(logger.Fields{logger.FieldCount: n}).
					Info("Re-published stranded batches")
			}
		}
	}
}

// DrainOnce re-publishes one page of stale pending entries and returns how
// many reached the queue. Entries that fail to publish have their attempt
// count incremented and stay pending for the next pass.
func (r *Reconciler) DrainOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.cfg.StaleAfter)
	entries, err := r.outbox.PendingBefore(ctx, cutoff, r.cfg.BatchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending outbox entries: %w", err)
	}

	var drained int
	for _, entry := range entries {
		var msg queue.Message
		if err := json.Unmarshal([]byte(entry.Payload), &msg); err != nil {
			// Undecodable payloads can never be published; count the
			// attempt so they are visible in the outbox, and move on.
			r.logger.WithFields(logger.Fields{logger.FieldBatchID: entry.BatchID}).
				WithError(err).Error("Corrupt outbox payload")
			if err := r.outbox.IncrementAttempts(ctx, entry.ID); err != nil {
				return drained, err
			}
			continue
		}

		if err := r.publisher.Publish(ctx, msg); err != nil {
			if ierr := r.outbox.IncrementAttempts(ctx, entry.ID); ierr != nil {
				return drained, ierr
			}
			continue
		}
		if err := r.outbox.MarkDispatched(ctx, entry.ID); err != nil {
			return drained, err
		}
		drained++
	}
	return drained, nil
}
