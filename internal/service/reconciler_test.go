package service

import (
	"context"
	"testing"
	"time"

	"github.com/Tandez/vectorflow/internal/domain"
	"github.com/Tandez/vectorflow/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	entries    []domain.OutboxEntry
	dispatched []uint
	attempts   map[uint]int
}

func newFakeOutbox(entries ...domain.OutboxEntry) *fakeOutbox {
	return &fakeOutbox{entries: entries, attempts: map[uint]int{}}
}

func (f *fakeOutbox) PendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.OutboxEntry, error) {
	var out []domain.OutboxEntry
	for _, e := range f.entries {
		if e.State == domain.DispatchPending && e.CreatedAt.Before(cutoff) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkDispatched(ctx context.Context, entryID uint) error {
	for i := range f.entries {
		if f.entries[i].ID == entryID {
			f.entries[i].State = domain.DispatchDone
		}
	}
	f.dispatched = append(f.dispatched, entryID)
	return nil
}

func (f *fakeOutbox) IncrementAttempts(ctx context.Context, entryID uint) error {
	f.attempts[entryID]++
	return nil
}

func staleEntry(id, batchID uint, payload string) domain.OutboxEntry {
	return domain.OutboxEntry{
		ID:        id,
		BatchID:   batchID,
		Payload:   payload,
		State:     domain.DispatchPending,
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestReconcilerDrainsStaleEntries(t *testing.T) {
	outbox := newFakeOutbox(
		staleEntry(1, 10, `[10, ["a", "b"], null, null]`),
		staleEntry(2, 11, `[11, ["c"], null, null]`),
	)
	pub := newFakePublisher()
	r := NewReconciler(outbox, pub, logger.GetDefault(), ReconcilerConfig{StaleAfter: time.Minute})

	drained, err := r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, drained)

	assert.ElementsMatch(t, []uint{1, 2}, outbox.dispatched)
	require.Contains(t, pub.messages, uint(10))
	assert.Equal(t, []string{"a", "b"}, pub.messages[10].Chunk)

	// re-published messages never carry secrets
	assert.Empty(t, pub.messages[10].VectorDBKey)
	assert.Empty(t, pub.messages[10].EmbeddingAPIKey)
}

func TestReconcilerSkipsFreshEntries(t *testing.T) {
	fresh := staleEntry(1, 10, `[10, ["a"], null, null]`)
	fresh.CreatedAt = time.Now()
	outbox := newFakeOutbox(fresh)
	pub := newFakePublisher()
	r := NewReconciler(outbox, pub, logger.GetDefault(), ReconcilerConfig{StaleAfter: time.Minute})

	drained, err := r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, drained)
	assert.Empty(t, pub.messages)
}

func TestReconcilerCountsFailedAttempts(t *testing.T) {
	outbox := newFakeOutbox(staleEntry(1, 10, `[10, ["a"], null, null]`))
	pub := newFakePublisher()
	pub.failIDs[10] = true
	r := NewReconciler(outbox, pub, logger.GetDefault(), ReconcilerConfig{StaleAfter: time.Minute})

	drained, err := r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, drained)
	assert.Equal(t, 1, outbox.attempts[1])
	assert.Empty(t, outbox.dispatched, "failed entries must stay pending")
}

func TestReconcilerSurvivesCorruptPayload(t *testing.T) {
	outbox := newFakeOutbox(
		staleEntry(1, 10, `{"not": "positional"}`),
		staleEntry(2, 11, `[11, ["ok"], null, null]`),
	)
	pub := newFakePublisher()
	r := NewReconciler(outbox, pub, logger.GetDefault(), ReconcilerConfig{StaleAfter: time.Minute})

	drained, err := r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, drained)
	assert.Equal(t, 1, outbox.attempts[1])
	assert.Contains(t, pub.messages, uint(11))
}
