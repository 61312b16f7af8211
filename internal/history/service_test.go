package history

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "doctrail/pkg/domain"
	dErrors "doctrail/pkg/domain-errors"
)

func newTestTrail() (*Trail, *InMemoryStore) {
	store := NewInMemoryStore()
	trail := NewTrail(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return trail, store
}

func TestTrail_Record(t *testing.T) {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	actorID := id.UserID(uuid.New())

	t.Run("fills the canonical description", func(t *testing.T) {
		trail, store := newTestTrail()
		require.NoError(t, trail.Record(ctx, docID, actorID, KindProcess, ""))

		entries, err := store.ListByDocument(ctx, docID, PageRequest{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Marked as processed", entries[0].Description)
		assert.Equal(t, actorID, entries[0].ActorID)
	})

	t.Run("keeps a caller-supplied description", func(t *testing.T) {
		trail, store := newTestTrail()
		desc := "Policy Number changed from '(empty)' to 'POL-1001'"
		require.NoError(t, trail.Record(ctx, docID, actorID, KindEdit, desc))

		entries, err := store.ListByDocument(ctx, docID, PageRequest{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, desc, entries[0].Description)
	})

	t.Run("rejects a missing kind", func(t *testing.T) {
		trail, _ := newTestTrail()
		err := trail.Record(ctx, docID, actorID, "", "whatever")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects a nil actor", func(t *testing.T) {
		trail, _ := newTestTrail()
		err := trail.Record(ctx, docID, id.UserID(uuid.Nil), KindView, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestTrail_Last(t *testing.T) {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	actorID := id.UserID(uuid.New())

	t.Run("no history yields nil", func(t *testing.T) {
		trail, _ := newTestTrail()
		entry, err := trail.Last(ctx, docID)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("returns the newest entry", func(t *testing.T) {
		trail, store := newTestTrail()
		base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		current := base
		store.SetClock(func() time.Time {
			current = current.Add(time.Second)
			return current
		})
		trail.now = store.now

		require.NoError(t, trail.Record(ctx, docID, actorID, KindView, ""))
		require.NoError(t, trail.Record(ctx, docID, actorID, KindTrash, ""))

		entry, err := trail.Last(ctx, docID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, KindTrash, entry.Kind)
	})
}

func TestTrail_FilterByKind(t *testing.T) {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	actorID := id.UserID(uuid.New())
	trail, _ := newTestTrail()

	require.NoError(t, trail.Record(ctx, docID, actorID, KindView, ""))
	require.NoError(t, trail.Record(ctx, docID, actorID, KindEdit, "Document Description changed from '(empty)' to 'x'"))
	require.NoError(t, trail.Record(ctx, docID, actorID, KindView, ""))

	entries, err := trail.FilterByKind(ctx, docID, KindEdit, PageRequest{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindEdit, entries[0].Kind)
}

func TestTrail_RegisterKind(t *testing.T) {
	ctx := context.Background()
	trail, _ := newTestTrail()

	require.NoError(t, trail.RegisterKind(ctx, KindInfo{Name: "export", Description: "Exported to carrier portal"}))

	kinds, err := trail.Kinds(ctx)
	require.NoError(t, err)
	assert.Len(t, kinds, 7)

	err = trail.RegisterKind(ctx, KindInfo{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
