package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "doctrail/pkg/domain"
)

func appendAction(t *testing.T, store *InMemoryStore, docID id.DocumentID, kind Kind, at time.Time) *Action {
	t.Helper()
	action := &Action{
		Kind:        kind,
		Description: CanonicalDescription(kind),
		ActorID:     id.UserID(uuid.New()),
		CreatedAt:   at,
	}
	require.NoError(t, store.AppendPair(context.Background(), docID, action))
	return action
}

func TestInMemoryStore_Ordering(t *testing.T) {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	store := NewInMemoryStore()
	appendAction(t, store, docID, KindView, base)
	appendAction(t, store, docID, KindProcess, base.Add(time.Minute))
	appendAction(t, store, docID, KindTrash, base.Add(2*time.Minute))

	t.Run("default is newest first", func(t *testing.T) {
		entries, err := store.ListByDocument(ctx, docID, PageRequest{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, KindTrash, entries[0].Kind)
		assert.Equal(t, KindView, entries[2].Kind)
	})

	t.Run("ascending flips the order", func(t *testing.T) {
		entries, err := store.ListByDocument(ctx, docID, PageRequest{Direction: Ascending})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, KindView, entries[0].Kind)
	})

	t.Run("equal timestamps break ties by id", func(t *testing.T) {
		tieDoc := id.DocumentID(uuid.New())
		tieStore := NewInMemoryStore()
		first := appendAction(t, tieStore, tieDoc, KindView, base)
		second := appendAction(t, tieStore, tieDoc, KindEdit, base)
		require.Less(t, first.ID, second.ID)

		entries, err := tieStore.ListByDocument(ctx, tieDoc, PageRequest{Direction: Ascending})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		// Insertion order survives the shared timestamp.
		assert.Equal(t, first.ID, entries[0].ID)
		assert.Equal(t, second.ID, entries[1].ID)

		entries, err = tieStore.ListByDocument(ctx, tieDoc, PageRequest{Direction: Descending})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		// Descending reads reverse the whole ordering, ids included.
		assert.Equal(t, second.ID, entries[0].ID)
		assert.Equal(t, first.ID, entries[1].ID)
	})
}

func TestInMemoryStore_Pagination(t *testing.T) {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	store := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		appendAction(t, store, docID, KindView, base.Add(time.Duration(i)*time.Second))
	}

	t.Run("size and offset slice the ordered log", func(t *testing.T) {
		entries, err := store.ListByDocument(ctx, docID, PageRequest{Size: 2, Offset: 1, Direction: Ascending})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(2), entries[0].ID)
		assert.Equal(t, int64(3), entries[1].ID)
	})

	t.Run("offset past the end is empty, not an error", func(t *testing.T) {
		entries, err := store.ListByDocument(ctx, docID, PageRequest{Offset: 100})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown document reads as empty history", func(t *testing.T) {
		entries, err := store.ListByDocument(ctx, id.DocumentID(uuid.New()), PageRequest{})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestInMemoryStore_KindFilter(t *testing.T) {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	store := NewInMemoryStore()
	appendAction(t, store, docID, KindView, base)
	appendAction(t, store, docID, KindEdit, base.Add(time.Second))
	appendAction(t, store, docID, KindView, base.Add(2*time.Second))

	entries, err := store.ListByDocumentAndKind(ctx, docID, KindView, PageRequest{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, KindView, e.Kind)
	}
}

func TestInMemoryStore_Kinds(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	kinds, err := store.Kinds(ctx)
	require.NoError(t, err)
	assert.Len(t, kinds, 6, "the six lifecycle kinds are always seeded")

	require.NoError(t, store.RegisterKind(ctx, KindInfo{Name: "export", Description: "Exported to carrier portal"}))
	require.NoError(t, store.RegisterKind(ctx, KindInfo{Name: "export", Description: "duplicate"}))

	kinds, err = store.Kinds(ctx)
	require.NoError(t, err)
	assert.Len(t, kinds, 7, "re-registration is idempotent")
}

func TestInMemoryStore_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	store := NewInMemoryStore()
	appendAction(t, store, docID, KindView, base)

	snap := store.Snapshot()
	appendAction(t, store, docID, KindTrash, base.Add(time.Second))
	store.Restore(snap)

	entries, err := store.ListByDocument(ctx, docID, PageRequest{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindView, entries[0].Kind)

	// The id sequence rolls back too, so replayed appends reuse the ids the
	// aborted transaction briefly held.
	next := appendAction(t, store, docID, KindEdit, base.Add(time.Second))
	assert.Equal(t, int64(2), next.ID)
}
