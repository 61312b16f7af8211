package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "doctrail/pkg/domain"
	"doctrail/pkg/platform/sentinel"

	"github.com/google/uuid"
)

func newTestDocument(status Status) *Document {
	doc := &Document{
		ID:     id.DocumentID(uuid.New()),
		Name:   "claim-photo.pdf",
		Status: status,
	}
	if status == StatusTrashed {
		now := time.Now()
		doc.TrashedAt = &now
	}
	return doc
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusUnprocessed.Valid())
	assert.True(t, StatusProcessed.Valid())
	assert.True(t, StatusTrashed.Valid())
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}

func TestMarkProcessed(t *testing.T) {
	t.Run("from unprocessed", func(t *testing.T) {
		doc := newTestDocument(StatusUnprocessed)
		require.NoError(t, doc.MarkProcessed())
		assert.True(t, doc.IsProcessed())
	})

	t.Run("already processed is a no-op", func(t *testing.T) {
		doc := newTestDocument(StatusProcessed)
		require.NoError(t, doc.MarkProcessed())
		assert.True(t, doc.IsProcessed())
	})

	t.Run("trashed document refuses", func(t *testing.T) {
		doc := newTestDocument(StatusTrashed)
		err := doc.MarkProcessed()
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
		assert.True(t, doc.IsTrashed(), "status must not change on refusal")
	})
}

func TestMarkUnprocessed(t *testing.T) {
	t.Run("from processed", func(t *testing.T) {
		doc := newTestDocument(StatusProcessed)
		require.NoError(t, doc.MarkUnprocessed())
		assert.Equal(t, StatusUnprocessed, doc.Status)
	})

	t.Run("trashed document refuses", func(t *testing.T) {
		doc := newTestDocument(StatusTrashed)
		require.ErrorIs(t, doc.MarkUnprocessed(), sentinel.ErrInvalidState)
	})
}

func TestTrashAndRestore(t *testing.T) {
	t.Run("trash sets the marker", func(t *testing.T) {
		doc := newTestDocument(StatusProcessed)
		now := time.Now()
		doc.Trash(now)
		assert.True(t, doc.IsTrashed())
		require.NotNil(t, doc.TrashedAt)
		assert.Equal(t, now, *doc.TrashedAt)
	})

	t.Run("re-trash keeps the original marker", func(t *testing.T) {
		doc := newTestDocument(StatusUnprocessed)
		first := time.Now().Add(-time.Hour)
		doc.Trash(first)
		doc.Trash(time.Now())
		require.NotNil(t, doc.TrashedAt)
		assert.Equal(t, first, *doc.TrashedAt)
	})

	t.Run("restore always lands on unprocessed", func(t *testing.T) {
		doc := newTestDocument(StatusProcessed)
		doc.Trash(time.Now())
		doc.Restore()
		assert.Equal(t, StatusUnprocessed, doc.Status)
		assert.Nil(t, doc.TrashedAt)
	})

	t.Run("restore on untrashed document is a no-op", func(t *testing.T) {
		doc := newTestDocument(StatusProcessed)
		doc.Restore()
		assert.Equal(t, StatusProcessed, doc.Status)
	})
}

func TestMetadataUpdate_Apply(t *testing.T) {
	policyID := id.PolicyID(uuid.New())
	userA := id.UserID(uuid.New())
	userB := id.UserID(uuid.New())

	t.Run("absent fields stay untouched", func(t *testing.T) {
		doc := newTestDocument(StatusUnprocessed)
		doc.Description = "original"
		doc.PolicyID = &policyID

		doc.Apply(MetadataUpdate{})
		assert.Equal(t, "original", doc.Description)
		assert.Equal(t, &policyID, doc.PolicyID)
	})

	t.Run("set and clear are distinct from absent", func(t *testing.T) {
		doc := newTestDocument(StatusUnprocessed)
		doc.Description = "original"
		doc.PolicyID = &policyID

		doc.Apply(MetadataUpdate{
			Description: Set("updated"),
			PolicyID:    Clear[id.PolicyID](),
		})
		assert.Equal(t, "updated", doc.Description)
		assert.Nil(t, doc.PolicyID)
	})

	t.Run("assignees replace wholesale", func(t *testing.T) {
		doc := newTestDocument(StatusUnprocessed)
		doc.AssignedUsers = []id.UserID{userA}

		doc.Apply(MetadataUpdate{AssignedUsers: Set([]id.UserID{userB})})
		assert.Equal(t, []id.UserID{userB}, doc.AssignedUsers)

		doc.Apply(MetadataUpdate{AssignedUsers: Clear[[]id.UserID]()})
		assert.Empty(t, doc.AssignedUsers)
	})
}

func TestMetadataUpdate_Empty(t *testing.T) {
	assert.True(t, MetadataUpdate{}.Empty())
	assert.False(t, MetadataUpdate{Description: Set("x")}.Empty())
	assert.False(t, MetadataUpdate{PolicyID: Clear[id.PolicyID]()}.Empty())
}
