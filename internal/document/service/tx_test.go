package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "doctrail/pkg/domain-errors"
)

type recordingSnapshotter struct {
	state    int
	restored bool
}

func (r *recordingSnapshotter) Snapshot() any { return r.state }
func (r *recordingSnapshotter) Restore(snapshot any) {
	r.state = snapshot.(int)
	r.restored = true
}

func TestMemoryTx_RunInTx(t *testing.T) {
	t.Run("commit keeps the new state", func(t *testing.T) {
		store := &recordingSnapshotter{state: 1}
		tx := NewMemoryTx(store)

		err := tx.RunInTx(context.Background(), func(context.Context) error {
			store.state = 2
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, store.state)
		assert.False(t, store.restored)
	})

	t.Run("failure restores every store", func(t *testing.T) {
		first := &recordingSnapshotter{state: 1}
		second := &recordingSnapshotter{state: 10}
		tx := NewMemoryTx(first, second)

		boom := errors.New("boom")
		err := tx.RunInTx(context.Background(), func(context.Context) error {
			first.state = 2
			second.state = 20
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, first.state)
		assert.Equal(t, 10, second.state)
		assert.True(t, first.restored)
		assert.True(t, second.restored)
	})

	t.Run("cancelled context aborts before running", func(t *testing.T) {
		store := &recordingSnapshotter{state: 1}
		tx := NewMemoryTx(store)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		err := tx.RunInTx(ctx, func(context.Context) error {
			ran = true
			return nil
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, ran)
	})

	t.Run("applies a deadline when the caller has none", func(t *testing.T) {
		tx := NewMemoryTx()
		err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		})
		require.NoError(t, err)
	})
}
