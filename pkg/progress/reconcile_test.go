package progress

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"jurydb/pkg/keys"
)

func TestReconcileDropsOrphanedIndexEntries(t *testing.T) {
	s, mem := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), ""))
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "b", json.RawMessage(`1`), ""))
	// orphan "b": delete its record but leave the index entry behind
	require.NoError(t, mem.Delete(keys.Record("0xabc", keys.TypeScale, "b")))

	dropped, err := s.ReconcileIndexes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dropped)

	ids, err := s.Index("0xabc", keys.TypeScale)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids)
}

func TestReconcileDeletesEmptiedIndex(t *testing.T) {
	s, mem := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), ""))
	require.NoError(t, mem.Delete(keys.Record("0xabc", keys.TypeScale, "a")))

	dropped, err := s.ReconcileIndexes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dropped)

	_, err = mem.Get(keys.Index("0xabc", keys.TypeScale))
	require.Error(t, err)
}

func TestReconcileLeavesHealthyIndexAlone(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), ""))

	dropped, err := s.ReconcileIndexes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, dropped)

	ids, err := s.Index("0xabc", keys.TypeScale)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids)
}

func TestReconcileIgnoresIDsWithColons(t *testing.T) {
	s, _ := newTestStore()
	// repository URLs contain colons; the reconstructed record key must
	// still resolve
	id := "https://github.com/org/repo"
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeComparison, id, json.RawMessage(`1`), ""))

	dropped, err := s.ReconcileIndexes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, dropped)
}

func TestReconcileHonorsContextCancel(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ReconcileIndexes(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
