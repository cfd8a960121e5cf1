package reconcile

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"jurydb/pkg/keys"
	"jurydb/pkg/progress"
	"jurydb/pkg/store"
)

func TestRunImmediateRequiresStore(t *testing.T) {
	SetStore(nil)
	_, err := RunImmediate(context.Background())
	require.Error(t, err)
}

func TestRunImmediateSweepsOrphans(t *testing.T) {
	mem := store.NewMemory()
	s := progress.New(mem)
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), ""))
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "b", json.RawMessage(`1`), ""))
	require.NoError(t, mem.Delete(keys.Record("0xabc", keys.TypeScale, "b")))

	SetStore(s)
	dropped, err := RunImmediate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dropped)

	ids, err := s.Index("0xabc", keys.TypeScale)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids)
}

func TestStartDisabledIsNoOp(t *testing.T) {
	mem := store.NewMemory()
	s := progress.New(mem)

	eff := testEff(false, "")
	cancel, err := Start(context.Background(), eff, s)
	require.NoError(t, err)
	cancel()
}

func TestStartRejectsInvalidCron(t *testing.T) {
	mem := store.NewMemory()
	s := progress.New(mem)

	eff := testEff(true, "not a cron")
	_, err := Start(context.Background(), eff, s)
	require.Error(t, err)
}

func TestStartWithValidCron(t *testing.T) {
	mem := store.NewMemory()
	s := progress.New(mem)

	eff := testEff(true, "*/5 * * * *")
	cancel, err := Start(context.Background(), eff, s)
	require.NoError(t, err)
	cancel()
}
