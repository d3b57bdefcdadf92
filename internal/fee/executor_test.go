package fee

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/store"
)

func transferEffect(id string) Effect {
	return NewTransferEffect(id, TransferDirective{
		Recipient: "juno1fee",
		Amount:    ir.Coin{Denom: "juno", Amount: 1},
	}, "register example")
}

func TestLedgerExecutor_RecordsTransfers(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "fee.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exec := NewLedgerExecutor(st, func() time.Time { return at })
	ctx := context.Background()

	require.NoError(t, exec.Execute(ctx, []Effect{transferEffect("op-1"), transferEffect("op-2")}))
	// Re-executing the same effect is a no-op.
	require.NoError(t, exec.Execute(ctx, []Effect{transferEffect("op-1")}))

	transfers, err := st.ReadTransfers(ctx)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, "op-1", transfers[0].ID)
	assert.Equal(t, "op-2", transfers[1].ID)
	assert.Equal(t, "register example", transfers[0].Memo)
	assert.True(t, transfers[0].ExecutedAt.Equal(at))
}

type failingLog struct{}

func (failingLog) WriteTransfer(context.Context, ir.Transfer) (bool, error) {
	return false, errors.New("disk full")
}

func TestLedgerExecutor_PropagatesErrors(t *testing.T) {
	exec := NewLedgerExecutor(failingLog{}, nil)
	err := exec.Execute(context.Background(), []Effect{transferEffect("op-1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op-1")
	assert.Contains(t, err.Error(), "disk full")
}

func TestLedgerExecutor_RejectsUnknownKind(t *testing.T) {
	exec := NewLedgerExecutor(failingLog{}, nil)
	err := exec.Execute(context.Background(), []Effect{{ID: "x", Kind: "burn"}})
	assert.ErrorContains(t, err, "unsupported kind")
}

func TestRecordingExecutor(t *testing.T) {
	var rec RecordingExecutor
	require.NoError(t, rec.Execute(context.Background(), []Effect{transferEffect("a")}))
	require.NoError(t, rec.Execute(context.Background(), []Effect{transferEffect("b")}))

	got := rec.Effects()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].ID)

	got[0].ID = "mutated"
	assert.Equal(t, "a", rec.Effects()[0].ID)
}
