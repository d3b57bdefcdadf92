package fee

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/namereg/internal/ir"
)

// Executor runs deferred effects.
type Executor interface {
	Execute(ctx context.Context, effects []Effect) error
}

// TransferLog persists executed transfers. Implemented by *store.Store.
type TransferLog interface {
	WriteTransfer(ctx context.Context, t ir.Transfer) (bool, error)
}

// LedgerExecutor executes transfers by recording them in a TransferLog.
// Effects whose ID was already recorded are skipped.
type LedgerExecutor struct {
	log TransferLog
	now func() time.Time
}

// NewLedgerExecutor creates a LedgerExecutor. If now is nil, time.Now is
// used to stamp execution.
func NewLedgerExecutor(log TransferLog, now func() time.Time) *LedgerExecutor {
	if now == nil {
		now = time.Now
	}
	return &LedgerExecutor{log: log, now: now}
}

// Execute implements Executor. It stops at the first failure.
func (e *LedgerExecutor) Execute(ctx context.Context, effects []Effect) error {
	for _, eff := range effects {
		if eff.Kind != EffectTransfer {
			return fmt.Errorf("execute effect %s: unsupported kind %q", eff.ID, eff.Kind)
		}
		inserted, err := e.log.WriteTransfer(ctx, ir.Transfer{
			ID:         eff.ID,
			Recipient:  eff.Transfer.Recipient,
			Amount:     eff.Transfer.Amount,
			Memo:       eff.Memo,
			ExecutedAt: e.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("execute effect %s: %w", eff.ID, err)
		}
		if !inserted {
			slog.Debug("transfer already executed", "id", eff.ID)
			continue
		}
		slog.Info("transfer executed",
			"id", eff.ID,
			"recipient", eff.Transfer.Recipient,
			"amount", eff.Transfer.Amount.String())
	}
	return nil
}

// RecordingExecutor keeps executed effects in memory.
type RecordingExecutor struct {
	mu      sync.Mutex
	effects []Effect
}

// Execute implements Executor.
func (r *RecordingExecutor) Execute(_ context.Context, effects []Effect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, effects...)
	return nil
}

// Effects returns a copy of everything executed so far.
func (r *RecordingExecutor) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Effect, len(r.effects))
	copy(out, r.effects)
	return out
}
