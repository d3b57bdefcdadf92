package fee

import (
	"github.com/roach88/namereg/internal/ir"
)

// Gateway verifies payments and produces transfer instructions.
type Gateway interface {
	// FindPayment scans funds for an entry in required's denomination whose
	// amount is at least required.Amount. It returns the matched entry.
	FindPayment(funds []ir.Coin, required ir.Coin) (ir.Coin, bool)

	// Transfer builds the instruction that moves amount to recipient.
	Transfer(recipient string, amount ir.Coin) TransferDirective
}

// NativeGateway handles native bank coins attached to a call.
type NativeGateway struct{}

// FindPayment implements Gateway.
func (NativeGateway) FindPayment(funds []ir.Coin, required ir.Coin) (ir.Coin, bool) {
	return FindPayment(funds, required)
}

// Transfer implements Gateway.
func (NativeGateway) Transfer(recipient string, amount ir.Coin) TransferDirective {
	return TransferDirective{Recipient: recipient, Amount: amount}
}

// FindPayment returns the first coin in funds matching required's denom
// with an amount >= required.Amount.
func FindPayment(funds []ir.Coin, required ir.Coin) (ir.Coin, bool) {
	for _, c := range funds {
		if c.Denom == required.Denom && c.Amount >= required.Amount {
			return c, true
		}
	}
	return ir.Coin{}, false
}

// TransferDirective instructs the host to move Amount to Recipient.
type TransferDirective struct {
	Recipient string  `json:"recipient"`
	Amount    ir.Coin `json:"amount"`
}

// EffectKind identifies the kind of deferred effect.
type EffectKind string

const (
	// EffectTransfer moves funds to a recipient.
	EffectTransfer EffectKind = "transfer"
)

// Effect is a deferred action returned by a successful operation.
//
// ID is an operation token unique per effect. Executors use it to make
// execution idempotent.
type Effect struct {
	ID       string            `json:"id"`
	Kind     EffectKind        `json:"kind"`
	Transfer TransferDirective `json:"transfer"`
	Memo     string            `json:"memo,omitempty"`
}

// NewTransferEffect wraps a directive in an Effect.
func NewTransferEffect(id string, d TransferDirective, memo string) Effect {
	return Effect{ID: id, Kind: EffectTransfer, Transfer: d, Memo: memo}
}
