package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/namereg/internal/fee"
	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/store"
)

// RegisterRequest is the input to Register. Metadata is optional; nil
// stores default-empty metadata.
type RegisterRequest struct {
	Name          string
	Owner         string
	TargetAddress string
	Metadata      *ir.NameMetadata
}

// RegisterResult is returned by a successful Register. Effects must be
// executed by the caller after Register returns.
type RegisterResult struct {
	CanonicalName string        `json:"canonical_name"`
	Record        ir.NameRecord `json:"record"`
	Effects       []fee.Effect  `json:"effects"`
}

// Register creates a name record and its metadata.
//
// Checks run in order and the first failure is returned: NameExists,
// ValidationError (name, owner, address, metadata), InsufficientFunds.
// Nothing is written unless every check passes, and then the record,
// metadata and reverse index row are written in one transaction.
func (r *Registry) Register(ctx context.Context, rc Context, req RegisterRequest) (res RegisterResult, err error) {
	defer func() { r.metrics.observe("register", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := ir.CanonicalName(req.Name)

	exists, err := r.store.HasName(ctx, canonical)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("register: %w", err)
	}
	if exists {
		return RegisterResult{}, newError(KindNameExists, "the name %s is already registered", req.Name)
	}

	if err := validateName(canonical, rc.Config.MaxNameLen); err != nil {
		return RegisterResult{}, err
	}
	if req.Owner == "" {
		return RegisterResult{}, newError(KindValidation, "owner must not be empty")
	}
	if err := r.address.Validate(req.TargetAddress); err != nil {
		return RegisterResult{}, newError(KindValidation, "%s is not a valid address: %v", req.TargetAddress, err)
	}

	meta := ir.NameMetadata{}
	if req.Metadata != nil {
		if err := r.limits.Validate(ir.PatchFromMetadata(*req.Metadata)); err != nil {
			return RegisterResult{}, err
		}
		meta = req.Metadata.Clone()
	}

	price := rc.Config.UnitPrice
	if _, ok := r.gateway.FindPayment(rc.Funds, price); !ok {
		return RegisterResult{}, newError(KindInsufficientFunds, "expected %s", price)
	}

	rec := ir.NameRecord{
		Owner:         req.Owner,
		TargetAddress: req.TargetAddress,
		CreatedAt:     rc.BlockTime.UTC(),
	}
	err = r.store.InsertName(ctx, canonical, rec, meta)
	if errors.Is(err, store.ErrNameExists) {
		return RegisterResult{}, newError(KindNameExists, "the name %s is already registered", req.Name)
	}
	if err != nil {
		return RegisterResult{}, fmt.Errorf("register: %w", err)
	}

	transfer := r.gateway.Transfer(rc.Config.FeeRecipient, price)
	effect := fee.NewTransferEffect(r.tokens.Generate(), transfer, "register "+canonical)
	r.metrics.addRecord(price)

	slog.Info("name registered",
		"name", canonical,
		"owner", req.Owner,
		"target", req.TargetAddress,
		"fee", price.String())

	return RegisterResult{
		CanonicalName: canonical,
		Record:        rec,
		Effects:       []fee.Effect{effect},
	}, nil
}
