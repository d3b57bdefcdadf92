// Package address validates target addresses.
//
// Addresses are bech32 strings in canonical (lowercase) form whose payload
// decodes to a 20- or 32-byte account or contract address, optionally
// restricted to a set of human-readable prefixes.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid address")

// Validator checks address syntax.
type Validator interface {
	Validate(addr string) error
}

// Bech32 validates bech32 addresses.
// The zero value accepts any human-readable prefix.
type Bech32 struct {
	prefixes []string
}

// NewBech32 creates a validator. If prefixes is empty every prefix is
// accepted.
func NewBech32(prefixes ...string) *Bech32 {
	p := make([]string, 0, len(prefixes))
	for _, s := range prefixes {
		if s = strings.TrimSpace(s); s != "" {
			p = append(p, strings.ToLower(s))
		}
	}
	return &Bech32{prefixes: p}
}

// Validate returns nil if addr is a canonical bech32 address.
func (v *Bech32) Validate(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty", ErrInvalid)
	}
	if addr != strings.ToLower(addr) {
		return fmt.Errorf("%w: %q is not in canonical lowercase form", ErrInvalid, addr)
	}

	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !v.allows(hrp) {
		return fmt.Errorf("%w: prefix %q not accepted", ErrInvalid, hrp)
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch len(payload) {
	case 20, 32:
		return nil
	default:
		return fmt.Errorf("%w: payload length %d", ErrInvalid, len(payload))
	}
}

func (v *Bech32) allows(hrp string) bool {
	if v == nil || len(v.prefixes) == 0 {
		return true
	}
	for _, p := range v.prefixes {
		if p == hrp {
			return true
		}
	}
	return false
}

// IsValid reports whether addr passes v.
func IsValid(v Validator, addr string) bool {
	return v.Validate(addr) == nil
}

// Encode builds a bech32 address from a raw payload. Used by tests and
// tooling to produce valid fixtures.
func Encode(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("encode address: %w", err)
	}
	addr, err := bech32.Encode(hrp, data)
	if err != nil {
		return "", fmt.Errorf("encode address: %w", err)
	}
	return addr, nil
}

// MustEncode is Encode that panics on error.
func MustEncode(hrp string, payload []byte) string {
	addr, err := Encode(hrp, payload)
	if err != nil {
		panic(err)
	}
	return addr
}
