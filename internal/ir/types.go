package ir

import (
	"fmt"
	"time"
)

// Coin is an amount of a single denomination.
type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

// String renders the coin as "<amount><denom>", e.g. "1juno".
func (c Coin) String() string {
	return fmt.Sprintf("%d%s", c.Amount, c.Denom)
}

// Config is the registry configuration. It is written once by Init and
// never updated.
type Config struct {
	UnitPrice    Coin   `json:"unit_price"`
	FeeRecipient string `json:"fee_recipient"`
	MaxNameLen   int    `json:"max_name_len"`
}

// NameRecord maps a canonical name to its target address.
type NameRecord struct {
	Owner         string    `json:"owner"`
	TargetAddress string    `json:"target_address"`
	CreatedAt     time.Time `json:"created_at"`
}

// NameMetadata is the descriptive metadata attached to a NameRecord.
//
// Keywords distinguishes nil (never set) from an explicitly empty list.
type NameMetadata struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Favicon     *string  `json:"favicon,omitempty"`
	Logo        *string  `json:"logo,omitempty"`
	Keywords    []string `json:"keywords"`
}

// Clone returns a deep copy of m.
func (m NameMetadata) Clone() NameMetadata {
	out := NameMetadata{
		Title:       cloneString(m.Title),
		Description: cloneString(m.Description),
		Favicon:     cloneString(m.Favicon),
		Logo:        cloneString(m.Logo),
	}
	if m.Keywords != nil {
		out.Keywords = append([]string{}, m.Keywords...)
	}
	return out
}

// PublicNameRecord is the query view of a record joined with its metadata.
type PublicNameRecord struct {
	Owner         string       `json:"owner"`
	CanonicalName string       `json:"canonical_name"`
	TargetAddress string       `json:"target_address"`
	CreatedAt     time.Time    `json:"created_at"`
	Metadata      NameMetadata `json:"metadata"`
}

// ContractVersion is the version marker written by Init and Migrate.
type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Transfer is a fee transfer executed by the host after a registration
// committed.
type Transfer struct {
	ID         string    `json:"id"`
	Recipient  string    `json:"recipient"`
	Amount     Coin      `json:"amount"`
	Memo       string    `json:"memo,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}
