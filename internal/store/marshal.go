package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/namereg/internal/ir"
)

// marshalMetadata converts metadata to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so equal metadata is byte-identical.
func marshalMetadata(m ir.NameMetadata) (string, error) {
	data, err := ir.MarshalCanonical(ir.MetadataObject(m))
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

// unmarshalMetadata parses canonical JSON TEXT to NameMetadata.
// An absent "keywords" key decodes to nil; "keywords":[] decodes to an
// empty, non-nil slice.
func unmarshalMetadata(data string) (ir.NameMetadata, error) {
	var m ir.NameMetadata
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return ir.NameMetadata{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}

// formatAmount stores uint64 amounts as decimal TEXT; SQLite INTEGER is
// signed 64-bit.
func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

// Timestamps are stored as Unix nanoseconds and read back in UTC.
func toUnixNano(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
