package fee

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/namereg/internal/ir"
)

// denomPattern matches bank denominations: a letter followed by letters,
// digits or the separators '/', ':', '.', '_' and '-', 3 to 128 chars.
var denomPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/:._-]{2,127}$`)

var coinPattern = regexp.MustCompile(`^([0-9]+)\s*([a-zA-Z][a-zA-Z0-9/:._-]*)$`)

// ValidateDenom checks denomination syntax.
func ValidateDenom(denom string) error {
	if !denomPattern.MatchString(denom) {
		return fmt.Errorf("invalid denom %q", denom)
	}
	return nil
}

// ParseCoin parses a single coin such as "100ujuno".
func ParseCoin(s string) (ir.Coin, error) {
	s = strings.TrimSpace(s)
	m := coinPattern.FindStringSubmatch(s)
	if m == nil {
		return ir.Coin{}, fmt.Errorf("invalid coin %q", s)
	}
	amount, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return ir.Coin{}, fmt.Errorf("invalid coin %q: %w", s, err)
	}
	if err := ValidateDenom(m[2]); err != nil {
		return ir.Coin{}, fmt.Errorf("invalid coin %q: %w", s, err)
	}
	return ir.Coin{Denom: m[2], Amount: amount}, nil
}

// ParseCoins parses a comma-separated coin list such as "1juno,5atom".
// An empty string yields no coins. Denominations must not repeat.
func ParseCoins(s string) ([]ir.Coin, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	coins := make([]ir.Coin, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		c, err := ParseCoin(part)
		if err != nil {
			return nil, err
		}
		if seen[c.Denom] {
			return nil, fmt.Errorf("duplicate denom %q", c.Denom)
		}
		seen[c.Denom] = true
		coins = append(coins, c)
	}
	return coins, nil
}

// FormatCoins renders coins in the form ParseCoins accepts.
func FormatCoins(coins []ir.Coin) string {
	parts := make([]string, len(coins))
	for i, c := range coins {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
