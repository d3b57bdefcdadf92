package testutil

import (
	"fmt"
	"sync"
)

// SequenceTokenGenerator produces "<prefix>-<n>" operation tokens with n
// starting at 1.
//
// Used in place of UUIDv7 tokens so that golden traces are byte-identical
// across runs.
//
// Thread-safety: SequenceTokenGenerator is safe for concurrent use.
type SequenceTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokenGenerator creates a generator. An empty prefix defaults
// to "op".
func NewSequenceTokenGenerator(prefix string) *SequenceTokenGenerator {
	if prefix == "" {
		prefix = "op"
	}
	return &SequenceTokenGenerator{prefix: prefix}
}

// Generate returns the next token in the sequence.
func (g *SequenceTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
