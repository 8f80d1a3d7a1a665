package testutil

import (
	"fmt"
	"sync"
)

// SeqIDGenerator returns "op-0001", "op-0002", ... in order.
//
// The same scenario run with a fresh SeqIDGenerator produces identical
// operation ids, which keeps golden traces byte-stable.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SeqIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqIDGenerator creates a generator. An empty prefix means "op".
func NewSeqIDGenerator(prefix string) *SeqIDGenerator {
	if prefix == "" {
		prefix = "op"
	}
	return &SeqIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SeqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
