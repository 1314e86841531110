package memory

import (
	"context"
	"fmt"
	"sync"
)

// NumberGenerator issues sequential document numbers in memory.
type NumberGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
	prefixes map[string]string
}

// NewNumberGenerator creates a generator with the standard prefixes.
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{
		counters: make(map[string]int64),
		prefixes: map[string]string{
			"order": "ORD",
			"quote": "QT",
		},
	}
}

// Next returns the next number for docType, e.g. ORD-000001.
func (g *NumberGenerator) Next(ctx context.Context, docType string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters[docType]++
	prefix, ok := g.prefixes[docType]
	if !ok {
		prefix = docType
	}
	return fmt.Sprintf("%s-%06d", prefix, g.counters[docType]), nil
}
