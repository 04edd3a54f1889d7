// Package idgen provides the ID generators used for traced scrub passes.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator can generate IDs.
type Generator interface {
	// Generate an ID.
	Generate() string
}

// NewSequential returns a generator whose first emitted ID is "1".
// Sequential IDs are deterministic and therefore preferred in tests.
func NewSequential() Generator {
	return &sequentialGenerator{}
}

// NewParallel returns a generator backed by xid. The IDs are globally unique
// but not deterministic.
func NewParallel() Generator {
	return parallelGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.next, 1)
	return strconv.FormatUint(idNumber, 10)
}

type parallelGenerator struct{}

func (parallelGenerator) Generate() string {
	return xid.New().String()
}
