package memory

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrEngineDisabled is returned when scrubbing with the engine turned off.
	ErrEngineDisabled = errors.New("scrub engine disabled")

	// ErrInvalidRange is returned when the end of a range precedes its start.
	ErrInvalidRange = errors.New("scrub range end before start")
)

// ErrorCounters are the error counters kept by the scrub engine.
type ErrorCounters struct {
	TotalErrors         uint64
	CorrectedErrors     uint64
	UncorrectableErrors uint64
	TagParityErrors     uint64
	LastErrorAddr       uint64
	ScrubRuns           uint64
}

// EngineConfig is the content of the engine configuration register.
type EngineConfig struct {
	// ErrorThreshold raises CountersSaturated when TotalErrors reaches it.
	// Zero disables the threshold.
	ErrorThreshold uint64
}

// A ScrubEngine reads every page of a range, repairs the correctable upsets
// it finds and counts all of them.
type ScrubEngine struct {
	storage *Storage

	lock      sync.Mutex
	enabled   bool
	config    EngineConfig
	counters  ErrorCounters
	saturated bool
}

// NewScrubEngine creates an enabled engine over storage.
func NewScrubEngine(storage *Storage) *ScrubEngine {
	return &ScrubEngine{
		storage: storage,
		enabled: true,
	}
}

// Enable turns the engine on.
func (e *ScrubEngine) Enable() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.enabled = true
}

// Disable turns the engine off. Scrubbing fails until it is enabled again.
func (e *ScrubEngine) Disable() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.enabled = false
}

// IsEnabled tells if the engine is on.
func (e *ScrubEngine) IsEnabled() bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.enabled
}

// Configure writes the engine configuration register.
func (e *ScrubEngine) Configure(config EngineConfig) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.config = config
}

// CountersSaturated tells if the error threshold was reached.
func (e *ScrubEngine) CountersSaturated() bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.saturated
}

// ScrubRange scrubs the pages overlapping [start, end) and returns how many
// pages were processed. An empty range processes nothing.
func (e *ScrubEngine) ScrubRange(start, end uint64) (uint64, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if !e.enabled {
		return 0, ErrEngineDisabled
	}

	if end < start {
		return 0, fmt.Errorf("%w: [%#x, %#x)", ErrInvalidRange, start, end)
	}

	if end > e.storage.Capacity() {
		return 0, fmt.Errorf("%w: %#x", ErrOutOfRange, end)
	}

	e.counters.ScrubRuns++

	if start == end {
		return 0, nil
	}

	pageSize := e.storage.PageSize()
	pages := (end-1)/pageSize - start/pageSize + 1

	for _, f := range e.storage.repair(start, end) {
		e.count(f)
	}

	return pages, nil
}

func (e *ScrubEngine) count(f Fault) {
	e.counters.TotalErrors++
	e.counters.LastErrorAddr = f.Address

	switch f.Kind {
	case FaultSingleBit:
		e.counters.CorrectedErrors++
	case FaultMultiBit:
		e.counters.UncorrectableErrors++
	case FaultTagParity:
		e.counters.CorrectedErrors++
		e.counters.TagParityErrors++
	}

	if e.config.ErrorThreshold > 0 &&
		e.counters.TotalErrors >= e.config.ErrorThreshold {
		e.saturated = true
	}
}

// LiveCounters returns the counters as they are right now.
func (e *ScrubEngine) LiveCounters() ErrorCounters {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.counters
}

// ResetCounters clears the counters, as a board reset would.
func (e *ScrubEngine) ResetCounters() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.counters = ErrorCounters{}
	e.saturated = false
}
