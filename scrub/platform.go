package scrub

import "github.com/sarchlab/psp/osal"

// An Engine scrubs the half-open address range [start, end) and reports the
// number of pages it touched.
type Engine interface {
	ScrubRange(start, end uint64) (pages uint64, err error)
}

// A Platform answers board-level questions the scrub controller cannot
// answer through the OS abstraction alone.
type Platform interface {
	// TopOfRAM returns the highest valid RAM address.
	TopOfRAM() uint64

	// SetTaskPriority changes the priority of the task with the given name.
	SetTaskPriority(name string, priority osal.Priority) error
}

// An ErrorReporter refreshes and reads the hardware error counters.
type ErrorReporter interface {
	RefreshErrorStats() ErrorStats
}
