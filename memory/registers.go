package memory

import "sync"

// ErrorRegisters are the status registers that expose the engine counters.
// Reading them is only meaningful after a refresh, which latches the live
// counters of the engine.
type ErrorRegisters struct {
	engine *ScrubEngine

	lock    sync.Mutex
	latched ErrorCounters
}

// NewErrorRegisters creates the registers of engine.
func NewErrorRegisters(engine *ScrubEngine) *ErrorRegisters {
	return &ErrorRegisters{engine: engine}
}

// Refresh latches the live counters.
func (r *ErrorRegisters) Refresh() {
	counters := r.engine.LiveCounters()

	r.lock.Lock()
	r.latched = counters
	r.lock.Unlock()
}

// Counters returns the last latched counters.
func (r *ErrorRegisters) Counters() ErrorCounters {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.latched
}
