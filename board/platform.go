package board

import (
	"fmt"

	"github.com/sarchlab/psp/memory"
	"github.com/sarchlab/psp/osal"
	"github.com/sarchlab/psp/scrub"
)

// Platform answers the board queries of the scrub controller.
type Platform struct {
	board Board
	tasks osal.Tasks
}

var _ scrub.Platform = (*Platform)(nil)

// NewPlatform creates the platform of b. Tasks are re-prioritized through
// tasks.
func NewPlatform(b Board, tasks osal.Tasks) *Platform {
	return &Platform{board: b, tasks: tasks}
}

// TopOfRAM returns the highest valid RAM address.
func (p *Platform) TopOfRAM() uint64 {
	return p.board.TopOfRAM()
}

// SetTaskPriority looks the task up by name and changes its priority.
func (p *Platform) SetTaskPriority(name string, priority osal.Priority) error {
	id, err := p.tasks.TaskIDByName(name)
	if err != nil {
		return fmt.Errorf("task %q: %w", name, err)
	}

	return p.tasks.SetTaskPriority(id, priority)
}

// Reporter reads the error counters of a scrub engine through its status
// registers.
type Reporter struct {
	registers *memory.ErrorRegisters
}

var _ scrub.ErrorReporter = (*Reporter)(nil)

// NewReporter creates a reporter over registers.
func NewReporter(registers *memory.ErrorRegisters) *Reporter {
	return &Reporter{registers: registers}
}

// RefreshErrorStats latches the engine counters and returns them.
func (r *Reporter) RefreshErrorStats() scrub.ErrorStats {
	r.registers.Refresh()
	c := r.registers.Counters()

	return scrub.ErrorStats{
		TotalErrors:     c.TotalErrors,
		CorrectedErrors: c.CorrectedErrors,
		MultiBitErrors:  c.UncorrectableErrors,
		TagParityErrors: c.TagParityErrors,
		LastErrorAddr:   c.LastErrorAddr,
		ScrubRuns:       c.ScrubRuns,
	}
}
