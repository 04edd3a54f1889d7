// Package board describes the boards the PSP runs on and assembles
// simulated instances of them.
package board

import (
	"fmt"
	"sort"

	"github.com/sarchlab/psp/memory"
	"github.com/sarchlab/psp/scrub"
)

// Board is a hardware variant seen from the scrub subsystem.
type Board struct {
	Name         string
	PageSize     uint64
	RAMSize      uint64
	Capabilities scrub.Capabilities
	Defaults     scrub.Config

	// ErrorThreshold saturates the engine counters once this many errors
	// were seen. Zero means no threshold.
	ErrorThreshold uint64
}

// PC686 is the commodity single-board computer. It cannot change the scrub
// task priority or the block size, so neither is validated.
func PC686() Board {
	return Board{
		Name:         "pc686",
		PageSize:     memory.DefaultPageSize,
		RAMSize:      1 * memory.GB,
		Capabilities: scrub.Capabilities{},
		Defaults: scrub.Config{
			RunMode:        scrub.RunModeIdle,
			BlockSizePages: 16,
			TaskDelayMs:    100,
			TaskPriority:   250,
			MinPriority:    1,
			MaxPriority:    255,
		},
	}
}

// GR740 is the radiation-tolerant quad-core board.
func GR740() Board {
	return Board{
		Name:         "gr740",
		PageSize:     memory.DefaultPageSize,
		RAMSize:      256 * memory.MB,
		Capabilities: scrub.FullCapabilities(),
		Defaults: scrub.Config{
			RunMode:        scrub.RunModeTimed,
			BlockSizePages: 16,
			TaskDelayMs:    100,
			TaskPriority:   200,
			MinPriority:    100,
			MaxPriority:    250,
		},
		ErrorThreshold: 1 << 16,
	}
}

var boards = map[string]func() Board{
	"pc686": PC686,
	"gr740": GR740,
}

// ByName returns the board with the given name.
func ByName(name string) (Board, error) {
	b, ok := boards[name]
	if !ok {
		return Board{}, fmt.Errorf("unknown board %q, available: %v", name, Names())
	}

	return b(), nil
}

// Names lists the known boards.
func Names() []string {
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// TopOfRAM returns the highest valid RAM address.
func (b Board) TopOfRAM() uint64 {
	return b.RAMSize - 1
}
