package board

import (
	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/memory"
	"github.com/sarchlab/psp/osal"
	"github.com/sarchlab/psp/scrub"
)

// Simulator is a board running on the host: a goroutine kernel, sparse RAM
// and a scrub engine over it.
type Simulator struct {
	Board     Board
	Kernel    *osal.Kernel
	Storage   *memory.Storage
	Engine    *memory.ScrubEngine
	Registers *memory.ErrorRegisters
	Platform  *Platform
	Reporter  *Reporter

	logger log.Logger
}

// NewSimulator assembles a simulated b.
func NewSimulator(b Board, logger log.Logger) *Simulator {
	kernel := osal.NewKernel(logger)
	storage := memory.NewStorageWithPageSize(b.RAMSize, b.PageSize)
	engine := memory.NewScrubEngine(storage)
	engine.Configure(memory.EngineConfig{ErrorThreshold: b.ErrorThreshold})
	registers := memory.NewErrorRegisters(engine)

	return &Simulator{
		Board:     b,
		Kernel:    kernel,
		Storage:   storage,
		Engine:    engine,
		Registers: registers,
		Platform:  NewPlatform(b, kernel),
		Reporter:  NewReporter(registers),
		logger:    logger,
	}
}

// CountersSaturated tells if the engine saw as many errors as the board
// threshold allows.
func (s *Simulator) CountersSaturated() bool {
	return s.Engine.CountersSaturated()
}

// ScrubBuilder returns a scrub builder wired to the simulated hardware and
// carrying the board capabilities and defaults.
func (s *Simulator) ScrubBuilder() scrub.Builder {
	return scrub.MakeBuilder().
		WithOS(s.Kernel).
		WithEngine(s.Engine).
		WithPlatform(s.Platform).
		WithErrorReporter(s.Reporter).
		WithCapabilities(s.Board.Capabilities).
		WithPageSize(s.Board.PageSize).
		WithDefaults(s.Board.Defaults).
		WithLogger(s.logger)
}
