package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/psp/board"
	"github.com/sarchlab/psp/idgen"
	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/osal"
	"github.com/sarchlab/psp/scrub"
	"github.com/sarchlab/psp/tracing"
)

const scrubTaskName = "MemScrub"

// session is one simulated board with its scrubber.
type session struct {
	opts      options
	logger    log.Logger
	sim       *board.Simulator
	scrubber  *scrub.Controller
	passTimer *tracing.AverageTimeTracer
	traceDB   *tracing.SQLiteTraceWriter
	injector  *board.Injector

	cancelInjector context.CancelFunc
	shutdownOnce   sync.Once
}

func newSession(opts options) (*session, error) {
	b, err := board.ByName(opts.Board)
	if err != nil {
		return nil, err
	}

	logger := log.NewConsoleLogger(opts.LogLevel, os.Stderr)
	sim := board.NewSimulator(b, logger)

	s := &session{
		opts:   opts,
		logger: logger,
		sim:    sim,
		scrubber: sim.ScrubBuilder().
			WithAutoStart(opts.AutoStart).
			WithIDGenerator(idgen.NewParallel()).
			Build(scrubTaskName),
		passTimer: tracing.NewAverageTimeTracer(tracing.WallClock{}, nil),
	}

	tracing.CollectTrace(s.scrubber, s.passTimer)

	if opts.TraceDB != "" {
		s.traceDB = tracing.NewSQLiteTraceWriter(opts.TraceDB, tracing.WallClock{})
		s.traceDB.Init()
		tracing.CollectTrace(s.scrubber, s.traceDB)
	}

	if opts.InjectRate > 0 {
		interval := time.Duration(float64(time.Second) / opts.InjectRate)
		s.injector = board.NewInjector(sim.Storage, interval, 100,
			uint64(time.Now().UnixNano()), logger)
	}

	atexit.Register(s.shutdown)

	return s, nil
}

// start initializes the scrubber, applies the options and starts injecting
// upsets.
func (s *session) start() error {
	if err := s.scrubber.Init(); err != nil {
		return err
	}

	candidate, err := candidateFrom(s.opts, s.scrubber.Snapshot(), s.scrubber.TopOfRAM())
	if err != nil {
		return err
	}

	if err := s.scrubber.Set(candidate); err != nil {
		return err
	}

	if s.injector != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancelInjector = cancel

		go s.injector.Run(ctx)
	}

	return nil
}

// shutdown stops injecting, deletes the scrubber and flushes the traces. It
// can be called more than once.
func (s *session) shutdown() {
	s.shutdownOnce.Do(func() {
		if s.cancelInjector != nil {
			s.cancelInjector()
		}

		if err := s.scrubber.Delete(); err != nil {
			s.logger.Warn().Err(err).Msg("unable to delete scrubber")
		}

		s.sim.Kernel.Wait()

		if s.traceDB != nil {
			s.traceDB.Flush()
			fmt.Fprintf(os.Stderr, "Scrub passes recorded in %s\n", s.traceDB.FileName())
		}
	})
}

// candidateFrom applies the options on top of the current configuration.
// Zero options keep the current values, and a zero end address means top
// of RAM.
func candidateFrom(opts options, current scrub.Config, topOfRAM uint64) (scrub.Config, error) {
	candidate := current

	if opts.Mode != "" {
		mode, err := scrub.ParseRunMode(opts.Mode)
		if err != nil {
			return candidate, err
		}

		candidate.RunMode = mode
	}

	candidate.StartAddr = opts.Start

	candidate.EndAddr = opts.End
	if candidate.EndAddr == 0 {
		candidate.EndAddr = topOfRAM
	}

	if opts.Block != 0 {
		candidate.BlockSizePages = opts.Block
	}

	if opts.Delay != 0 {
		candidate.TaskDelayMs = uint32(opts.Delay.Milliseconds())
	}

	if opts.Priority != 0 {
		candidate.TaskPriority = osal.Priority(opts.Priority)
	}

	return candidate, nil
}

func (s *session) summary() runSummary {
	sum := runSummary{
		passes:    s.passTimer.TotalCount(),
		avgPass:   s.passTimer.AverageTime(),
		saturated: s.sim.CountersSaturated(),
	}

	if s.injector != nil {
		sum.injected = s.injector.Injected()
	}

	return sum
}
