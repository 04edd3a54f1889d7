// Package scrub implements the active memory scrubbing controller.
//
// A Controller owns a background task that repeatedly asks a scrub engine
// to read and repair a range of RAM. The task runs in one of three modes:
// idle mode sweeps the whole configured region forever, timed mode sweeps a
// block-sized window per iteration and sleeps in between, and manual mode
// sweeps one window on request. The configuration is guarded by a named
// binary semaphore of the OS abstraction, so that reconfiguration and task
// teardown never interleave with an address snapshot.
package scrub

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/psp/hooking"
	"github.com/sarchlab/psp/idgen"
	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/osal"
)

// Controller is the scrub subsystem. Create one with a Builder.
type Controller struct {
	hooking.HookableBase

	name     string
	semName  string
	os       osal.OS
	engine   Engine
	platform Platform
	reporter ErrorReporter

	validator *Validator
	caps      Capabilities
	pageSize  uint64
	defaults  Config
	autoStart bool
	idGen     idgen.Generator
	log       log.Logger

	sem atomic.Uint32

	// lifecycle serializes Enable, Disable and Delete.
	lifecycle sync.Mutex

	// addrChanged tells an idle task to snapshot the addresses again.
	addrChanged atomic.Bool

	// lock guards the fields below. It is never held across an OS call.
	lock  sync.Mutex
	cfg   Config
	stats ErrorStats

	// generation changes whenever a task is created or deleted. A task only
	// writes progress while the generation it was started with is current.
	generation uint64

	// windowSeq changes whenever Set resets the sliding window.
	windowSeq uint64
}

// Name returns the name of the scrub task.
func (c *Controller) Name() string {
	return c.name
}

// SemaphoreName returns the name of the configuration semaphore.
func (c *Controller) SemaphoreName() string {
	return c.semName
}

// PageSize returns the page size the controller counts progress in.
func (c *Controller) PageSize() uint64 {
	return c.pageSize
}

// Capabilities returns the board capabilities.
func (c *Controller) Capabilities() Capabilities {
	return c.caps
}

// TopOfRAM returns the highest valid address, querying the platform only
// the first time.
func (c *Controller) TopOfRAM() uint64 {
	return c.validator.TopOfRAM()
}

func (c *Controller) semID() osal.SemID {
	return osal.SemID(c.sem.Load())
}

// Init creates the configuration semaphore, resets the progress counters and
// substitutes the top of RAM for a zero end address. If the controller was
// built with auto start and the run mode is not manual, the task is enabled.
func (c *Controller) Init() error {
	id, err := c.os.CreateBinSem(c.semName, 1)
	if err != nil {
		if errors.Is(err, osal.ErrNameTaken) {
			c.log.Warn().Str("semaphore", c.semName).Msg("scrub already initialized")
			return fmt.Errorf("%w: %w", ErrAlreadyInitialized, err)
		}

		c.log.Error().Err(err).Msg("unable to create scrub semaphore")

		return fmt.Errorf("%w: %w", ErrSemaphoreCreate, err)
	}

	c.sem.Store(uint32(id))

	c.lock.Lock()
	c.cfg.CurrentPage = 0
	c.cfg.TotalPages = 0

	if c.cfg.EndAddr == 0 {
		c.cfg.EndAddr = c.validator.TopOfRAM()
	}

	mode := c.cfg.RunMode
	c.lock.Unlock()

	c.log.Info().
		Uint32("semaphore", uint32(id)).
		Str("mode", mode.String()).
		Msg("scrub initialized")

	if c.autoStart && mode != RunModeManual {
		return c.Enable()
	}

	return nil
}

// IsRunning reports whether the scrub task exists.
func (c *Controller) IsRunning() bool {
	_, err := c.os.TaskIDByName(c.name)
	return err == nil
}

// Enable starts the scrub task. It does nothing if the task is already
// running.
func (c *Controller) Enable() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.IsRunning() {
		return nil
	}

	if c.semID() == osal.UndefinedID {
		return ErrSemaphoreNotCreated
	}

	c.lock.Lock()
	c.generation++
	gen := c.generation
	priority := c.cfg.TaskPriority
	c.lock.Unlock()

	id, err := c.os.CreateTask(c.name, c.taskEntry(gen), priority)
	if err != nil {
		c.log.Error().Err(err).Msg("unable to create scrub task")
		return fmt.Errorf("%w: %w", ErrTaskCreate, err)
	}

	c.lock.Lock()
	if c.generation == gen {
		c.cfg.TaskID = id
	}
	c.lock.Unlock()

	c.log.Info().Uint32("task", uint32(id)).Uint32("priority", uint32(priority)).
		Msg("scrub task enabled")

	return nil
}

// Disable stops the scrub task. It does nothing if the task is not running.
// The task is deleted while the configuration semaphore is held, so it never
// dies between snapshotting the addresses and releasing the semaphore.
func (c *Controller) Disable() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	return c.disable()
}

func (c *Controller) disable() error {
	id, err := c.os.TaskIDByName(c.name)
	if err != nil {
		return nil
	}

	sem := c.semID()
	if sem == osal.UndefinedID {
		return ErrSemaphoreNotCreated
	}

	if err := c.os.TakeBinSem(sem); err != nil {
		c.log.Error().Err(err).Msg("unable to take scrub semaphore")
		return fmt.Errorf("%w: %w", ErrSemaphoreTake, err)
	}

	if err := c.os.DeleteTask(id); err != nil {
		c.log.Error().Err(err).Msg("unable to delete scrub task")

		result := fmt.Errorf("%w: %w", ErrTaskDelete, err)
		if giveErr := c.os.GiveBinSem(sem); giveErr != nil {
			result = errors.Join(result, fmt.Errorf("%w: %w", ErrSemaphoreGive, giveErr))
		}

		return result
	}

	c.lock.Lock()
	c.generation++
	c.cfg.TaskID = osal.UndefinedID
	c.lock.Unlock()

	if err := c.os.GiveBinSem(sem); err != nil {
		c.log.Error().Err(err).Msg("unable to give scrub semaphore")
		return fmt.Errorf("%w: %w", ErrSemaphoreGive, err)
	}

	c.lock.Lock()
	c.cfg.CurrentPage = 0
	c.cfg.TotalPages = 0
	c.lock.Unlock()

	c.log.Info().Uint32("task", uint32(id)).Msg("scrub task disabled")

	return nil
}

// Delete disables the task, restores the compiled-in configuration and
// deletes the configuration semaphore. Init must be called again before the
// controller can be used.
func (c *Controller) Delete() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if err := c.disable(); err != nil {
		return err
	}

	sem := c.semID()
	if sem == osal.UndefinedID {
		return ErrSemaphoreNotCreated
	}

	if err := c.os.TakeBinSem(sem); err != nil {
		c.log.Error().Err(err).Msg("unable to take scrub semaphore")
		return fmt.Errorf("%w: %w", ErrSemaphoreTake, err)
	}

	c.lock.Lock()
	c.cfg = c.defaults
	c.windowSeq++
	c.lock.Unlock()
	c.addrChanged.Store(false)

	if err := c.os.DeleteBinSem(sem); err != nil {
		c.log.Error().Err(err).Msg("unable to delete scrub semaphore")

		result := fmt.Errorf("%w: %w", ErrSemaphoreDelete, err)
		if giveErr := c.os.GiveBinSem(sem); giveErr != nil {
			result = errors.Join(result, fmt.Errorf("%w: %w", ErrSemaphoreGive, giveErr))
		}

		return result
	}

	c.sem.Store(osal.UndefinedID)

	c.log.Info().Msg("scrub deleted")

	return nil
}

// Trigger runs one manual pass over the current window in the calling
// goroutine. It is refused in idle and timed mode, where the task scrubs on
// its own.
func (c *Controller) Trigger() error {
	if c.IsRunning() {
		return ErrAlreadyRunning
	}

	if c.semID() == osal.UndefinedID {
		return ErrNotInitialized
	}

	c.lock.Lock()
	mode := c.cfg.RunMode
	gen := c.generation
	c.lock.Unlock()

	if mode != RunModeManual {
		return fmt.Errorf("%w: mode is %s", ErrTriggerNotManual, mode)
	}

	c.log.Debug().Msg("scrub triggered")

	return c.manualPass(gen)
}

// Set validates the candidate and, if it passes, applies the run mode, the
// region, the timed pacing and the priority. The sliding window and the
// progress counters restart. Settings the board does not support are
// ignored. The candidate's window, bounds, progress and task ID are
// read-only and ignored as well.
func (c *Controller) Set(candidate Config) error {
	sem := c.semID()
	if sem == osal.UndefinedID {
		return ErrSemaphoreNotCreated
	}

	if err := c.os.TakeBinSem(sem); err != nil {
		c.log.Error().Err(err).Msg("unable to take scrub semaphore")
		return fmt.Errorf("%w: %w", ErrSemaphoreTake, err)
	}

	if err := c.validator.Validate(candidate); err != nil {
		c.log.Warn().Err(err).Msg("scrub configuration rejected")

		result := fmt.Errorf("%w: %w", ErrValidation, err)
		if giveErr := c.os.GiveBinSem(sem); giveErr != nil {
			result = errors.Join(result, fmt.Errorf("%w: %w", ErrSemaphoreGive, giveErr))
		}

		return result
	}

	c.lock.Lock()
	prevPriority := c.cfg.TaskPriority
	c.cfg.RunMode = candidate.RunMode
	c.cfg.StartAddr = candidate.StartAddr
	c.cfg.EndAddr = candidate.EndAddr
	c.cfg.TaskDelayMs = candidate.TaskDelayMs

	if c.caps.BlockSizeConfig {
		c.cfg.BlockSizePages = candidate.BlockSizePages
	}

	c.cfg.TimedStartAddr = 0
	c.cfg.TimedEndAddr = c.cfg.BlockSizePages * c.pageSize
	c.windowSeq++
	c.cfg.CurrentPage = 0
	c.cfg.TotalPages = 0
	c.lock.Unlock()

	c.addrChanged.Store(true)

	var result error

	if c.caps.PriorityConfig && candidate.TaskPriority != prevPriority {
		if err := c.reprioritize(candidate.TaskPriority); err != nil {
			c.log.Error().Err(err).Msg("unable to change scrub task priority")
			result = fmt.Errorf("%w: %w", ErrPrioritize, err)
		}
	}

	if err := c.os.GiveBinSem(sem); err != nil {
		c.log.Error().Err(err).Msg("unable to give scrub semaphore")
		result = errors.Join(result, fmt.Errorf("%w: %w", ErrSemaphoreGive, err))
	}

	if result == nil {
		c.log.Info().
			Str("mode", candidate.RunMode.String()).
			Str("start", hex(candidate.StartAddr)).
			Str("end", hex(candidate.EndAddr)).
			Msg("scrub configuration applied")
	}

	return result
}

func (c *Controller) reprioritize(priority osal.Priority) error {
	if c.IsRunning() {
		if err := c.platform.SetTaskPriority(c.name, priority); err != nil {
			return err
		}
	}

	c.lock.Lock()
	c.cfg.TaskPriority = priority
	c.lock.Unlock()

	return nil
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
