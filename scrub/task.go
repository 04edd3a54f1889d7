package scrub

import (
	"context"
	"fmt"
	"time"

	"github.com/sarchlab/psp/hooking"
	"github.com/sarchlab/psp/osal"
	"github.com/sarchlab/psp/tracing"
)

func (c *Controller) taskEntry(gen uint64) osal.TaskEntry {
	return func(ctx context.Context) {
		if err := c.run(ctx, gen); err != nil {
			c.InvokeHook(hooking.HookCtx{
				Domain: c,
				Pos:    HookPosTaskFault,
				Item:   err,
			})
			c.log.Error().Err(err).Msg("scrub task stopped")
		}
	}
}

// run is the scrub task loop. It returns nil when the task is deleted and an
// error when it stops on a fault.
func (c *Controller) run(ctx context.Context, gen uint64) error {
	var idleStart, idleEnd uint64

	for {
		if ctx.Err() != nil {
			return nil
		}

		switch mode := c.runMode(); mode {
		case RunModeIdle:
			if c.addrChanged.Load() {
				start, end, err := c.snapshotAddresses(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}

					return err
				}

				idleStart, idleEnd = start, end
			}

			if err := c.pass(gen, mode, idleStart, idleEnd); err != nil {
				return err
			}

			if err := c.os.TaskDelay(ctx, 0); err != nil {
				return nil
			}
		case RunModeTimed:
			start, end, seq := c.window()

			if err := c.pass(gen, mode, start, end); err != nil {
				return err
			}

			c.advanceWindow(gen, seq)

			if err := c.os.TaskDelay(ctx, c.taskDelay()); err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return fmt.Errorf("%w: %w", ErrDelay, err)
			}
		case RunModeManual:
			return c.manualPass(gen)
		default:
			panic(fmt.Sprintf("unknown scrub run mode %d", mode))
		}
	}
}

func (c *Controller) manualPass(gen uint64) error {
	start, end, _ := c.window()
	return c.pass(gen, RunModeManual, start, end)
}

// snapshotAddresses copies the region under the configuration semaphore and
// clears the changed flag.
func (c *Controller) snapshotAddresses(ctx context.Context) (uint64, uint64, error) {
	sem := c.semID()

	if err := c.os.TakeBinSem(sem); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrSemaphoreTake, err)
	}

	if ctx.Err() != nil {
		_ = c.os.GiveBinSem(sem)
		return 0, 0, ctx.Err()
	}

	c.lock.Lock()
	start, end := c.cfg.StartAddr, c.cfg.EndAddr
	c.lock.Unlock()

	c.addrChanged.Store(false)

	if err := c.os.GiveBinSem(sem); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrSemaphoreGive, err)
	}

	return start, end, nil
}

func (c *Controller) pass(gen uint64, mode RunMode, start, end uint64) error {
	p := Pass{Mode: mode, Start: start, End: end}
	id := c.idGen.Generate()

	tracing.StartTask(id, "", c, "scrub_pass", mode.String(), p)
	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosPassStart, Item: p})

	pages, err := c.engine.ScrubRange(start, end)
	if err != nil {
		p.Err = err.Error()
		tracing.EndTask(id, c, p)

		return fmt.Errorf("%w: range [0x%x, 0x%x): %w", ErrEngine, start, end, err)
	}

	p.Pages = pages
	c.addProgress(gen, end, pages)

	tracing.EndTask(id, c, p)
	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosPassEnd, Item: p})

	return nil
}

func (c *Controller) addProgress(gen, end, pages uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if gen != c.generation {
		return
	}

	c.cfg.TotalPages += pages
	c.cfg.CurrentPage = end / c.pageSize
}

func (c *Controller) runMode() RunMode {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.cfg.RunMode
}

func (c *Controller) taskDelay() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()

	return time.Duration(c.cfg.TaskDelayMs) * time.Millisecond
}

func (c *Controller) window() (start, end, seq uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.cfg.TimedStartAddr, c.cfg.TimedEndAddr, c.windowSeq
}

// advanceWindow moves the sliding window forward unless the task was
// deleted or Set reset the window since it was read.
func (c *Controller) advanceWindow(gen, seq uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if gen != c.generation || seq != c.windowSeq {
		return
	}

	blockBytes := c.cfg.BlockSizePages * c.pageSize
	c.cfg.TimedStartAddr, c.cfg.TimedEndAddr =
		NextWindow(c.cfg.TimedEndAddr, c.cfg.EndAddr, blockBytes)
}

// NextWindow returns the window that follows one ending at timedEnd. When
// the next full block would pass regionEnd, the window is cut short by the
// remainder of the region, and once the region is exhausted it restarts at
// address zero.
func NextWindow(timedEnd, regionEnd, blockBytes uint64) (start, end uint64) {
	start = timedEnd
	end = timedEnd + blockBytes

	if end > regionEnd {
		if start >= regionEnd {
			return 0, blockBytes
		}

		end = start + regionEnd%blockBytes
	}

	return start, end
}
