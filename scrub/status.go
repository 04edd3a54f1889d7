package scrub

import "fmt"

// Snapshot returns a consistent copy of the configuration and progress.
func (c *Controller) Snapshot() Config {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.cfg
}

// Get writes the configuration record into buf and returns the number of
// bytes written. With talkative set every field is also logged.
func (c *Controller) Get(buf []byte, talkative bool) (int, error) {
	if len(buf) < ConfigRecordSize {
		c.log.Error().Int("size", len(buf)).Msg("scrub configuration buffer too small")
		return 0, fmt.Errorf("%w: %d < %d", ErrBufferTooSmall, len(buf), ConfigRecordSize)
	}

	cfg := c.Snapshot()

	n, err := cfg.encodeTo(buf)
	if err != nil {
		return 0, err
	}

	if talkative {
		c.logConfig(cfg)
	}

	return n, nil
}

// Stats returns the last known error statistics. With talkative set the
// hardware counters are refreshed first and every counter is logged.
func (c *Controller) Stats(talkative bool) ErrorStats {
	if talkative && c.reporter != nil {
		fresh := c.reporter.RefreshErrorStats()

		c.lock.Lock()
		c.stats = fresh
		c.lock.Unlock()

		c.logStats(fresh)

		return fresh
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	return c.stats
}

// ErrStats writes the error statistics record into buf and returns the
// number of bytes written.
func (c *Controller) ErrStats(buf []byte, talkative bool) (int, error) {
	if len(buf) < ErrorStatsRecordSize {
		c.log.Error().Int("size", len(buf)).Msg("scrub statistics buffer too small")
		return 0, fmt.Errorf("%w: %d < %d", ErrBufferTooSmall, len(buf), ErrorStatsRecordSize)
	}

	return c.Stats(talkative).encodeTo(buf)
}

func (c *Controller) logConfig(cfg Config) {
	c.log.Info().
		Str("run_mode", cfg.RunMode.String()).
		Str("start_addr", hex(cfg.StartAddr)).
		Str("end_addr", hex(cfg.EndAddr)).
		Uint64("block_size_pages", cfg.BlockSizePages).
		Uint32("task_delay_ms", cfg.TaskDelayMs).
		Str("timed_start_addr", hex(cfg.TimedStartAddr)).
		Str("timed_end_addr", hex(cfg.TimedEndAddr)).
		Uint32("task_priority", uint32(cfg.TaskPriority)).
		Uint32("min_priority", uint32(cfg.MinPriority)).
		Uint32("max_priority", uint32(cfg.MaxPriority)).
		Uint64("current_page", cfg.CurrentPage).
		Uint64("total_pages", cfg.TotalPages).
		Uint32("task_id", uint32(cfg.TaskID)).
		Msg("scrub configuration")
}

func (c *Controller) logStats(s ErrorStats) {
	c.log.Info().
		Uint64("total_errors", s.TotalErrors).
		Uint64("corrected_errors", s.CorrectedErrors).
		Uint64("multi_bit_errors", s.MultiBitErrors).
		Uint64("tag_parity_errors", s.TagParityErrors).
		Str("last_error_addr", hex(s.LastErrorAddr)).
		Uint64("scrub_runs", s.ScrubRuns).
		Msg("scrub error statistics")
}
