package scrub

import (
	"fmt"
	"strings"

	"github.com/sarchlab/psp/osal"
)

// RunMode selects how the scrub task picks its next range and whether it
// loops.
type RunMode uint32

const (
	// RunModeIdle loops forever over the full region, picking up new
	// addresses only when Set changes them.
	RunModeIdle RunMode = iota

	// RunModeTimed scrubs one block-sized window per iteration and sleeps
	// between iterations.
	RunModeTimed

	// RunModeManual scrubs the current window once and returns.
	RunModeManual
)

func (m RunMode) String() string {
	switch m {
	case RunModeIdle:
		return "idle"
	case RunModeTimed:
		return "timed"
	case RunModeManual:
		return "manual"
	default:
		return fmt.Sprintf("RunMode(%d)", uint32(m))
	}
}

// ParseRunMode is the inverse of RunMode.String.
func ParseRunMode(s string) (RunMode, error) {
	switch strings.ToLower(s) {
	case "idle":
		return RunModeIdle, nil
	case "timed":
		return RunModeTimed, nil
	case "manual":
		return RunModeManual, nil
	default:
		return 0, fmt.Errorf("unknown run mode %q", s)
	}
}

// Config is the scrub configuration together with the live progress of the
// scrub task.
type Config struct {
	RunMode RunMode `json:"run_mode"`

	// The full region. EndAddr of zero means top of RAM.
	StartAddr uint64 `json:"start_addr"`
	EndAddr   uint64 `json:"end_addr"`

	// Timed mode pacing.
	BlockSizePages uint64 `json:"block_size_pages"`
	TaskDelayMs    uint32 `json:"task_delay_ms"`

	// The current sliding window of timed and manual modes.
	TimedStartAddr uint64 `json:"timed_start_addr"`
	TimedEndAddr   uint64 `json:"timed_end_addr"`

	TaskPriority osal.Priority `json:"task_priority"`
	MinPriority  osal.Priority `json:"min_priority"`
	MaxPriority  osal.Priority `json:"max_priority"`

	// Progress, written by the scrub task only.
	CurrentPage uint64 `json:"current_page"`
	TotalPages  uint64 `json:"total_pages"`

	TaskID osal.TaskID `json:"task_id"`
}

// DefaultConfig returns the compiled-in defaults used when a builder is not
// given any.
func DefaultConfig() Config {
	return Config{
		RunMode:        RunModeTimed,
		StartAddr:      0,
		EndAddr:        0,
		BlockSizePages: 16,
		TaskDelayMs:    100,
		TaskPriority:   200,
		MinPriority:    100,
		MaxPriority:    250,
		TaskID:         osal.UndefinedID,
	}
}

// Capabilities tell which settings a board lets callers change. A board that
// lacks a capability also skips the matching validation check.
type Capabilities struct {
	PriorityConfig  bool
	BlockSizeConfig bool
}

// FullCapabilities enables every setting.
func FullCapabilities() Capabilities {
	return Capabilities{PriorityConfig: true, BlockSizeConfig: true}
}

// ErrorStats are the ECC error counters reported by the hardware.
type ErrorStats struct {
	TotalErrors     uint64 `json:"total_errors"`
	CorrectedErrors uint64 `json:"corrected_errors"`
	MultiBitErrors  uint64 `json:"multi_bit_errors"`
	TagParityErrors uint64 `json:"tag_parity_errors"`
	LastErrorAddr   uint64 `json:"last_error_addr"`
	ScrubRuns       uint64 `json:"scrub_runs"`
}
