package scrub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/psp/osal"
)

// Validator checks candidate configurations against board limits.
type Validator struct {
	platform    Platform
	caps        Capabilities
	pageSize    uint64
	minPriority osal.Priority
	maxPriority osal.Priority

	once     sync.Once
	topOfRAM uint64
}

// NewValidator creates a validator. The top of RAM is queried from the
// platform on first use and cached afterwards.
func NewValidator(
	platform Platform,
	caps Capabilities,
	pageSize uint64,
	minPriority, maxPriority osal.Priority,
) *Validator {
	return &Validator{
		platform:    platform,
		caps:        caps,
		pageSize:    pageSize,
		minPriority: minPriority,
		maxPriority: maxPriority,
	}
}

// TopOfRAM returns the cached top of RAM.
func (v *Validator) TopOfRAM() uint64 {
	v.once.Do(func() {
		v.topOfRAM = v.platform.TopOfRAM()
	})

	return v.topOfRAM
}

// Validate runs every check on the candidate and returns all failures
// joined together, or nil if the candidate is acceptable.
func (v *Validator) Validate(candidate Config) error {
	top := v.TopOfRAM()

	var errs []error

	switch candidate.RunMode {
	case RunModeIdle, RunModeTimed, RunModeManual:
	default:
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidRunMode, candidate.RunMode))
	}

	if candidate.StartAddr > candidate.EndAddr {
		errs = append(errs, fmt.Errorf("%w: start 0x%x, end 0x%x",
			ErrStartAfterEnd, candidate.StartAddr, candidate.EndAddr))
	}

	if candidate.EndAddr > top {
		errs = append(errs, fmt.Errorf("%w: 0x%x above top of RAM 0x%x",
			ErrInvalidEndAddr, candidate.EndAddr, top))
	}

	if v.caps.PriorityConfig &&
		(candidate.TaskPriority < v.minPriority ||
			candidate.TaskPriority > v.maxPriority) {
		errs = append(errs, fmt.Errorf("%w: %d not in [%d, %d]",
			ErrPriorityOutOfRange, candidate.TaskPriority,
			v.minPriority, v.maxPriority))
	}

	if v.caps.BlockSizeConfig {
		maxPages := top / v.pageSize
		if candidate.BlockSizePages < 1 || candidate.BlockSizePages > maxPages {
			errs = append(errs, fmt.Errorf("%w: %d pages not in [1, %d]",
				ErrInvalidBlockSize, candidate.BlockSizePages, maxPages))
		}
	}

	return errors.Join(errs...)
}
