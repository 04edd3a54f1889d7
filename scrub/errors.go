package scrub

import "errors"

// Precondition errors. They are detected before any state changes.
var (
	ErrSemaphoreNotCreated = errors.New("scrub: semaphore not created")
	ErrAlreadyInitialized  = errors.New("scrub: already initialized")
	ErrNotInitialized      = errors.New("scrub: not initialized")
	ErrAlreadyRunning      = errors.New("scrub: task already running")
	ErrTriggerNotManual    = errors.New("scrub: trigger only works in manual mode")
	ErrBufferTooSmall      = errors.New("scrub: output buffer too small")
)

// Validation errors. Validate joins every failing check, each wrapped in
// ErrValidation by Set.
var (
	ErrValidation         = errors.New("scrub: did not pass validation")
	ErrInvalidRunMode     = errors.New("unknown run mode")
	ErrStartAfterEnd      = errors.New("start address after end address")
	ErrInvalidEndAddr     = errors.New("invalid end address")
	ErrPriorityOutOfRange = errors.New("priority outside range")
	ErrInvalidBlockSize   = errors.New("incorrect block size")
)

// Operating system primitive failures.
var (
	ErrSemaphoreCreate = errors.New("scrub: unable to create semaphore")
	ErrSemaphoreTake   = errors.New("scrub: unable to take semaphore")
	ErrSemaphoreGive   = errors.New("scrub: unable to give semaphore")
	ErrSemaphoreDelete = errors.New("scrub: unable to delete semaphore")
	ErrTaskCreate      = errors.New("scrub: unable to create task")
	ErrTaskDelete      = errors.New("scrub: unable to delete task")
	ErrPrioritize      = errors.New("scrub: unable to set task priority")
	ErrDelay           = errors.New("scrub: task delay failed")
)

// ErrEngine wraps failures of the scrub engine. They stop the scrub task.
var ErrEngine = errors.New("scrub: engine failure")
