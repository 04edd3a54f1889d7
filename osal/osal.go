// Package osal describes the operating-system primitives the scrub subsystem
// relies on and provides a host implementation of them.
//
// The primitives mirror what a small real-time kernel offers: named tasks that
// can be created, looked up, re-prioritized, delayed and forcibly deleted, and
// named binary semaphores. Every operation reports failure through an error;
// the sentinel errors below let callers tell the conditions apart.
package osal

import (
	"context"
	"errors"
	"time"
)

// TaskID identifies a task.
type TaskID uint32

// SemID identifies a binary semaphore.
type SemID uint32

// UndefinedID is the value of a TaskID or SemID that refers to nothing.
const UndefinedID = 0

// Priority is a task priority. Lower numbers are more urgent.
type Priority uint32

// Priority bounds accepted by the kernel.
const (
	MinPriority Priority = 1
	MaxPriority Priority = 255
)

var (
	// ErrNameTaken is returned when an object with the same name exists.
	ErrNameTaken = errors.New("osal: name taken")

	// ErrNameNotFound is returned when a lookup by name finds nothing.
	ErrNameNotFound = errors.New("osal: name not found")

	// ErrInvalidID is returned when an ID does not refer to a live object.
	ErrInvalidID = errors.New("osal: invalid id")

	// ErrInvalidPriority is returned for priorities outside the kernel range.
	ErrInvalidPriority = errors.New("osal: invalid priority")

	// ErrInvalidSemValue is returned when a binary semaphore is created with
	// an initial value other than 0 or 1.
	ErrInvalidSemValue = errors.New("osal: invalid semaphore value")

	// ErrSemFull is returned when giving a binary semaphore nobody took.
	ErrSemFull = errors.New("osal: semaphore already available")

	// ErrTaskDeleted is returned to a task that blocks after it was deleted.
	ErrTaskDeleted = errors.New("osal: task deleted")
)

// TaskEntry is the body of a task. The context is cancelled when the task is
// deleted.
type TaskEntry func(ctx context.Context)

// Tasks are the task primitives.
type Tasks interface {
	CreateTask(name string, entry TaskEntry, priority Priority) (TaskID, error)
	DeleteTask(id TaskID) error
	TaskIDByName(name string) (TaskID, error)
	SetTaskPriority(id TaskID, priority Priority) error

	// TaskDelay blocks the calling task for d. It fails if the task owning
	// ctx is deleted while waiting.
	TaskDelay(ctx context.Context, d time.Duration) error
}

// Semaphores are the binary semaphore primitives.
type Semaphores interface {
	CreateBinSem(name string, initial uint32) (SemID, error)
	TakeBinSem(id SemID) error
	GiveBinSem(id SemID) error
	DeleteBinSem(id SemID) error
}

// OS groups all the primitives.
type OS interface {
	Tasks
	Semaphores
}
