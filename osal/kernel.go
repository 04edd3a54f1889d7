package osal

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sarchlab/psp/log"
)

// Kernel is a host implementation of OS. Tasks run as goroutines.
//
// Deleting a task removes it from the kernel immediately and cancels its
// context. The goroutine itself stops at its next blocking point; the kernel
// never waits for it.
type Kernel struct {
	lock   sync.Mutex
	nextID uint32

	tasks     map[TaskID]*task
	taskNames map[string]TaskID
	sems      map[SemID]*binSem
	semNames  map[string]SemID

	running sync.WaitGroup
	log     log.Logger
}

type task struct {
	id       TaskID
	name     string
	priority Priority
	cancel   context.CancelFunc
}

var _ OS = (*Kernel)(nil)

// NewKernel creates an empty kernel.
func NewKernel(logger log.Logger) *Kernel {
	return &Kernel{
		tasks:     make(map[TaskID]*task),
		taskNames: make(map[string]TaskID),
		sems:      make(map[SemID]*binSem),
		semNames:  make(map[string]SemID),
		log:       logger.Scoped("OSAL"),
	}
}

func (k *Kernel) allocateID() uint32 {
	k.nextID++
	return k.nextID
}

// CreateTask starts entry in a new goroutine registered under name.
func (k *Kernel) CreateTask(
	name string,
	entry TaskEntry,
	priority Priority,
) (TaskID, error) {
	if priority < MinPriority || priority > MaxPriority {
		return UndefinedID, fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}

	k.lock.Lock()

	if _, taken := k.taskNames[name]; taken {
		k.lock.Unlock()
		return UndefinedID, fmt.Errorf("%w: task %q", ErrNameTaken, name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		id:       TaskID(k.allocateID()),
		name:     name,
		priority: priority,
		cancel:   cancel,
	}
	k.tasks[t.id] = t
	k.taskNames[name] = t.id
	k.running.Add(1)

	k.lock.Unlock()

	k.log.Debug().Str("task", name).Uint32("id", uint32(t.id)).Msg("task created")

	go k.runTask(ctx, t, entry)

	return t.id, nil
}

func (k *Kernel) runTask(ctx context.Context, t *task, entry TaskEntry) {
	defer k.running.Done()
	defer k.exitTask(t)

	entry(ctx)
}

func (k *Kernel) exitTask(t *task) {
	k.lock.Lock()
	defer k.lock.Unlock()

	if current, ok := k.tasks[t.id]; ok && current == t {
		k.unregisterTask(t)
	}

	t.cancel()
}

func (k *Kernel) unregisterTask(t *task) {
	delete(k.tasks, t.id)
	delete(k.taskNames, t.name)
}

// DeleteTask removes a task and cancels its context.
func (k *Kernel) DeleteTask(id TaskID) error {
	k.lock.Lock()
	defer k.lock.Unlock()

	t, ok := k.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %d", ErrInvalidID, id)
	}

	k.unregisterTask(t)
	t.cancel()

	k.log.Debug().Str("task", t.name).Uint32("id", uint32(id)).Msg("task deleted")

	return nil
}

// TaskIDByName looks a live task up by name.
func (k *Kernel) TaskIDByName(name string) (TaskID, error) {
	k.lock.Lock()
	defer k.lock.Unlock()

	id, ok := k.taskNames[name]
	if !ok {
		return UndefinedID, fmt.Errorf("%w: task %q", ErrNameNotFound, name)
	}

	return id, nil
}

// SetTaskPriority changes the priority of a live task.
func (k *Kernel) SetTaskPriority(id TaskID, priority Priority) error {
	if priority < MinPriority || priority > MaxPriority {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}

	k.lock.Lock()
	defer k.lock.Unlock()

	t, ok := k.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %d", ErrInvalidID, id)
	}

	t.priority = priority

	return nil
}

// TaskPriority returns the current priority of a live task.
func (k *Kernel) TaskPriority(id TaskID) (Priority, error) {
	k.lock.Lock()
	defer k.lock.Unlock()

	t, ok := k.tasks[id]
	if !ok {
		return 0, fmt.Errorf("%w: task %d", ErrInvalidID, id)
	}

	return t.priority, nil
}

// TaskDelay sleeps for d, or yields when d is zero.
func (k *Kernel) TaskDelay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		runtime.Gosched()

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTaskDeleted, ctx.Err())
		}

		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTaskDeleted, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// NumTasks returns the number of live tasks.
func (k *Kernel) NumTasks() int {
	k.lock.Lock()
	defer k.lock.Unlock()

	return len(k.tasks)
}

// Wait blocks until every task goroutine, deleted or not, has returned.
func (k *Kernel) Wait() {
	k.running.Wait()
}
