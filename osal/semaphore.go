package osal

import "fmt"

type binSem struct {
	id      SemID
	name    string
	tokens  chan struct{}
	deleted chan struct{}
}

// CreateBinSem creates a named binary semaphore holding initial tokens.
func (k *Kernel) CreateBinSem(name string, initial uint32) (SemID, error) {
	if initial > 1 {
		return UndefinedID, fmt.Errorf("%w: %d", ErrInvalidSemValue, initial)
	}

	k.lock.Lock()
	defer k.lock.Unlock()

	if _, taken := k.semNames[name]; taken {
		return UndefinedID, fmt.Errorf("%w: semaphore %q", ErrNameTaken, name)
	}

	s := &binSem{
		id:      SemID(k.allocateID()),
		name:    name,
		tokens:  make(chan struct{}, 1),
		deleted: make(chan struct{}),
	}

	if initial == 1 {
		s.tokens <- struct{}{}
	}

	k.sems[s.id] = s
	k.semNames[name] = s.id

	return s.id, nil
}

func (k *Kernel) findSem(id SemID) (*binSem, error) {
	k.lock.Lock()
	defer k.lock.Unlock()

	s, ok := k.sems[id]
	if !ok {
		return nil, fmt.Errorf("%w: semaphore %d", ErrInvalidID, id)
	}

	return s, nil
}

// TakeBinSem blocks until the semaphore is available. Deleting the semaphore
// releases every waiter with ErrInvalidID.
func (k *Kernel) TakeBinSem(id SemID) error {
	s, err := k.findSem(id)
	if err != nil {
		return err
	}

	select {
	case <-s.tokens:
		return nil
	case <-s.deleted:
		return fmt.Errorf("%w: semaphore %d deleted", ErrInvalidID, id)
	}
}

// GiveBinSem makes the semaphore available again.
func (k *Kernel) GiveBinSem(id SemID) error {
	s, err := k.findSem(id)
	if err != nil {
		return err
	}

	select {
	case s.tokens <- struct{}{}:
		return nil
	default:
		return fmt.Errorf("%w: semaphore %d", ErrSemFull, id)
	}
}

// DeleteBinSem destroys the semaphore.
func (k *Kernel) DeleteBinSem(id SemID) error {
	k.lock.Lock()
	defer k.lock.Unlock()

	s, ok := k.sems[id]
	if !ok {
		return fmt.Errorf("%w: semaphore %d", ErrInvalidID, id)
	}

	delete(k.sems, id)
	delete(k.semNames, s.name)
	close(s.deleted)

	return nil
}

// SemIDByName looks a live semaphore up by name.
func (k *Kernel) SemIDByName(name string) (SemID, error) {
	k.lock.Lock()
	defer k.lock.Unlock()

	id, ok := k.semNames[name]
	if !ok {
		return UndefinedID, fmt.Errorf("%w: semaphore %q", ErrNameNotFound, name)
	}

	return id, nil
}
