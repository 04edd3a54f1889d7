package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how far the scrubber got through its region. Once the
// whole region is finished the bar starts another round.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
	Rounds     uint64    `json:"rounds"`
}

// SetTotal restarts the bar with a new total.
func (b *ProgressBar) SetTotal(total uint64) {
	b.Lock()
	defer b.Unlock()

	b.Total = total
	b.Finished = 0
	b.InProgress = 0
	b.Rounds = 0
	b.StartTime = time.Now()
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	if amount > b.InProgress {
		amount = b.InProgress
	}

	b.InProgress -= amount
	b.Finished += amount

	if b.Total == 0 {
		return
	}

	for b.Finished >= b.Total {
		b.Finished -= b.Total
		b.Rounds++
	}
}

type progressBarSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
	Rounds     uint64    `json:"rounds"`
}

func (b *ProgressBar) snapshot() progressBarSnapshot {
	b.Lock()
	defer b.Unlock()

	return progressBarSnapshot{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
		Rounds:     b.Rounds,
	}
}
