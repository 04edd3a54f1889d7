package tracing

import "time"

// A Task is a unit of traced work. For the scrubber, each engine call is a
// task.
type Task struct {
	ID        string      `json:"id"`
	ParentID  string      `json:"parent_id"`
	Kind      string      `json:"kind"`
	What      string      `json:"what"`
	Where     string      `json:"where"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Detail    interface{} `json:"detail,omitempty"`
}

// Duration returns how long the task took.
func (t Task) Duration() time.Duration {
	return t.EndTime.Sub(t.StartTime)
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// TimeTeller can tell the current time.
type TimeTeller interface {
	CurrentTime() time.Time
}

// WallClock tells the wall-clock time.
type WallClock struct{}

// CurrentTime returns time.Now.
func (WallClock) CurrentTime() time.Time {
	return time.Now()
}
