package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar is a tracker of the progress of a long-running part of a
// simulation.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// MoveInProgressToFinished increases the number of finished elements and
// reduces the number of in-progress elements.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// AddInProgress increases the number of in-progress elements.
func (b *ProgressBar) AddInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// AddFinished increases the number of finished elements.
func (b *ProgressBar) AddFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}
