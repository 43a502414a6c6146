package sim

import (
	"sync/atomic"

	"github.com/umbralab/umbra/routing"
)

// A TaskFunc is the callback payload of a task. It runs on the worker
// thread that owns the task's target host, with that host set as the
// worker's active host for the duration of the call.
type TaskFunc func(w *Worker)

// A Task is a deferred unit of work bound to one target host. Tasks are
// immutable once scheduled: the due time and sequence number are assigned
// at schedule time and never change afterward.
type Task struct {
	target routing.NodeID
	fn     TaskFunc

	// Assigned by ScheduleTask. seq breaks ties between tasks with the
	// same due time, so per-host execution order is a total order.
	due SimulationTime
	seq uint64

	scheduled bool
}

// NewTask creates a task that will run fn on the host identified by target.
func NewTask(target routing.NodeID, fn TaskFunc) *Task {
	return &Task{target: target, fn: fn}
}

// Target returns the identity of the host the task must run on.
func (t *Task) Target() routing.NodeID {
	return t.target
}

// Due returns the simulated time the task becomes runnable. It is only
// meaningful after the task has been scheduled.
func (t *Task) Due() SimulationTime {
	return t.due
}

// Scheduled reports whether the task has been accepted into a host queue.
func (t *Task) Scheduled() bool {
	return t.scheduled
}

// taskSeq hands out globally unique insertion sequence numbers. A single
// process-wide source keeps the (due, seq) order total even when two
// threads schedule onto the same host in the same round.
var taskSeq atomic.Uint64

func nextTaskSeq() uint64 {
	return taskSeq.Add(1)
}
