package sim

import (
	"container/heap"
	"sync"
)

// A TaskQueue holds the pending tasks of one host, ordered by (due time,
// insertion sequence). The owning worker thread is the only consumer, but
// any thread may push into the queue when it schedules a task across host
// boundaries, so access is mutex-protected.
type TaskQueue struct {
	sync.Mutex
	tasks taskHeap
}

// NewTaskQueue creates an empty task queue.
func NewTaskQueue() *TaskQueue {
	q := new(TaskQueue)
	q.tasks = make([]*Task, 0)
	heap.Init(&q.tasks)
	return q
}

// Push adds a scheduled task to the queue.
func (q *TaskQueue) Push(t *Task) {
	q.Lock()
	heap.Push(&q.tasks, t)
	q.Unlock()
}

// Pop removes and returns the earliest task.
func (q *TaskQueue) Pop() *Task {
	q.Lock()
	t := heap.Pop(&q.tasks).(*Task)
	q.Unlock()
	return t
}

// PopDue removes and returns the earliest task whose due time is within the
// horizon, or nil if there is none.
func (q *TaskQueue) PopDue(horizon SimulationTime) *Task {
	q.Lock()
	defer q.Unlock()

	if q.tasks.Len() == 0 {
		return nil
	}

	if q.tasks[0].due > horizon {
		return nil
	}

	return heap.Pop(&q.tasks).(*Task)
}

// Peek returns the earliest task without removing it, or nil if the queue
// is empty.
func (q *TaskQueue) Peek() *Task {
	q.Lock()
	defer q.Unlock()

	if q.tasks.Len() == 0 {
		return nil
	}

	return q.tasks[0]
}

// NextDue returns the due time of the earliest task, or SimTimeMax if the
// queue is empty.
func (q *TaskQueue) NextDue() SimulationTime {
	q.Lock()
	defer q.Unlock()

	if q.tasks.Len() == 0 {
		return SimTimeMax
	}

	return q.tasks[0].due
}

// Len returns the number of pending tasks.
func (q *TaskQueue) Len() int {
	q.Lock()
	l := q.tasks.Len()
	q.Unlock()
	return l
}

// Discard drops all pending tasks and returns how many were dropped. Used
// when a host is freed before its tasks run.
func (q *TaskQueue) Discard() int {
	q.Lock()
	n := q.tasks.Len()
	q.tasks = q.tasks[:0]
	q.Unlock()
	return n
}

type taskHeap []*Task

// Len returns the number of tasks in the heap.
func (h taskHeap) Len() int {
	return len(h)
}

// Less orders tasks by due time, ties broken by insertion sequence.
func (h taskHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

// Swap exchanges two tasks in the heap.
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Push adds a task to the heap.
func (h *taskHeap) Push(x interface{}) {
	t := x.(*Task)
	*h = append(*h, t)
}

// Pop removes and returns the task that is due next.
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[0 : n-1]
	return t
}
