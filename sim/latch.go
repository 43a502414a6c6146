package sim

import (
	"sync"
	"time"
)

// A CountDownLatch is a counting rendezvous. Waiters block until the count
// reaches zero; the release is broadcast by closing a channel so Await can
// also carry a timeout. Reset rearms the latch for another use, which is
// only legal after every waiter of the previous generation has passed.
// The scheduler's round protocol guarantees this by alternating between
// two latch pairs.
type CountDownLatch struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

// NewCountDownLatch creates a latch that releases after count countdowns.
// A count of zero creates an already-released latch.
func NewCountDownLatch(count int) *CountDownLatch {
	l := &CountDownLatch{
		count: count,
		done:  make(chan struct{}),
	}

	if count == 0 {
		close(l.done)
	}

	return l
}

// CountDown decrements the count, releasing all waiters when it reaches
// zero. Counting down a released latch panics: it means two participants
// disagree about which round they are in.
func (l *CountDownLatch) CountDown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		panic("latch: countdown below zero")
	}

	l.count--
	if l.count == 0 {
		close(l.done)
	}
}

// Await blocks until the count reaches zero.
func (l *CountDownLatch) Await() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	<-done
}

// AwaitTimeout blocks until the count reaches zero or the wall-clock
// timeout elapses. It returns false on timeout. A timeout of zero waits
// forever.
func (l *CountDownLatch) AwaitTimeout(timeout time.Duration) bool {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if timeout == 0 {
		<-done
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Reset rearms the latch with a fresh count and a new generation channel.
func (l *CountDownLatch) Reset(count int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count = count
	l.done = make(chan struct{})

	if count == 0 {
		close(l.done)
	}
}
