package sim

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CountDownLatch", func() {
	It("should release waiters when the count reaches zero", func() {
		latch := NewCountDownLatch(3)
		released := make(chan struct{})

		go func() {
			latch.Await()
			close(released)
		}()

		latch.CountDown()
		latch.CountDown()
		Consistently(released, 50*time.Millisecond).ShouldNot(BeClosed())

		latch.CountDown()
		Eventually(released).Should(BeClosed())
	})

	It("should release immediately with a zero count", func() {
		latch := NewCountDownLatch(0)

		done := make(chan struct{})
		go func() {
			latch.Await()
			close(done)
		}()

		Eventually(done).Should(BeClosed())
	})

	It("should time out when the count stays positive", func() {
		latch := NewCountDownLatch(1)

		Expect(latch.AwaitTimeout(20 * time.Millisecond)).To(BeFalse())

		latch.CountDown()
		Expect(latch.AwaitTimeout(time.Second)).To(BeTrue())
	})

	It("should rearm after a reset", func() {
		latch := NewCountDownLatch(1)
		latch.CountDown()
		latch.Await()

		latch.Reset(2)

		released := make(chan struct{})
		go func() {
			latch.Await()
			close(released)
		}()

		latch.CountDown()
		Consistently(released, 50*time.Millisecond).ShouldNot(BeClosed())

		latch.CountDown()
		Eventually(released).Should(BeClosed())
	})

	It("should panic when counted below zero", func() {
		latch := NewCountDownLatch(1)
		latch.CountDown()

		Expect(func() { latch.CountDown() }).To(Panic())
	})

	It("should rendezvous many goroutines", func() {
		const n = 32

		latch := NewCountDownLatch(n)
		var wg sync.WaitGroup

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				latch.CountDown()
				latch.Await()
			}()
		}

		wg.Wait()
		Expect(latch.AwaitTimeout(time.Second)).To(BeTrue())
	})
})
