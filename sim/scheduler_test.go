package sim

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umbralab/umbra/routing"
)

// twoHostWorld builds a DNS table, a topology with one 10 ms link, and a
// scheduler over two hosts.
func twoHostWorld(config Config) (*Scheduler, *Host, *Host) {
	return worldWithLatency(config, 10*time.Millisecond)
}

func worldWithLatency(
	config Config,
	latency time.Duration,
) (*Scheduler, *Host, *Host) {
	dns := routing.NewDNS()
	addrA, _ := dns.Register("alpha", "10.0.0.1")
	addrB, _ := dns.Register("beta", "10.0.0.2")
	dns.Freeze()

	topo := routing.NewTopology()
	_ = topo.AddNode(addrA, 0, 0)
	_ = topo.AddNode(addrB, 0, 0)
	_ = topo.AddLink(addrA.ID, addrB.ID, latency)
	topo.Freeze()

	s, err := NewScheduler(config, topo, dns)
	Expect(err).To(BeNil())

	hostA := NewHost(addrA, 0, 0)
	hostB := NewHost(addrB, 0, 0)
	s.AddHost(hostA)
	s.AddHost(hostB)

	return s, hostA, hostB
}

// horizonRecorder collects the horizon of every round.
type horizonRecorder struct {
	sync.Mutex
	horizons []SimulationTime
}

func (r *horizonRecorder) Func(ctx HookCtx) {
	if ctx.Pos != HookPosRoundStart {
		return
	}

	r.Lock()
	r.horizons = append(r.horizons, ctx.Item.(SimulationTime))
	r.Unlock()
}

var _ = Describe("Scheduler", func() {
	It("should deliver a ping after exactly the path latency", func() {
		config := DefaultConfig()
		config.Parallelism = 2
		config.StopTime = 1 * Second

		s, hostA, hostB := twoHostWorld(config)

		var deliveredAt SimulationTime
		var delivered int

		hostB.SetPacketHandler(func(w *Worker, p *routing.Packet) {
			deliveredAt = w.CurrentTime()
			delivered++
		})

		hostA.SetBootHandler(func(w *Worker) {
			p := routing.NewPacket("10.0.0.1", "10.0.0.2", []byte("ping"))
			w.SendPacket(p)
		})

		Expect(s.Run()).To(BeNil())

		Expect(delivered).To(Equal(1))
		Expect(deliveredAt).To(Equal(10 * Millisecond))
		Expect(s.TimeJumpBound()).To(
			BeNumerically("<=", 10*Millisecond))
	})

	It("should bound the horizon by a link shorter than the default jump", func() {
		config := DefaultConfig()
		config.Parallelism = 2
		config.StopTime = 100 * Millisecond

		s, hostA, hostB := worldWithLatency(config, 3*time.Millisecond)

		recorder := &horizonRecorder{}
		s.AcceptHook(recorder)

		var deliveredAt SimulationTime
		hostB.SetPacketHandler(func(w *Worker, p *routing.Packet) {
			deliveredAt = w.CurrentTime()
		})
		hostA.SetBootHandler(func(w *Worker) {
			p := routing.NewPacket("10.0.0.1", "10.0.0.2", []byte("ping"))
			w.SendPacket(p)
		})

		Expect(s.Run()).To(BeNil())

		Expect(deliveredAt).To(Equal(3 * Millisecond))
		Expect(s.TimeJumpBound()).To(Equal(3 * Millisecond))

		// The first horizon is the delivery's due time plus the 3 ms
		// bound, not the default jump.
		Expect(recorder.horizons[0]).To(Equal(6 * Millisecond))

		var tasksRun uint64
		for _, w := range s.workers {
			tasksRun += w.TasksRun()
		}
		Expect(tasksRun).To(Equal(uint64(1)))
	})

	It("should execute one host's tasks in due-time order", func() {
		config := DefaultConfig()
		config.Parallelism = 1
		config.StopTime = 1 * Second

		s, hostA, _ := twoHostWorld(config)

		var order []SimulationTime
		record := func(w *Worker) {
			order = append(order, w.CurrentTime())
		}

		hostA.SetBootHandler(func(w *Worker) {
			w.ScheduleTask(NewTask(hostA.ID(), record), 30*Millisecond)
			w.ScheduleTask(NewTask(hostA.ID(), record), 5*Millisecond)
			w.ScheduleTask(NewTask(hostA.ID(), record), 20*Millisecond)
		})

		Expect(s.Run()).To(BeNil())

		Expect(order).To(Equal([]SimulationTime{
			5 * Millisecond, 20 * Millisecond, 30 * Millisecond,
		}))
	})

	It("should keep round horizons non-decreasing", func() {
		config := DefaultConfig()
		config.StopTime = 200 * Millisecond

		s, hostA, hostB := twoHostWorld(config)

		recorder := &horizonRecorder{}
		s.AcceptHook(recorder)

		hostB.SetPacketHandler(func(w *Worker, p *routing.Packet) {
			reply := routing.NewPacket("10.0.0.2", "10.0.0.1", p.Payload)
			w.SendPacket(reply)
		})
		hostA.SetPacketHandler(func(w *Worker, p *routing.Packet) {
			out := routing.NewPacket("10.0.0.1", "10.0.0.2", p.Payload)
			w.SendPacket(out)
		})
		hostA.SetBootHandler(func(w *Worker) {
			p := routing.NewPacket("10.0.0.1", "10.0.0.2", []byte("x"))
			w.SendPacket(p)
		})

		Expect(s.Run()).To(BeNil())

		Expect(len(recorder.horizons)).To(BeNumerically(">", 2))
		for i := 1; i < len(recorder.horizons); i++ {
			Expect(recorder.horizons[i]).To(
				BeNumerically(">=", recorder.horizons[i-1]))
		}

		Expect(s.CurrentTime()).To(BeNumerically("<=", config.StopTime))
	})

	It("should never run one host on two threads", func() {
		config := DefaultConfig()
		config.Parallelism = 2
		config.StopTime = 100 * Millisecond

		s, hostA, hostB := twoHostWorld(config)

		var mu sync.Mutex
		threadsSeen := map[string]map[int]bool{}
		note := func(host string, thread int) {
			mu.Lock()
			if threadsSeen[host] == nil {
				threadsSeen[host] = map[int]bool{}
			}
			threadsSeen[host][thread] = true
			mu.Unlock()
		}

		bounce := func(name, srcIP, dstIP string) func(*Worker, *routing.Packet) {
			return func(w *Worker, p *routing.Packet) {
				note(name, w.ThreadID())
				w.SendPacket(routing.NewPacket(srcIP, dstIP, p.Payload))
			}
		}

		hostA.SetPacketHandler(bounce("alpha", "10.0.0.1", "10.0.0.2"))
		hostB.SetPacketHandler(bounce("beta", "10.0.0.2", "10.0.0.1"))
		hostA.SetBootHandler(func(w *Worker) {
			note("alpha", w.ThreadID())
			w.SendPacket(routing.NewPacket("10.0.0.1", "10.0.0.2", []byte("x")))
		})

		Expect(s.Run()).To(BeNil())

		owners := map[string]int{
			"alpha": s.OwnerThread(hostA.ID()),
			"beta":  s.OwnerThread(hostB.ID()),
		}
		for host, threads := range threadsSeen {
			Expect(threads).To(HaveLen(1), "host %s ran on %d threads",
				host, len(threads))
			Expect(threads).To(HaveKey(owners[host]))
		}
	})

	It("should balance the allocation ledger on a clean run", func() {
		config := DefaultConfig()
		config.StopTime = 100 * Millisecond

		s, hostA, _ := twoHostWorld(config)

		hostA.SetBootHandler(func(w *Worker) {
			w.ScheduleTask(NewTask(hostA.ID(), func(tw *Worker) {
				tw.IncrementObjectAllocCounter("buffer")
				tw.IncrementObjectDeallocCounter("buffer")
			}), 5*Millisecond)
		})

		Expect(s.Run()).To(BeNil())

		alloc, dealloc := s.ObjectCounter().Counts("host")
		Expect(alloc).To(Equal(dealloc))

		alloc, dealloc = s.ObjectCounter().Counts("buffer")
		Expect(alloc).To(Equal(int64(1)))
		Expect(dealloc).To(Equal(int64(1)))

		Expect(s.ObjectCounter().Leaks()).To(BeEmpty())
	})

	It("should advance conservatively during bootstrap", func() {
		config := DefaultConfig()
		config.Parallelism = 1
		config.StopTime = 100 * Millisecond
		config.BootstrapEnd = 10 * Millisecond
		config.BootstrapJump = 1 * Millisecond

		s, _, _ := twoHostWorld(config)

		// Horizon steps follow the fixed bootstrap jump before the window
		// ends and the min-time-jump bound afterward.
		s.writeNow(2 * Millisecond)
		s.hosts[0].queue.Push(scheduledTask(2 * Millisecond))
		horizon, ok := s.nextHorizon()
		Expect(ok).To(BeTrue())
		Expect(horizon).To(Equal(3 * Millisecond))

		s.hosts[0].queue.Discard()
		s.writeNow(20 * Millisecond)
		s.hosts[0].queue.Push(scheduledTask(20 * Millisecond))
		horizon, ok = s.nextHorizon()
		Expect(ok).To(BeTrue())
		Expect(horizon).To(Equal(30 * Millisecond))
	})

	It("should report no work when every host is idle", func() {
		config := DefaultConfig()
		s, _, _ := twoHostWorld(config)

		_, ok := s.nextHorizon()
		Expect(ok).To(BeFalse())
	})

	It("should ignore pause requests after the run has ended", func() {
		config := DefaultConfig()
		config.StopTime = 50 * Millisecond

		s, hostA, _ := twoHostWorld(config)

		hostA.SetBootHandler(func(w *Worker) {
			w.ScheduleTask(NewTask(hostA.ID(), func(*Worker) {}), Millisecond)
		})

		Expect(s.Run()).To(BeNil())

		done := make(chan struct{})
		go func() {
			s.Pause()
			s.Pause()
			s.Continue()
			s.Continue()
			close(done)
		}()

		Eventually(done).Should(BeClosed())
	})

	It("should stop mid-run and discard pending tasks", func() {
		config := DefaultConfig()
		config.StopTime = 3600 * Second

		s, hostA, _ := twoHostWorld(config)

		var reschedule TaskFunc
		reschedule = func(w *Worker) {
			if !w.IsAlive() {
				return
			}
			w.ScheduleTask(NewTask(hostA.ID(), reschedule), Millisecond)
		}

		hostA.SetBootHandler(func(w *Worker) {
			w.ScheduleTask(NewTask(hostA.ID(), reschedule), Millisecond)
		})

		go func() {
			time.Sleep(30 * time.Millisecond)
			s.Stop()
		}()

		Expect(s.Run()).To(BeNil())

		Expect(s.CurrentTime()).To(BeNumerically("<", config.StopTime))
		Expect(hostA.Queue().Len()).To(Equal(0))
	})
})
