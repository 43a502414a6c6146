package sim

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/umbralab/umbra/counter"
	"github.com/umbralab/umbra/routing"
)

// WorkerRunData is the bootstrap record handed to a worker thread: its
// identity, the scheduler it reports to, an opaque user payload, and the
// three latches of the teardown handshake. It is consumed once by Run and
// never reused.
type WorkerRunData struct {
	ThreadID  int
	Scheduler *Scheduler
	UserData  interface{}

	NotifyDoneRunning *CountDownLatch
	NotifyReadyToJoin *CountDownLatch
	NotifyJoined      *CountDownLatch
}

// A Worker is the thread-local execution context of one worker thread. It
// is the only access point simulated code has to engine services while a
// task is running: time, the active host/process, topology and DNS
// lookups, packet dispatch, and the shared counters.
//
// Exactly one Worker exists per worker thread. None of its thread-local
// state is shared, so reads and writes of that state take no lock.
type Worker struct {
	threadID  int
	scheduler *Scheduler

	// hosts is the worker's static partition. It never changes after the
	// run starts, which is what makes lock-free host execution sound.
	hosts []*Host

	localNow      SimulationTime
	activeHost    *Host
	activeProcess *Process

	syscallCounts *counter.Counter

	// tasksRun is written by the worker goroutine but read by anyone, so
	// it is the one piece of worker state that is not thread-local.
	tasksRun atomic.Uint64
}

func newWorker(threadID int, s *Scheduler, hosts []*Host) *Worker {
	return &Worker{
		threadID:      threadID,
		scheduler:     s,
		hosts:         hosts,
		syscallCounts: counter.NewCounter(),
	}
}

// Run is the worker thread's entry point. It boots the assigned hosts,
// loops over rounds until the scheduler signals the end of the run, frees
// the hosts, and walks the teardown latch triple.
func (w *Worker) Run(rd *WorkerRunData) {
	if w.scheduler.config.PinThreads {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	w.bootHosts()
	w.scheduler.bootDone.CountDown()

	for round := uint64(0); ; round++ {
		w.scheduler.releaseLatch(round).Await()

		if !w.scheduler.keepRunning() {
			break
		}

		w.executeRound(w.scheduler.roundHorizon())
		w.scheduler.doneLatch(round).CountDown()
	}

	w.freeHosts()
	w.scheduler.syscallCounts.Merge(w.syscallCounts)

	rd.NotifyDoneRunning.CountDown()
	rd.NotifyReadyToJoin.Await()
	rd.NotifyJoined.CountDown()
}

// bootHosts brings up the worker's partition before the first round.
func (w *Worker) bootHosts() {
	for _, h := range w.hosts {
		h.boot(w)
	}
}

// freeHosts tears down the worker's partition. Pending tasks are discarded,
// not executed.
func (w *Worker) freeHosts() {
	for _, h := range w.hosts {
		h.free(w)
	}
}

// executeRound runs every task on the worker's hosts that is due within
// the horizon. Hosts are re-scanned until no task is due, so a task that
// schedules onto a sibling host in the same round still runs this round.
func (w *Worker) executeRound(horizon SimulationTime) {
	for {
		ran := false

		for _, h := range w.hosts {
			for {
				t := h.queue.PopDue(horizon)
				if t == nil {
					break
				}

				ran = true
				w.runTask(h, t)
			}
		}

		if !ran {
			break
		}
	}

	if horizon > w.localNow {
		w.localNow = horizon
	}
}

// runTask dispatches one task under the host's execution context.
func (w *Worker) runTask(h *Host, t *Task) {
	if t.due > w.localNow {
		w.localNow = t.due
	}

	hookCtx := HookCtx{
		Domain: w.scheduler,
		Now:    w.localNow,
		Pos:    HookPosBeforeTask,
		Item:   t,
	}
	w.scheduler.InvokeHook(hookCtx)

	w.runHostCallback(h, t.fn)
	w.tasksRun.Add(1)

	hookCtx.Pos = HookPosAfterTask
	w.scheduler.InvokeHook(hookCtx)
}

// runHostCallback invokes fn with the host set as the worker's active
// host. The active slots are cleared on every exit path, and a panic in
// simulated code is contained: it is counted as a plugin error and the
// host keeps running its remaining tasks.
func (w *Worker) runHostCallback(h *Host, fn TaskFunc) {
	w.activeHost = h
	w.activeProcess = h.process

	defer func() {
		if r := recover(); r != nil {
			w.IncrementPluginError()
			logrus.WithFields(logrus.Fields{
				"host":  h.Name(),
				"panic": r,
			}).Error("simulated code raised an internal error")
		}

		w.activeProcess = nil
		w.activeHost = nil
	}()

	fn(w)
}

// ScheduleTask inserts the task into its target host's queue with due time
// = current time + nanoDelay. It returns false, without inserting
// anything, if the delay is negative, the due time falls past the run's
// stop time, the target host is unknown, or the run is already over.
func (w *Worker) ScheduleTask(t *Task, nanoDelay SimulationTime) bool {
	if t == nil || t.scheduled {
		return false
	}

	if nanoDelay < 0 {
		return false
	}

	if !w.scheduler.keepRunning() {
		return false
	}

	now := w.localNow
	due := now + nanoDelay
	if due < now {
		return false
	}

	if due > w.scheduler.config.StopTime {
		return false
	}

	host := w.scheduler.hostByID(t.target)
	if host == nil {
		return false
	}

	t.due = due
	t.seq = nextTaskSeq()
	t.scheduled = true

	host.queue.Push(t)

	// A message crossing host boundaries constrains how far the clock may
	// safely advance.
	if w.activeHost == nil || w.activeHost.ID() != t.target {
		w.UpdateMinTimeJump(nanoDelay)
	}

	return true
}

// SendPacket resolves the packet's destination, computes the delivery
// delay from path latency plus the bandwidth-imposed transmission time,
// and schedules delivery as a task on the destination host. It returns
// false when the destination does not resolve or is unreachable.
func (w *Worker) SendPacket(p *routing.Packet) bool {
	src := w.activeHost
	if src == nil {
		logrus.WithField("packet", p.ID).
			Warn("packet sent outside a host context")
		return false
	}

	dst := w.ResolveIPToAddress(p.DstIP)
	if dst == nil {
		return false
	}

	latency := w.Latency(src.ID(), dst.ID)
	if latency <= 0 {
		return false
	}

	delay := FromDuration(latency) + transmissionDelay(
		p.Size,
		w.NodeBandwidthUp(src.ID(), p.SrcIP),
		w.NodeBandwidthDown(dst.ID, dst.IP),
	)

	w.UpdateMinTimeJump(FromDuration(latency))

	dstID := dst.ID
	delivery := NewTask(dstID, func(dw *Worker) {
		h := dw.scheduler.hostByID(dstID)
		if h != nil {
			h.deliver(dw, p)
		}
	})

	return w.ScheduleTask(delivery, delay)
}

// transmissionDelay returns the serialization time of size bytes over the
// narrower of the two bandwidths. Zero bandwidth means unlimited.
func transmissionDelay(size, bwUp, bwDown uint64) SimulationTime {
	bw := bwUp
	if bw == 0 || (bwDown != 0 && bwDown < bw) {
		bw = bwDown
	}

	if bw == 0 || size == 0 {
		return 0
	}

	return SimulationTime(size * uint64(Second) / bw)
}

// CurrentTime returns the thread-local snapshot of the simulated clock. It
// is only meaningful while a round is in progress on this thread.
func (w *Worker) CurrentTime() SimulationTime {
	return w.localNow
}

// EmulatedTime returns the wall-clock-like timestamp a simulated process
// would read right now.
func (w *Worker) EmulatedTime() EmulatedTime {
	return ToEmulatedTime(w.localNow)
}

// ActiveHost returns the host whose task is currently executing, or nil
// between tasks.
func (w *Worker) ActiveHost() *Host {
	return w.activeHost
}

// SetActiveHost overrides the active-host slot. Engine-internal dispatch
// manages this slot itself; the setter exists for host-internal code that
// temporarily re-scopes execution.
func (w *Worker) SetActiveHost(h *Host) {
	w.activeHost = h
}

// ActiveProcess returns the process whose task is currently executing, or
// nil.
func (w *Worker) ActiveProcess() *Process {
	return w.activeProcess
}

// SetActiveProcess overrides the active-process slot.
func (w *Worker) SetActiveProcess(p *Process) {
	w.activeProcess = p
}

// ResolveIPToAddress looks up an IP in the DNS table. It returns nil when
// no mapping exists; the caller decides whether that is an error.
func (w *Worker) ResolveIPToAddress(ip string) *routing.Address {
	return w.scheduler.dns.ResolveIP(ip)
}

// ResolveNameToAddress looks up a name in the DNS table, nil on a miss.
func (w *Worker) ResolveNameToAddress(name string) *routing.Address {
	return w.scheduler.dns.ResolveName(name)
}

// NodeBandwidthUp returns a host's configured uplink bandwidth.
func (w *Worker) NodeBandwidthUp(id routing.NodeID, ip string) uint64 {
	return w.scheduler.topo.BandwidthUp(id, ip)
}

// NodeBandwidthDown returns a host's configured downlink bandwidth.
func (w *Worker) NodeBandwidthDown(id routing.NodeID, ip string) uint64 {
	return w.scheduler.topo.BandwidthDown(id, ip)
}

// Latency returns the path latency between two hosts.
func (w *Worker) Latency(src, dst routing.NodeID) time.Duration {
	return w.scheduler.topo.Latency(src, dst)
}

// UpdateMinTimeJump lowers the shared minimum time-jump bound if the
// candidate is smaller. The bound only ever decreases.
func (w *Worker) UpdateMinTimeJump(candidate SimulationTime) {
	w.scheduler.minJump.update(candidate)
}

// IsBootstrapActive reports whether the run is still in its bootstrap
// phase, during which the scheduler advances the clock conservatively.
func (w *Worker) IsBootstrapActive() bool {
	return w.localNow < w.scheduler.config.BootstrapEnd
}

// CountObject increments the shared allocation ledger for an object type.
func (w *Worker) CountObject(objectType string, dir counter.CountDirection) {
	w.scheduler.objectCounter.Count(objectType, dir)
}

// IncrementObjectAllocCounter records one allocation of the named object.
// It must be paired with IncrementObjectDeallocCounter for the same name,
// or the teardown leak report will flag the type.
func (w *Worker) IncrementObjectAllocCounter(objectName string) {
	w.scheduler.objectCounter.IncrementAlloc(objectName)
}

// IncrementObjectDeallocCounter records one deallocation of the named
// object.
func (w *Worker) IncrementObjectDeallocCounter(objectName string) {
	w.scheduler.objectCounter.IncrementDealloc(objectName)
}

// AddSyscallCounts folds a syscall tally from simulated code into the
// worker's local counter. Workers merge their counters into the scheduler
// at teardown.
func (w *Worker) AddSyscallCounts(c *counter.Counter) {
	w.syscallCounts.Merge(c)
}

// IncrementPluginError counts a recoverable error raised by simulated
// code. The run continues.
func (w *Worker) IncrementPluginError() {
	w.scheduler.pluginErrors.Add(1)
}

// IsAlive reports whether the run is still in progress. Simulated code
// uses it to stop scheduling new work during shutdown. It stays true for
// the round in flight when shutdown is requested and turns false at the
// next round boundary.
func (w *Worker) IsAlive() bool {
	return w.scheduler.keepRunning()
}

// IsFiltered reports whether log messages at the given level are filtered
// out by the current verbosity.
func (w *Worker) IsFiltered(level logrus.Level) bool {
	return !logrus.IsLevelEnabled(level)
}

// ThreadID returns the worker thread's index in [0, parallelism).
func (w *Worker) ThreadID() int {
	return w.threadID
}

// Affinity returns the thread index the worker is pinned to, or -1 when
// thread pinning is off.
func (w *Worker) Affinity() int {
	if !w.scheduler.config.PinThreads {
		return -1
	}
	return w.threadID
}

// Options returns the engine configuration.
func (w *Worker) Options() Config {
	return w.scheduler.config
}

// DNS returns the resolution table the worker queries.
func (w *Worker) DNS() AddressBook {
	return w.scheduler.dns
}

// Topology returns the latency/bandwidth graph the worker queries.
func (w *Worker) Topology() Topology {
	return w.scheduler.topo
}

// TasksRun returns how many tasks this worker has executed. Safe to call
// from any thread.
func (w *Worker) TasksRun() uint64 {
	return w.tasksRun.Load()
}
