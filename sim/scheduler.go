package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/umbralab/umbra/counter"
	"github.com/umbralab/umbra/routing"
)

// The Scheduler owns the authoritative simulated clock, partitions hosts
// across worker threads, and drives barrier-synchronized rounds until no
// host has pending work or the stop time is reached.
//
// Each round: the scheduler computes a time horizon bounded by the minimum
// time-jump bound, releases every worker to run its hosts' due tasks in
// parallel, waits for all of them at the round barrier, commits the
// bookkeeping, and advances the clock to the horizon. The clock never
// moves outside a round boundary and never moves backward.
type Scheduler struct {
	HookableBase

	config Config
	topo   Topology
	dns    AddressBook

	nowLock sync.RWMutex
	now     SimulationTime

	// horizon is written between rounds only; the latch release that
	// follows the write orders it before any worker read.
	horizon SimulationTime

	pauseLock     sync.Mutex
	pauseMu       sync.Mutex
	paused        bool
	singleRunLock sync.Mutex

	hosts     []*Host
	hostsByID map[routing.NodeID]*Host

	// assignment is the static host-to-thread ownership table. Built once
	// at run start; never changes, which is what makes per-host execution
	// race-free by construction.
	assignment map[routing.NodeID]int

	workers []*Worker

	minJump *minTimeJump

	objectCounter *counter.ObjectCounter
	syscallCounts *counter.Counter
	pluginErrors  atomic.Int64

	alive         atomic.Bool
	stopRequested atomic.Bool
	round         atomic.Uint64

	releaseLatches [2]*CountDownLatch
	doneLatches    [2]*CountDownLatch
	bootDone       *CountDownLatch

	notifyDoneRunning *CountDownLatch
	notifyReadyToJoin *CountDownLatch
	notifyJoined      *CountDownLatch

	endHandlers []SimulationEndHandler
}

// NewScheduler creates a scheduler over the given topology and resolution
// table. Hosts are added with AddHost before Run.
func NewScheduler(config Config, topo Topology, dns AddressBook) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		config:        config,
		topo:          topo,
		dns:           dns,
		hostsByID:     make(map[routing.NodeID]*Host),
		minJump:       newMinTimeJump(config.MinTimeJump),
		objectCounter: counter.NewObjectCounter(),
		syscallCounts: counter.NewCounter(),
	}

	return s, nil
}

// AddHost registers a host with the run. Must be called before Run.
func (s *Scheduler) AddHost(h *Host) {
	if s.alive.Load() {
		logrus.Panic("cannot add a host to a running scheduler")
	}

	if _, taken := s.hostsByID[h.ID()]; taken {
		logrus.Panicf("host %s already added", h.Name())
	}

	s.hosts = append(s.hosts, h)
	s.hostsByID[h.ID()] = h
}

// Hosts returns the registered hosts.
func (s *Scheduler) Hosts() []*Host {
	return s.hosts
}

func (s *Scheduler) hostByID(id routing.NodeID) *Host {
	return s.hostsByID[id]
}

// OwnerThread returns the index of the worker thread that owns a host, or
// -1 before the run has partitioned hosts.
func (s *Scheduler) OwnerThread(id routing.NodeID) int {
	t, ok := s.assignment[id]
	if !ok {
		return -1
	}
	return t
}

// Run partitions hosts across worker threads, spawns them, and drives
// rounds to completion. It returns an error only for barrier protocol
// violations; an idle simulation simply ends.
func (s *Scheduler) Run() error {
	s.singleRunLock.Lock()
	defer s.singleRunLock.Unlock()

	threadCount := s.config.parallelism()
	if threadCount > len(s.hosts) {
		threadCount = len(s.hosts)
	}
	if threadCount < 1 {
		threadCount = 1
	}

	s.partitionHosts(threadCount)
	s.initLatches(threadCount)

	// The smallest link latency already bounds how soon any cross-host
	// event can take effect. Seeding the bound with it protects even the
	// first packet over the shortest link; dynamic observation can only
	// lower it further.
	if ml := FromDuration(s.topo.MinimumLatency()); ml > 0 {
		s.minJump.update(ml)
		s.minJump.commit()
	}

	s.alive.Store(true)

	for _, w := range s.workers {
		rd := &WorkerRunData{
			ThreadID:          w.threadID,
			Scheduler:         s,
			NotifyDoneRunning: s.notifyDoneRunning,
			NotifyReadyToJoin: s.notifyReadyToJoin,
			NotifyJoined:      s.notifyJoined,
		}
		go w.Run(rd)
	}

	if !s.bootDone.AwaitTimeout(s.config.BarrierTimeout) {
		return s.abortBarrier("boot")
	}

	rounds, err := s.driveRounds()
	if err != nil {
		return err
	}

	return s.shutDown(rounds)
}

// driveRounds runs the steady-state round loop. It returns the number of
// rounds released, which identifies the latch pair the workers are parked
// on when the loop ends.
func (s *Scheduler) driveRounds() (uint64, error) {
	for r := uint64(0); ; r++ {
		s.pauseLock.Lock()

		horizon, ok := s.nextHorizon()
		if !ok || s.stopRequested.Load() {
			s.pauseLock.Unlock()
			return r, nil
		}

		s.horizon = horizon

		s.InvokeHook(HookCtx{
			Domain: s,
			Now:    s.readNow(),
			Pos:    HookPosRoundStart,
			Item:   horizon,
		})

		// Rearm the other latch pair for round r+1. Every worker has
		// passed it: the scheduler observed their countdown for round
		// r-1, which they can only reach after leaving round r-2's
		// latches.
		s.releaseLatches[(r+1)%2].Reset(1)
		s.doneLatches[(r+1)%2].Reset(len(s.workers))

		s.releaseLatch(r).CountDown()

		if !s.doneLatch(r).AwaitTimeout(s.config.BarrierTimeout) {
			s.pauseLock.Unlock()
			return r, s.abortBarrier("round")
		}

		s.minJump.commit()
		s.writeNow(horizon)
		s.round.Add(1)

		s.InvokeHook(HookCtx{
			Domain: s,
			Now:    horizon,
			Pos:    HookPosRoundEnd,
			Item:   horizon,
		})

		s.pauseLock.Unlock()
	}
}

// shutDown walks the teardown handshake: release the workers one last time
// so they observe the end of the run, wait for them to free their hosts,
// then join.
func (s *Scheduler) shutDown(rounds uint64) error {
	s.alive.Store(false)
	s.releaseLatch(rounds).CountDown()

	if !s.notifyDoneRunning.AwaitTimeout(s.config.BarrierTimeout) {
		return s.abortBarrier("teardown")
	}

	s.notifyReadyToJoin.CountDown()
	s.notifyJoined.Await()

	now := s.readNow()
	for _, h := range s.endHandlers {
		h.Handle(now)
	}

	logrus.WithFields(logrus.Fields{
		"rounds":        rounds,
		"now":           now,
		"plugin_errors": s.pluginErrors.Load(),
	}).Info("simulation finished")

	return nil
}

func (s *Scheduler) abortBarrier(phase string) error {
	s.alive.Store(false)

	err := fmt.Errorf(
		"worker thread failed to reach the %s barrier within %v",
		phase, s.config.BarrierTimeout)
	logrus.Error(err)

	return err
}

// partitionHosts builds the static ownership table, balanced by host
// count. Reassignment mid-run is not supported.
func (s *Scheduler) partitionHosts(threadCount int) {
	s.assignment = make(map[routing.NodeID]int, len(s.hosts))
	partitions := make([][]*Host, threadCount)

	for i, h := range s.hosts {
		t := i % threadCount
		partitions[t] = append(partitions[t], h)
		s.assignment[h.ID()] = t
	}

	s.workers = make([]*Worker, threadCount)
	for t := 0; t < threadCount; t++ {
		s.workers[t] = newWorker(t, s, partitions[t])
	}
}

func (s *Scheduler) initLatches(threadCount int) {
	for i := 0; i < 2; i++ {
		s.releaseLatches[i] = NewCountDownLatch(1)
		s.doneLatches[i] = NewCountDownLatch(threadCount)
	}

	s.bootDone = NewCountDownLatch(threadCount)
	s.notifyDoneRunning = NewCountDownLatch(threadCount)
	s.notifyReadyToJoin = NewCountDownLatch(1)
	s.notifyJoined = NewCountDownLatch(threadCount)
}

// nextHorizon computes how far the next round may advance the clock. It
// returns false when every host is idle, which ends the run.
//
// The horizon is earliest-due-or-now plus the time-jump bound, capped at
// the stop time. During bootstrap the fixed conservative step is used
// instead of the bound. Horizons never decrease across rounds.
func (s *Scheduler) nextHorizon() (SimulationTime, bool) {
	earliest := SimTimeMax
	for _, h := range s.hosts {
		if d := h.queue.NextDue(); d < earliest {
			earliest = d
		}
	}

	if earliest == SimTimeMax {
		return 0, false
	}

	base := s.readNow()
	if earliest > base {
		// Every pending task is in the future; skip the idle gap.
		base = earliest
	}

	jump := s.minJump.bound()
	if base < s.config.BootstrapEnd {
		jump = s.config.BootstrapJump
	}

	horizon := base + jump
	if horizon < base || horizon > s.config.StopTime {
		horizon = s.config.StopTime
	}

	return horizon, true
}

// releaseLatch returns the latch workers wait on before round r.
func (s *Scheduler) releaseLatch(r uint64) *CountDownLatch {
	return s.releaseLatches[r%2]
}

// doneLatch returns the latch workers count down after round r.
func (s *Scheduler) doneLatch(r uint64) *CountDownLatch {
	return s.doneLatches[r%2]
}

// roundHorizon returns the horizon of the round in progress. Workers read
// it right after being released.
func (s *Scheduler) roundHorizon() SimulationTime {
	return s.horizon
}

func (s *Scheduler) readNow() SimulationTime {
	s.nowLock.RLock()
	t := s.now
	s.nowLock.RUnlock()
	return t
}

func (s *Scheduler) writeNow(t SimulationTime) {
	s.nowLock.Lock()
	if t < s.now {
		s.nowLock.Unlock()
		logrus.Panicf("clock moving backward, from %d to %d", s.now, t)
	}
	s.now = t
	s.nowLock.Unlock()
}

// CurrentTime returns the authoritative global clock.
func (s *Scheduler) CurrentTime() SimulationTime {
	return s.readNow()
}

// Round returns the number of completed rounds.
func (s *Scheduler) Round() uint64 {
	return s.round.Load()
}

// Stop requests a run-wide shutdown. Tasks of the round in flight still
// run to completion; no further round is entered and remaining pending
// tasks are discarded at teardown.
func (s *Scheduler) Stop() {
	s.stopRequested.Store(true)
}

// keepRunning reports whether workers should keep entering rounds.
func (s *Scheduler) keepRunning() bool {
	return s.alive.Load()
}

// Pause prevents the scheduler from starting the next round. The round in
// flight still completes. Pausing an already-paused or finished scheduler
// is a no-op, so a monitor request racing run completion cannot hang.
func (s *Scheduler) Pause() {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()

	if s.paused || !s.alive.Load() {
		return
	}

	s.pauseLock.Lock()
	s.paused = true
}

// Continue resumes a paused scheduler. A no-op when not paused.
func (s *Scheduler) Continue() {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()

	if !s.paused {
		return
	}

	s.pauseLock.Unlock()
	s.paused = false
}

// IsBootstrapActive reports whether the global clock is still inside the
// bootstrap window.
func (s *Scheduler) IsBootstrapActive() bool {
	return s.readNow() < s.config.BootstrapEnd
}

// TimeJumpBound returns the minimum time-jump bound currently in effect.
func (s *Scheduler) TimeJumpBound() SimulationTime {
	return s.minJump.bound()
}

// ObjectCounter returns the shared allocation ledger.
func (s *Scheduler) ObjectCounter() *counter.ObjectCounter {
	return s.objectCounter
}

// SyscallCounts returns the aggregated syscall tally. Complete only after
// Run has returned.
func (s *Scheduler) SyscallCounts() *counter.Counter {
	return s.syscallCounts
}

// PluginErrors returns the number of recoverable errors raised by
// simulated code so far.
func (s *Scheduler) PluginErrors() int64 {
	return s.pluginErrors.Load()
}

// Config returns the engine configuration.
func (s *Scheduler) Config() Config {
	return s.config
}

// RegisterSimulationEndHandler registers a handler to be called after the
// run completes.
func (s *Scheduler) RegisterSimulationEndHandler(handler SimulationEndHandler) {
	s.endHandlers = append(s.endHandlers, handler)
}
