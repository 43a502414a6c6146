package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/umbralab/umbra/counter"
	"github.com/umbralab/umbra/routing"
)

// A Process is the execution state a host runs on behalf of simulated
// software. A host owns at most one active process at a time; the engine
// treats the process as opaque beyond its identity.
type Process struct {
	PID  int
	Name string
}

// A Host is one simulated machine: a stable network identity, bandwidth
// limits, and a queue of pending tasks. Hosts are statically assigned to
// one worker thread for the whole run, so only that thread ever executes a
// host's tasks.
type Host struct {
	addr   *routing.Address
	bwUp   uint64
	bwDown uint64

	process *Process
	queue   *TaskQueue

	// onBoot runs under the owning worker's context when the host boots,
	// before the first round. It is where simulated software schedules its
	// initial work.
	onBoot TaskFunc

	// onPacket runs under the owning worker's context when a packet is
	// delivered to this host.
	onPacket func(w *Worker, p *routing.Packet)

	booted bool
}

// NewHost creates a host with the given identity and bandwidth limits in
// bytes per second.
func NewHost(addr *routing.Address, bwUp, bwDown uint64) *Host {
	return &Host{
		addr:   addr,
		bwUp:   bwUp,
		bwDown: bwDown,
		queue:  NewTaskQueue(),
	}
}

// ID returns the host's node identity.
func (h *Host) ID() routing.NodeID {
	return h.addr.ID
}

// Name returns the host's registered name.
func (h *Host) Name() string {
	return h.addr.Name
}

// Address returns the host's address record.
func (h *Host) Address() *routing.Address {
	return h.addr
}

// Queue returns the host's pending-task queue.
func (h *Host) Queue() *TaskQueue {
	return h.queue
}

// SetProcess attaches the process the host runs. Must be called before the
// run starts.
func (h *Host) SetProcess(p *Process) {
	h.process = p
}

// Process returns the host's active process, which may be nil.
func (h *Host) Process() *Process {
	return h.process
}

// SetBootHandler installs the callback that runs when the host boots.
func (h *Host) SetBootHandler(fn TaskFunc) {
	h.onBoot = fn
}

// SetPacketHandler installs the callback that runs when a packet is
// delivered to the host.
func (h *Host) SetPacketHandler(fn func(w *Worker, p *routing.Packet)) {
	h.onPacket = fn
}

// boot brings the host up under the given worker context. Runs on the
// owning worker thread only.
func (h *Host) boot(w *Worker) {
	if h.booted {
		return
	}
	h.booted = true

	w.CountObject("host", counter.CountAlloc)

	logrus.WithFields(logrus.Fields{
		"host":   h.addr.Name,
		"thread": w.ThreadID(),
	}).Debug("booting host")

	if h.onBoot != nil {
		w.runHostCallback(h, h.onBoot)
	}
}

// free tears the host down, discarding its pending tasks. Runs on the
// owning worker thread only.
func (h *Host) free(w *Worker) {
	if !h.booted {
		return
	}
	h.booted = false

	discarded := h.queue.Discard()
	if discarded > 0 {
		logrus.WithFields(logrus.Fields{
			"host":  h.addr.Name,
			"tasks": discarded,
		}).Debug("discarded pending tasks on teardown")
	}

	w.CountObject("host", counter.CountDealloc)
}

// deliver hands a packet to the host's packet handler under the worker's
// context. Packets to a host with no handler are dropped.
func (h *Host) deliver(w *Worker, p *routing.Packet) {
	if h.onPacket == nil {
		logrus.WithFields(logrus.Fields{
			"host":   h.addr.Name,
			"packet": p.ID,
		}).Debug("dropping packet, host has no handler")
		return
	}

	h.onPacket(w, p)
}
