// Package apps provides host applications that run on top of the
// simulation kernel.
package apps

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"
	"github.com/umbralab/umbra/counter"
	"github.com/umbralab/umbra/routing"
	"github.com/umbralab/umbra/sim"
)

// Ping sends echo requests to a peer at a fixed interval and records the
// round-trip time of each reply.
type Ping struct {
	host     *sim.Host
	peerIP   string
	interval sim.SimulationTime
	count    int

	sent     int
	received int
	rtts     []sim.SimulationTime
}

// NewPing installs a ping client on a host. It sends count requests to
// peerIP, one per interval. A zero count means one request.
func NewPing(
	host *sim.Host,
	peerIP string,
	interval sim.SimulationTime,
	count int,
) *Ping {
	if count <= 0 {
		count = 1
	}

	p := &Ping{
		host:     host,
		peerIP:   peerIP,
		interval: interval,
		count:    count,
	}

	host.SetBootHandler(p.boot)
	host.SetPacketHandler(p.receive)

	return p
}

// Sent returns the number of requests sent.
func (p *Ping) Sent() int {
	return p.sent
}

// Received returns the number of replies received.
func (p *Ping) Received() int {
	return p.received
}

// RTTs returns the round-trip time of each reply, in arrival order.
func (p *Ping) RTTs() []sim.SimulationTime {
	return p.rtts
}

// MeanRTT returns the mean round-trip time, or zero before any reply.
func (p *Ping) MeanRTT() sim.SimulationTime {
	if len(p.rtts) == 0 {
		return 0
	}

	var total sim.SimulationTime
	for _, rtt := range p.rtts {
		total += rtt
	}

	return total / sim.SimulationTime(len(p.rtts))
}

func (p *Ping) boot(w *sim.Worker) {
	p.sendRequest(w)
}

func (p *Ping) sendRequest(w *sim.Worker) {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, uint64(w.CurrentTime()))

	pkt := routing.NewPacket(p.host.Address().IP, p.peerIP, payload)
	if !w.SendPacket(pkt) {
		logrus.WithField("host", p.host.Name()).
			Warn("ping request could not be sent")
		return
	}

	p.sent++
	w.CountObject("ping_outstanding", counter.CountAlloc)

	if p.sent < p.count {
		w.ScheduleTask(
			sim.NewTask(p.host.ID(), p.sendRequest), p.interval)
	}
}

func (p *Ping) receive(w *sim.Worker, pkt *routing.Packet) {
	if len(pkt.Payload) != 8 {
		logrus.WithField("host", p.host.Name()).
			Debug("dropping malformed ping reply")
		return
	}

	sentAt := sim.SimulationTime(binary.BigEndian.Uint64(pkt.Payload))
	rtt := w.CurrentTime() - sentAt

	p.received++
	p.rtts = append(p.rtts, rtt)
	w.CountObject("ping_outstanding", counter.CountDealloc)

	logrus.WithFields(logrus.Fields{
		"host": p.host.Name(),
		"peer": pkt.SrcIP,
		"rtt":  rtt.Duration(),
	}).Debug("ping reply received")
}

// Echo replies to every packet a host receives, mirroring the payload back
// to the sender.
type Echo struct {
	host *sim.Host

	replied int
}

// NewEcho installs an echo responder on a host.
func NewEcho(host *sim.Host) *Echo {
	e := &Echo{host: host}

	host.SetPacketHandler(e.receive)

	return e
}

// Replied returns the number of packets echoed back.
func (e *Echo) Replied() int {
	return e.replied
}

func (e *Echo) receive(w *sim.Worker, pkt *routing.Packet) {
	reply := routing.NewPacket(e.host.Address().IP, pkt.SrcIP, pkt.Payload)
	if !w.SendPacket(reply) {
		logrus.WithField("host", e.host.Name()).
			Warn("echo reply could not be sent")
		return
	}

	e.replied++
}
