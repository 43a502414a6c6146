package routing

import "github.com/rs/xid"

// A Packet is a unit of simulated network traffic. The engine treats the
// payload as opaque; only the addressing fields and the size participate in
// delivery-delay computation.
type Packet struct {
	ID      string
	SrcIP   string
	DstIP   string
	SrcPort uint16
	DstPort uint16
	Size    uint64 // total bytes on the wire, headers included
	Payload []byte
}

// NewPacket creates a packet between two endpoints. The size is the payload
// length; callers that model protocol overhead adjust Size afterward,
// before the packet is sent.
func NewPacket(srcIP, dstIP string, payload []byte) *Packet {
	return &Packet{
		ID:      xid.New().String(),
		SrcIP:   srcIP,
		DstIP:   dstIP,
		Size:    uint64(len(payload)),
		Payload: payload,
	}
}
