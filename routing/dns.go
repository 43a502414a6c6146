package routing

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DNS is a bidirectional name/IP resolution table. It is populated during
// scenario construction and read-only afterward, so lookups take no lock.
type DNS struct {
	frozen bool

	byName map[string]*Address
	byIP   map[string]*Address
	byID   map[NodeID]*Address

	nextID NodeID
}

// NewDNS creates an empty resolution table.
func NewDNS() *DNS {
	return &DNS{
		byName: make(map[string]*Address),
		byIP:   make(map[string]*Address),
		byID:   make(map[NodeID]*Address),
		nextID: 1,
	}
}

// Register adds a name/IP pair to the table and returns the assigned
// address. Registration fails if the name or the IP is already taken, or if
// the table has been frozen.
func (d *DNS) Register(name, ip string) (*Address, error) {
	if d.frozen {
		return nil, fmt.Errorf("dns: table is frozen")
	}

	if _, taken := d.byName[name]; taken {
		return nil, fmt.Errorf("dns: name %s already registered", name)
	}

	if _, taken := d.byIP[ip]; taken {
		return nil, fmt.Errorf("dns: ip %s already registered", ip)
	}

	addr := &Address{
		ID:   d.nextID,
		Name: name,
		IP:   ip,
	}
	d.nextID++

	d.byName[name] = addr
	d.byIP[ip] = addr
	d.byID[addr.ID] = addr

	logrus.WithFields(logrus.Fields{
		"name": name,
		"ip":   ip,
		"id":   addr.ID,
	}).Debug("dns: registered address")

	return addr, nil
}

// Freeze marks the table read-only. Lookups before Freeze are allowed but
// the table must not be shared across threads until frozen.
func (d *DNS) Freeze() {
	d.frozen = true
}

// ResolveName returns the address registered under the given name, or nil
// if there is none.
func (d *DNS) ResolveName(name string) *Address {
	return d.byName[name]
}

// ResolveIP returns the address registered under the given IP, or nil if
// there is none.
func (d *DNS) ResolveIP(ip string) *Address {
	return d.byIP[ip]
}

// ResolveID returns the address with the given node ID, or nil.
func (d *DNS) ResolveID(id NodeID) *Address {
	return d.byID[id]
}

// Len returns the number of registered addresses.
func (d *DNS) Len() int {
	return len(d.byID)
}
