package routing

// NodeID identifies a simulated host in the topology and the DNS table. IDs
// are assigned sequentially at registration time and are stable for the
// whole run.
type NodeID uint32

// InvalidNodeID is returned by lookups that do not match any host.
const InvalidNodeID NodeID = 0

// An Address binds a simulated host's name to its IP and node identity.
// Addresses are created during scenario construction and never mutated
// afterward.
type Address struct {
	ID   NodeID
	Name string
	IP   string
}

// String returns the "name (ip)" form, used in log messages.
func (a *Address) String() string {
	return a.Name + " (" + a.IP + ")"
}
