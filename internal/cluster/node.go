// Package cluster implements the node core: identity and epochs, the
// known-nodes table, gossip-driven failure detection, the failover
// election protocol, and replica fan-out.
package cluster

import (
	"sync"
	"sync/atomic"

	"ripcache/internal/nodeid"
	"ripcache/internal/rip"
)

// Role is a node's current replication role.
type Role int

const (
	RoleMaster Role = iota
	RoleReplica
)

// Node is this process's own cluster identity: epochs advance
// monotonically via CAS, the rest is guarded by a plain mutex since
// updates are infrequent compared to storage traffic.
type Node struct {
	ID nodeid.ID

	currentEpoch atomic.Uint64
	configEpoch  atomic.Uint64
	repOffset    atomic.Uint64

	mu          sync.RWMutex
	role        Role
	slotStart   uint16
	slotEnd     uint16
	masterID    nodeid.ID
	clientAddr  rip.SocketAddr
	clusterAddr rip.SocketAddr
	state       rip.ClusterState
}

// NewMaster creates a fresh master node owning [slotStart, slotEnd).
func NewMaster(id nodeid.ID, clientAddr, clusterAddr rip.SocketAddr, slotStart, slotEnd uint16) *Node {
	n := &Node{
		ID: id, role: RoleMaster,
		slotStart: slotStart, slotEnd: slotEnd,
		clientAddr: clientAddr, clusterAddr: clusterAddr,
		state: rip.ClusterOK,
	}
	return n
}

// NewReplica creates a fresh replica node following masterID, with no
// slot range until SetSlotRange mirrors its master's or a promotion
// assigns one.
func NewReplica(id nodeid.ID, clientAddr, clusterAddr rip.SocketAddr, masterID nodeid.ID) *Node {
	return &Node{
		ID: id, role: RoleReplica, masterID: masterID,
		clientAddr: clientAddr, clusterAddr: clusterAddr,
		state: rip.ClusterOK,
	}
}

func (n *Node) CurrentEpoch() uint64 { return n.currentEpoch.Load() }
func (n *Node) ConfigEpoch() uint64  { return n.configEpoch.Load() }

// ReplicationOffset returns the number of mutating commands this node
// has applied so far.
func (n *Node) ReplicationOffset() uint64 { return n.repOffset.Load() }

// IncrementOffset implements dispatch.OffsetCounter: every applied
// mutating command bumps replication_offset by one.
func (n *Node) IncrementOffset() uint64 { return n.repOffset.Add(1) }

// SetReplicationOffset restores the counter from persisted metadata on
// restart.
func (n *Node) SetReplicationOffset(v uint64) { n.repOffset.Store(v) }

// AdvanceCurrentEpoch bumps current_epoch to at least target;
// current_epoch never decreases, even under concurrent updates.
func (n *Node) AdvanceCurrentEpoch(target uint64) uint64 {
	for {
		cur := n.currentEpoch.Load()
		if target <= cur {
			return cur
		}
		if n.currentEpoch.CompareAndSwap(cur, target) {
			return target
		}
	}
}

// IncrementCurrentEpoch is used by a candidate replica starting an
// election round.
func (n *Node) IncrementCurrentEpoch() uint64 { return n.currentEpoch.Add(1) }

func (n *Node) SetConfigEpoch(v uint64) { n.configEpoch.Store(v) }

func (n *Node) Role() Role {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.role
}

func (n *Node) IsReplica() bool { return n.Role() == RoleReplica }

func (n *Node) SlotRange() (uint16, uint16) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.slotStart, n.slotEnd
}

func (n *Node) Addrs() (client, cluster rip.SocketAddr) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.clientAddr, n.clusterAddr
}

func (n *Node) ClusterState() rip.ClusterState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

func (n *Node) SetClusterState(s rip.ClusterState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = s
}

// Promote transitions a replica into a master owning slotStart/slotEnd
// at the given config epoch.
func (n *Node) Promote(slotStart, slotEnd uint16, configEpoch uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.role = RoleMaster
	n.slotStart, n.slotEnd = slotStart, slotEnd
	n.masterID = nodeid.Empty
	n.configEpoch.Store(configEpoch)
}

func (n *Node) MasterID() nodeid.ID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.masterID
}

// RebindMaster updates the master this replica follows, used when
// MeetNewMaster arrives re-introducing a freshly promoted master.
func (n *Node) RebindMaster(masterID nodeid.ID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.masterID = masterID
}

// SetSlotRange mirrors the master's slot range onto this replica so it
// accepts replicated writes and serves reads for the same keys.
func (n *Node) SetSlotRange(start, end uint16) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.slotStart, n.slotEnd = start, end
}
