package cluster

import (
	"math/rand"
	"sync"
	"time"

	"ripcache/internal/nodeid"
	"ripcache/internal/rip"
)

// NeighborInfo is what this node remembers about one peer: its role,
// slot range, address, flags, and the gossip timing used for failure
// detection.
type NeighborInfo struct {
	NodeID      nodeid.ID
	Role        Role
	Flags       rip.Flags
	ClientAddr  rip.SocketAddr
	ClusterAddr rip.SocketAddr
	SlotStart   uint16
	SlotEnd     uint16
	MasterID    nodeid.ID // for replicas: the master they follow
	ReplOffset  uint64    // last offset the peer reported (rank negotiation)

	LastPongReceived time.Time
	LastPingSent     time.Time

	// Accusers is the set of nodes that have reported this peer PFAIL
	// or FAIL via gossip.
	Accusers map[nodeid.ID]struct{}
}

func (ni NeighborInfo) ownsSlot(slot uint16) bool {
	return ni.Role == RoleMaster && slot >= ni.SlotStart && slot < ni.SlotEnd
}

// Table is the known-nodes table: one RWMutex guarding a plain map,
// never held across I/O.
type Table struct {
	mu    sync.RWMutex
	self  nodeid.ID
	peers map[nodeid.ID]*NeighborInfo
}

func NewTable(self nodeid.ID) *Table {
	return &Table{self: self, peers: make(map[nodeid.ID]*NeighborInfo)}
}

// Upsert inserts or replaces a peer's entry wholesale (used on MEET and
// on receiving a fresh gossip entry about a peer already known).
func (t *Table) Upsert(info NeighborInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if info.Accusers == nil {
		if existing, ok := t.peers[info.NodeID]; ok {
			info.Accusers = existing.Accusers
		} else {
			info.Accusers = make(map[nodeid.ID]struct{})
		}
	}
	t.peers[info.NodeID] = &info
}

func (t *Table) Get(id nodeid.ID) (NeighborInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.peers[id]
	if !ok {
		return NeighborInfo{}, false
	}
	return *info, true
}

func (t *Table) Remove(id nodeid.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, id)
}

// AddFlags ORs flags into a peer's entry, preserving everything else.
func (t *Table) AddFlags(id nodeid.ID, flags rip.Flags) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if info, ok := t.peers[id]; ok {
		info.Flags |= flags
	}
}

// MarkPingSent stamps the time a PING left for id, which failure
// detection compares against the last PONG received.
func (t *Table) MarkPingSent(id nodeid.ID, when time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if info, ok := t.peers[id]; ok {
		info.LastPingSent = when
	}
}

// RecordOffset stores the replication offset a peer reported in a
// FailoverNegotiation frame.
func (t *Table) RecordOffset(id nodeid.ID, offset uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if info, ok := t.peers[id]; ok {
		info.ReplOffset = offset
	}
}

// RecordAccusation notes that accuser reports subject as PFAIL/FAIL.
func (t *Table) RecordAccusation(subject, accuser nodeid.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info, ok := t.peers[subject]
	if !ok {
		return
	}
	if info.Accusers == nil {
		info.Accusers = make(map[nodeid.ID]struct{})
	}
	info.Accusers[accuser] = struct{}{}
}

func (t *Table) AccuserCount(subject nodeid.ID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.peers[subject]
	if !ok {
		return 0
	}
	return len(info.Accusers)
}

// Sample returns up to n random entries, excluding self, for a PING or
// PONG frame's piggybacked gossip payload.
func (t *Table) Sample(n int) []NeighborInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	all := make([]NeighborInfo, 0, len(t.peers))
	for _, info := range t.peers {
		all = append(all, *info)
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// GossipSampleSize is floor(|known|/2), the sample size carried on
// every heartbeat.
func (t *Table) GossipSampleSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers) / 2
}

// All returns every known peer.
func (t *Table) All() []NeighborInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]NeighborInfo, 0, len(t.peers))
	for _, info := range t.peers {
		out = append(out, *info)
	}
	return out
}

func (t *Table) Masters() []NeighborInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []NeighborInfo
	for _, info := range t.peers {
		if info.Role == RoleMaster {
			out = append(out, *info)
		}
	}
	return out
}

// Replicas returns every known replica regardless of which master it
// follows.
func (t *Table) Replicas() []NeighborInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []NeighborInfo
	for _, info := range t.peers {
		if info.Role == RoleReplica {
			out = append(out, *info)
		}
	}
	return out
}

// ReplicasOf returns the known replicas following masterID. Entries
// whose MasterID was never learned (a bare gossip mention carries no
// master linkage) are included rather than dropped, so a promotion
// still reaches them.
func (t *Table) ReplicasOf(masterID nodeid.ID) []NeighborInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []NeighborInfo
	for _, info := range t.peers {
		if info.Role == RoleReplica && (info.MasterID == masterID || info.MasterID.IsZero()) {
			out = append(out, *info)
		}
	}
	return out
}

// OwnerOfSlot returns the non-failed master owning slot, if known.
func (t *Table) OwnerOfSlot(slot uint16, selfOwnsIt bool, self NeighborInfo) (NeighborInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if selfOwnsIt {
		return self, true
	}
	for _, info := range t.peers {
		if !info.Flags.IsFail() && info.ownsSlot(slot) {
			return *info, true
		}
	}
	return NeighborInfo{}, false
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}
