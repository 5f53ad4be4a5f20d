package cluster

import (
	"math/big"
	"time"

	"ripcache/internal/crc16"
	"ripcache/internal/nodeid"
	"ripcache/internal/rip"
)

// ShouldMarkPFail reports whether a peer should be locally suspected
// dead: it hasn't ponged within node_timeout and a ping sent since is
// still unanswered. now is passed in explicitly so this is a pure,
// deterministically testable function rather than reading the wall
// clock itself.
func ShouldMarkPFail(now, lastPongReceived, lastPingSent time.Time, nodeTimeout time.Duration) bool {
	if now.Sub(lastPongReceived) <= nodeTimeout {
		return false
	}
	pingElapsed := now.Sub(lastPingSent)
	pongElapsed := now.Sub(lastPongReceived)
	return pingElapsed <= pongElapsed
}

// ShouldEscalateToFail reports whether local suspicion should become
// cluster-wide FAIL: strictly more than half of the other known
// masters have accused the subject of PFAIL or FAIL.
func ShouldEscalateToFail(accusers, otherMasters int) bool {
	if otherMasters == 0 {
		return false
	}
	return accusers*2 > otherMasters
}

// ApplyGossipEntry updates the accusers set and flags for one gossip
// entry received in a Ping/Pong payload. sender is the node id of the
// peer that sent the enclosing frame.
func ApplyGossipEntry(table *Table, entry rip.GossipEntry, sender nodeid.ID) {
	if entry.Flags.IsFail() || entry.Flags.IsPFail() {
		table.RecordAccusation(entry.NodeID, sender)
	}
	if existing, ok := table.Get(entry.NodeID); ok {
		existing.Flags = entry.Flags
		table.Upsert(existing)
	}
}

// ClusterBitset is the 16384-bit slot coverage map used to recompute
// cluster_state. big.Int's bit ops give O(1)-word set/test without a
// custom bit-packed type.
type ClusterBitset struct {
	bits big.Int
}

func (b *ClusterBitset) markRange(start, end uint16) {
	for s := start; s < end; s++ {
		b.bits.SetBit(&b.bits, int(s), 1)
	}
}

func (b *ClusterBitset) fullyCovered() bool {
	for s := 0; s < crc16.SlotCount; s++ {
		if b.bits.Bit(s) == 0 {
			return false
		}
	}
	return true
}

// RecomputeClusterState walks [0, 16384) and reports whether every
// slot is covered by a non-failed master (self or peer).
func RecomputeClusterState(self *Node, table *Table) rip.ClusterState {
	var bits ClusterBitset
	if self.Role() == RoleMaster {
		start, end := self.SlotRange()
		bits.markRange(start, end)
	}
	for _, m := range table.Masters() {
		if m.Flags.IsFail() {
			continue
		}
		bits.markRange(m.SlotStart, m.SlotEnd)
	}
	if bits.fullyCovered() {
		return rip.ClusterOK
	}
	return rip.ClusterFail
}
