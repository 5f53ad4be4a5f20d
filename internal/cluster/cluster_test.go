package cluster

import (
	"testing"
	"time"

	"ripcache/internal/nodeid"
	"ripcache/internal/rip"
	"ripcache/internal/storage"
)

func mustAddr(t *testing.T, s string) rip.SocketAddr {
	t.Helper()
	a, err := rip.ParseSocketAddr(s)
	if err != nil {
		t.Fatalf("ParseSocketAddr(%q): %v", s, err)
	}
	return a
}

func TestEpochMonotone(t *testing.T) {
	n := NewMaster(nodeid.New(), mustAddr(t, "127.0.0.1:7000"), mustAddr(t, "127.0.0.1:17000"), 0, 100)
	n.AdvanceCurrentEpoch(5)
	n.AdvanceCurrentEpoch(3) // must not regress
	if n.CurrentEpoch() != 5 {
		t.Fatalf("expected epoch to stay at 5, got %d", n.CurrentEpoch())
	}
	n.AdvanceCurrentEpoch(9)
	if n.CurrentEpoch() != 9 {
		t.Fatalf("expected epoch 9, got %d", n.CurrentEpoch())
	}
}

func TestShouldMarkPFail(t *testing.T) {
	now := time.Unix(1000, 0)
	nodeTimeout := 5 * time.Second

	// Pong recent: never PFAIL.
	if ShouldMarkPFail(now, now.Add(-1*time.Second), now.Add(-2*time.Second), nodeTimeout) {
		t.Fatal("expected no PFAIL when pong is recent")
	}

	// Pong stale and a ping is outstanding (sent after last pong).
	lastPong := now.Add(-10 * time.Second)
	lastPing := now.Add(-1 * time.Second)
	if !ShouldMarkPFail(now, lastPong, lastPing, nodeTimeout) {
		t.Fatal("expected PFAIL when pong stale and ping outstanding")
	}
}

func TestShouldEscalateToFail(t *testing.T) {
	if ShouldEscalateToFail(2, 4) {
		t.Fatal("2 of 4 is not a strict majority")
	}
	if !ShouldEscalateToFail(3, 4) {
		t.Fatal("3 of 4 should escalate")
	}
	if ShouldEscalateToFail(0, 0) {
		t.Fatal("no other masters: should never escalate")
	}
}

func TestRecomputeClusterStateFullCoverage(t *testing.T) {
	self := NewMaster(nodeid.New(), mustAddr(t, "127.0.0.1:7000"), mustAddr(t, "127.0.0.1:17000"), 0, 8192)
	table := NewTable(self.ID)
	table.Upsert(NeighborInfo{
		NodeID: nodeid.New(), Role: RoleMaster,
		SlotStart: 8192, SlotEnd: 16384,
	})
	if got := RecomputeClusterState(self, table); got != rip.ClusterOK {
		t.Fatalf("expected ClusterOK, got %v", got)
	}
}

func TestRecomputeClusterStateGap(t *testing.T) {
	self := NewMaster(nodeid.New(), mustAddr(t, "127.0.0.1:7000"), mustAddr(t, "127.0.0.1:17000"), 0, 8000)
	table := NewTable(self.ID)
	table.Upsert(NeighborInfo{
		NodeID: nodeid.New(), Role: RoleMaster,
		SlotStart: 8192, SlotEnd: 16384,
	})
	if got := RecomputeClusterState(self, table); got != rip.ClusterFail {
		t.Fatalf("expected ClusterFail due to gap [8000,8192), got %v", got)
	}
}

func TestRecomputeClusterStateIgnoresFailedMaster(t *testing.T) {
	self := NewMaster(nodeid.New(), mustAddr(t, "127.0.0.1:7000"), mustAddr(t, "127.0.0.1:17000"), 0, 8192)
	table := NewTable(self.ID)
	table.Upsert(NeighborInfo{
		NodeID: nodeid.New(), Role: RoleMaster,
		SlotStart: 8192, SlotEnd: 16384, Flags: rip.FlagFail,
	})
	if got := RecomputeClusterState(self, table); got != rip.ClusterFail {
		t.Fatalf("expected ClusterFail when the only owner of a range is FAIL, got %v", got)
	}
}

func TestFailoverRoundQuorum(t *testing.T) {
	round := NewRound()
	now := time.Unix(2000, 0)
	round.BeginElection(7, 3, 2*time.Second, now)

	if round.RecordAck(nodeid.New(), 7) {
		t.Fatal("1 of 3 masters should not be quorum")
	}
	if !round.RecordAck(nodeid.New(), 7) {
		t.Fatal("2 of 3 masters (strict majority) should reach quorum")
	}
	if round.Phase() != PhasePromoted {
		t.Fatalf("expected PhasePromoted, got %v", round.Phase())
	}
}

func TestFailoverRoundIgnoresWrongEpochAck(t *testing.T) {
	round := NewRound()
	round.BeginElection(7, 3, 2*time.Second, time.Unix(2000, 0))
	if round.RecordAck(nodeid.New(), 6) {
		t.Fatal("ack for a stale epoch must not count")
	}
}

func TestFailoverRoundTimeout(t *testing.T) {
	round := NewRound()
	now := time.Unix(3000, 0)
	round.BeginElection(1, 3, 1*time.Second, now)
	if round.CheckTimeout(now.Add(500 * time.Millisecond)) {
		t.Fatal("should not time out before the deadline")
	}
	if !round.CheckTimeout(now.Add(2 * time.Second)) {
		t.Fatal("expected timeout past the deadline")
	}
	if round.Phase() != PhaseAborted {
		t.Fatalf("expected PhaseAborted, got %v", round.Phase())
	}
}

func TestVoteBookAtMostOneVotePerEpoch(t *testing.T) {
	vb := NewVoteBook()
	master := nodeid.New()
	now := time.Unix(4000, 0)
	nodeTimeout := time.Second

	if !vb.TryVote(master, 5, 3, 100, 100, now, nodeTimeout) {
		t.Fatal("first vote at a fresh epoch should succeed")
	}
	if vb.TryVote(master, 5, 3, 100, 100, now, nodeTimeout) {
		t.Fatal("second vote at the same epoch must be refused")
	}
	if !vb.TryVote(master, 6, 3, 100, 100, now.Add(3*time.Second), nodeTimeout) {
		t.Fatal("a higher epoch after the cooldown should succeed")
	}
}

func TestVoteBookRefusesStaleOffset(t *testing.T) {
	vb := NewVoteBook()
	master := nodeid.New()
	now := time.Unix(5000, 0)
	if vb.TryVote(master, 1, 0, 10, 50, now, time.Second) {
		t.Fatal("a candidate behind the voter's known offset must be refused")
	}
}

func TestRankOrdersByOffset(t *testing.T) {
	if r := Rank(100, []uint64{50, 150, 200}); r != 2 {
		t.Fatalf("Rank = %d, want 2 (two siblings ahead)", r)
	}
	if r := Rank(200, []uint64{50, 150}); r != 0 {
		t.Fatalf("Rank = %d, want 0 (highest offset)", r)
	}
	if d := RankDelay(2, time.Second); d != 2*time.Second {
		t.Fatalf("RankDelay = %v, want 2s", d)
	}
}

func TestTableAddFlagsPreservesEntry(t *testing.T) {
	table := NewTable(nodeid.New())
	id := nodeid.New()
	table.Upsert(NeighborInfo{
		NodeID: id, Role: RoleMaster, Flags: rip.FlagMaster,
		SlotStart: 0, SlotEnd: 100,
	})
	table.AddFlags(id, rip.FlagFail)
	info, ok := table.Get(id)
	if !ok {
		t.Fatal("entry vanished")
	}
	if !info.Flags.IsMaster() || !info.Flags.IsFail() {
		t.Fatalf("expected master+fail flags preserved, got %08b", info.Flags)
	}
	if info.SlotEnd != 100 {
		t.Fatalf("slot range clobbered: %d", info.SlotEnd)
	}
}

func TestTableRecordOffsetForNegotiation(t *testing.T) {
	table := NewTable(nodeid.New())
	id := nodeid.New()
	table.Upsert(NeighborInfo{NodeID: id, Role: RoleReplica})
	table.RecordOffset(id, 77)
	info, _ := table.Get(id)
	if info.ReplOffset != 77 {
		t.Fatalf("ReplOffset = %d, want 77", info.ReplOffset)
	}
}

func TestReplicasOfFiltersByMaster(t *testing.T) {
	table := NewTable(nodeid.New())
	masterA, masterB := nodeid.New(), nodeid.New()
	repA, repB := nodeid.New(), nodeid.New()
	table.Upsert(NeighborInfo{NodeID: repA, Role: RoleReplica, MasterID: masterA})
	table.Upsert(NeighborInfo{NodeID: repB, Role: RoleReplica, MasterID: masterB})

	got := table.ReplicasOf(masterA)
	if len(got) != 1 || got[0].NodeID != repA {
		t.Fatalf("expected only masterA's replica, got %+v", got)
	}
}

func TestReplicatorBroadcastFansOutToAll(t *testing.T) {
	r := NewReplicator()
	var got1, got2 [][]string
	r.AddReplica(&ReplicaConn{ID: nodeid.New(), Send: func(tokens []string) error {
		got1 = append(got1, tokens)
		return nil
	}})
	r.AddReplica(&ReplicaConn{ID: nodeid.New(), Send: func(tokens []string) error {
		got2 = append(got2, tokens)
		return nil
	}})
	r.Broadcast([]string{"SET", "k", "v"})
	if len(got1) != 1 || len(got2) != 1 {
		t.Fatalf("expected both replicas to receive the broadcast, got %d and %d", len(got1), len(got2))
	}
}

func TestSnapshotCommandsReconstructsStorage(t *testing.T) {
	store := storage.New(0, 16384)
	_ = store.Set("s", storage.NewStringObject([]byte("v")))
	cmds := SnapshotCommands(store)
	if len(cmds) != 1 || cmds[0][0] != "SET" {
		t.Fatalf("unexpected snapshot commands: %+v", cmds)
	}
}

func TestControllerOwnerAddrSelfOwned(t *testing.T) {
	self := NewMaster(nodeid.New(), mustAddr(t, "127.0.0.1:7000"), mustAddr(t, "127.0.0.1:17000"), 0, 100)
	ctl := NewController(self, NewTable(self.ID), NewReplicator())
	addr, ok := ctl.OwnerAddr(50)
	if !ok || addr != "127.0.0.1:7000" {
		t.Fatalf("expected self-owned addr, got %q ok=%v", addr, ok)
	}
}

func TestControllerOwnerAddrUnknown(t *testing.T) {
	self := NewMaster(nodeid.New(), mustAddr(t, "127.0.0.1:7000"), mustAddr(t, "127.0.0.1:17000"), 0, 100)
	ctl := NewController(self, NewTable(self.ID), NewReplicator())
	if _, ok := ctl.OwnerAddr(200); ok {
		t.Fatal("expected unknown owner for a slot nobody in the table owns")
	}
}
