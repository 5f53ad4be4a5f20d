// Package runtime assembles one cluster node's full process: identity
// and persistence restore, the client and cluster-bus listeners, the
// gossip/heartbeat and failover loops, and (optionally) the admin HTTP
// surface: everything cmd/ripcache-node's main.go needs to start a
// node from a parsed Config.
package runtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"ripcache/internal/adminhttp"
	"ripcache/internal/cluster"
	"ripcache/internal/config"
	"ripcache/internal/crypto"
	"ripcache/internal/dispatch"
	"ripcache/internal/metrics"
	"ripcache/internal/nodeid"
	"ripcache/internal/persistence"
	"ripcache/internal/pubsub"
	"ripcache/internal/resp"
	"ripcache/internal/rip"
	"ripcache/internal/session"
	"ripcache/internal/storage"
)

const (
	mailboxSize = 4096

	// heartbeatInterval paces the gossip loop; node_timeout (config)
	// governs failure detection, not send cadence.
	heartbeatInterval = time.Second
)

// Node is one running cluster node with every subsystem wired
// together.
type Node struct {
	cfg *config.Config
	log *logrus.Entry

	self       *cluster.Node
	table      *cluster.Table
	replicator *cluster.Replicator
	controller *cluster.Controller
	round      *cluster.Round
	votes      *cluster.VoteBook

	store  *storage.Storage
	broker *pubsub.Broker
	aof    *persistence.AOFWriter
	ctx    *dispatch.Context

	bus      *cluster.Bus
	listener *session.Listener
	admin    *adminhttp.Server

	metrics  *metrics.Metrics
	registry *prometheus.Registry

	stop chan struct{}
}

// snapshotter adapts Node's own RBD-save path to dispatch.Snapshotter
// (the SAVE command) without exposing the rest of Node's surface.
type snapshotter struct{ n *Node }

func (s snapshotter) SnapshotNow() error { return s.n.snapshot() }

// New loads persisted metadata (or creates a fresh identity), restores
// storage from RBD+AOF, and wires every subsystem, without starting any
// network loop yet; call Start to begin serving.
func New(cfg *config.Config, log *logrus.Entry) (*Node, error) {
	if len(cfg.AESKey) != crypto.KeySize {
		return nil, fmt.Errorf("runtime: config aes_key must be %d bytes", crypto.KeySize)
	}
	clientAddr, err := rip.ParseSocketAddr(cfg.PublicAddress)
	if err != nil {
		return nil, fmt.Errorf("runtime: public_address: %w", err)
	}
	clusterAddr, err := rip.ParseSocketAddr(cfg.ClusterAddress)
	if err != nil {
		return nil, fmt.Errorf("runtime: cluster_address: %w", err)
	}

	self, offsetWatermark := loadOrCreateIdentity(cfg, clientAddr, clusterAddr)

	store := storage.New(self.SlotRange())
	restoredOffset, err := restoreStorage(cfg, store, offsetWatermark)
	if err != nil {
		return nil, fmt.Errorf("runtime: restoring storage: %w", err)
	}
	self.SetReplicationOffset(restoredOffset)

	table := cluster.NewTable(self.ID)
	replicator := cluster.NewReplicator()
	controller := cluster.NewController(self, table, replicator)

	bus, err := cluster.NewBus(cfg.ClusterAddress, mailboxSize)
	if err != nil {
		return nil, fmt.Errorf("runtime: binding cluster bus: %w", err)
	}

	m, reg := metrics.New()

	n := &Node{
		cfg: cfg, log: log,
		self: self, table: table, replicator: replicator, controller: controller,
		round: cluster.NewRound(), votes: cluster.NewVoteBook(),
		store: store, bus: bus, metrics: m, registry: reg,
		stop: make(chan struct{}),
	}

	n.broker = pubsub.New(store, n.broadcastPublish)

	var aofAppender dispatch.AOFAppender
	if cfg.AOFPath != "" {
		aof, err := persistence.NewAOFWriter(cfg.AOFPath)
		if err != nil {
			return nil, fmt.Errorf("runtime: opening AOF: %w", err)
		}
		n.aof = aof
		aofAppender = aof
	}

	if len(cfg.Users) > 0 {
		dispatch.SetAuthPassword(cfg.Users[0].Password)
	}

	n.ctx = &dispatch.Context{
		Storage:     store,
		Broker:      n.broker,
		Cluster:     controller,
		AOF:         aofAppender,
		Offset:      self,
		Snapshotter: snapshotter{n},
		Metrics:     m,
		RequireAuth: true,
	}

	return n, nil
}

func loadOrCreateIdentity(cfg *config.Config, clientAddr, clusterAddr rip.SocketAddr) (*cluster.Node, uint64) {
	if cfg.MetadataPath != "" {
		if meta, err := persistence.LoadMetadata(cfg.MetadataPath); err == nil {
			var node *cluster.Node
			if meta.Role == persistence.RoleReplica {
				node = cluster.NewReplica(meta.NodeID, clientAddr, clusterAddr, meta.MasterID)
			} else {
				node = cluster.NewMaster(meta.NodeID, clientAddr, clusterAddr, meta.SlotStart, meta.SlotEnd)
			}
			node.AdvanceCurrentEpoch(meta.CurrentEpoch)
			node.SetConfigEpoch(meta.ConfigEpoch)
			return node, meta.ReplicationOffset
		}
	}

	id := nodeid.New()
	if cfg.Role == "replica" && cfg.ReplicaOf != "" {
		return cluster.NewReplica(id, clientAddr, clusterAddr, nodeid.Empty), 0
	}
	return cluster.NewMaster(id, clientAddr, clusterAddr, cfg.SlotStart, cfg.SlotEnd), 0
}

// restoreStorage applies the restart precedence: load a valid RBD
// snapshot first, then replay only the AOF entries strictly beyond the
// offset the snapshot's metadata recorded as its watermark.
// It returns the replication offset the node should resume counting
// from: the AOF's own entry count when the log covers at least the
// watermark, or the watermark itself when there is no AOF to consult
// (so a restart never regresses the counter to zero).
func restoreStorage(cfg *config.Config, store *storage.Storage, watermark uint64) (uint64, error) {
	if cfg.RBDPath != "" {
		if err := persistence.Load(cfg.RBDPath, store); err != nil {
			return 0, err
		}
	}

	if cfg.AOFPath == "" {
		return watermark, nil
	}
	entries, err := persistence.LoadAOF(cfg.AOFPath)
	if err != nil {
		return 0, err
	}
	replayCtx := &dispatch.Context{Storage: store}
	for i, tokens := range entries {
		if uint64(i) < watermark || len(tokens) == 0 {
			continue
		}
		dispatch.DispatchReplicated(replayCtx, tokens[0], tokensToValues(tokens[1:]))
	}
	if uint64(len(entries)) > watermark {
		return uint64(len(entries)), nil
	}
	return watermark, nil
}

func tokensToValues(tokens []string) []resp.Value {
	out := make([]resp.Value, len(tokens))
	for i, t := range tokens {
		out[i] = resp.Bulk(t)
	}
	return out
}

// Start begins serving: the client listener, the cluster-bus accept
// loop, the mailbox drain loop, and the heartbeat ticker. It returns
// once every loop has been launched; they run until Close.
func (n *Node) Start() error {
	framer, err := crypto.NewFramer(n.cfg.AESKey)
	if err != nil {
		return err
	}

	listener, err := session.NewListener(n.cfg.Address, framer, n.ctx, n.cfg.MaxClients, n.log.WithField("component", "session"))
	if err != nil {
		return err
	}
	n.listener = listener
	go listener.Serve()

	go n.bus.AcceptLoop()
	go n.drainMailbox()

	if n.cfg.Seed != "" {
		if err := n.meet(n.cfg.Seed); err != nil {
			n.log.WithError(err).Warn("runtime: MEET to seed failed")
		}
	}
	if n.cfg.ReplicaOf != "" {
		if err := n.meetMaster(n.cfg.ReplicaOf); err != nil {
			n.log.WithError(err).Warn("runtime: MEET to configured master failed")
		}
	}

	go cluster.HeartbeatLoop(heartbeatInterval, n.stop, n.onHeartbeat)
	go n.persistenceLoop()

	if n.cfg.AdminAddress != "" {
		n.admin = adminhttp.New(n.cfg.AdminAddress, n.self, n.table, n.registry)
		go func() {
			if err := n.admin.Serve(); err != nil {
				n.log.WithError(err).Warn("runtime: admin HTTP server stopped")
			}
		}()
	}

	return nil
}

// Close stops the heartbeat and persistence loops and closes the client
// listener, the admin server and the AOF file; in-flight client sessions
// drain on their own. The cluster-bus listener and open peer
// connections are not closed.
func (n *Node) Close() error {
	close(n.stop)
	if n.listener != nil {
		n.listener.Close()
	}
	if n.admin != nil {
		n.admin.Close()
	}
	if n.aof != nil {
		n.aof.Close()
	}
	return nil
}

// meet performs the MEET handshake with a freshly dialed peer: send
// our header-bearing Meet frame; the peer inserts us into its table
// from the header alone.
func (n *Node) meet(addr string) error {
	conn, err := n.bus.Dial(addr)
	if err != nil {
		return err
	}
	return rip.EncodeFrame(conn, rip.Frame{Header: n.header(rip.TypeMeet), Payload: rip.EmptyPayload{}})
}

// meetMaster announces this configured replica to its master.
func (n *Node) meetMaster(addr string) error {
	conn, err := n.bus.Dial(addr)
	if err != nil {
		return err
	}
	return rip.EncodeFrame(conn, rip.Frame{Header: n.header(rip.TypeMeetMaster), Payload: rip.EmptyPayload{}})
}

func (n *Node) header(t rip.Type) rip.Header {
	client, clusterAddr := n.self.Addrs()
	start, end := n.self.SlotRange()
	h := rip.Header{
		Type: t, NodeID: n.self.ID,
		CurrentEpoch: n.self.CurrentEpoch(), ConfigEpoch: n.self.ConfigEpoch(),
		SlotStart: start, SlotEnd: end,
		ClientAddr: client, ClusterAddr: clusterAddr,
		ClusterState: n.self.ClusterState(),
	}
	if n.self.IsReplica() {
		h.MasterID = n.self.MasterID()
	}
	if n.self.Role() == cluster.RoleMaster {
		h.Flags |= rip.FlagMaster
	} else {
		h.Flags |= rip.FlagReplica
	}
	return h
}

// drainMailbox is the single dispatcher goroutine draining the bus's
// central channel of typed cluster frames, so table updates never race
// between per-peer handlers.
func (n *Node) drainMailbox() {
	for msg := range n.bus.Mailbox() {
		n.handleFrame(msg)
	}
}

func (n *Node) handleFrame(msg cluster.Message) {
	h := msg.Frame.Header
	n.self.AdvanceCurrentEpoch(h.CurrentEpoch)

	switch h.Type {
	case rip.TypeMeet:
		n.table.Upsert(neighborFromHeader(h))
		_ = n.bus.Send(h.NodeID, rip.Frame{Header: n.header(rip.TypeUpdate), Payload: rip.EmptyPayload{}})
		n.controller.RecomputeAndStoreState()

	case rip.TypeMeetMaster:
		n.table.Upsert(neighborFromHeader(h))
		replicaID := h.NodeID
		n.replicator.AddReplica(&cluster.ReplicaConn{ID: replicaID, Send: func(tokens []string) error {
			return n.bus.Send(replicaID, rip.Frame{Header: n.header(rip.TypeRedisCMD), Payload: rip.TokensPayload{Tokens: tokens}})
		}})
		// Introduce ourselves so the replica learns our node id and
		// mirrors our slot range, then stream the full snapshot.
		_ = n.bus.Send(replicaID, rip.Frame{Header: n.header(rip.TypeMeetNewMaster), Payload: rip.EmptyPayload{}})
		for _, cmd := range cluster.SnapshotCommands(n.store) {
			_ = n.bus.Send(replicaID, rip.Frame{Header: n.header(rip.TypeRedisCMD), Payload: rip.TokensPayload{Tokens: cmd}})
		}

	case rip.TypeMeetNewMaster:
		if n.self.IsReplica() {
			n.self.RebindMaster(h.NodeID)
			n.self.SetSlotRange(h.SlotStart, h.SlotEnd)
			n.store.SetSlotRange(h.SlotStart, h.SlotEnd)
		}
		n.table.Upsert(neighborFromHeader(h))

	case rip.TypePing:
		n.applyGossip(msg)
		_ = n.bus.Send(h.NodeID, rip.Frame{Header: n.header(rip.TypePong), Payload: n.gossipSample()})

	case rip.TypePong:
		n.applyGossip(msg)

	case rip.TypeFail:
		if p, ok := msg.Frame.Payload.(rip.NodeIDPayload); ok {
			n.table.AddFlags(p.NodeID, rip.FlagFail)
			n.metrics.FailTotal.Inc()
			n.controller.RecomputeAndStoreState()
			if info, ok := n.table.Get(p.NodeID); ok {
				n.maybeStartFailover(info)
			}
		}

	case rip.TypeRedisCMD:
		if p, ok := msg.Frame.Payload.(rip.TokensPayload); ok && len(p.Tokens) > 0 {
			dispatch.DispatchReplicated(n.ctx, p.Tokens[0], tokensToValues(p.Tokens[1:]))
		}

	case rip.TypePublish:
		if p, ok := msg.Frame.Payload.(rip.TokensPayload); ok && len(p.Tokens) >= 3 {
			if strings.EqualFold(p.Tokens[0], "SPUBLISH") {
				n.broker.DeliverShardLocalOnly(p.Tokens[1], p.Tokens[2])
			} else {
				n.broker.DeliverLocalOnly(p.Tokens[1], p.Tokens[2])
			}
		}

	case rip.TypeFailoverAuthRequest:
		n.handleVoteRequest(h, msg.Frame.Payload)

	case rip.TypeFailoverAuthAck:
		if p, ok := msg.Frame.Payload.(rip.NodeIDPayload); ok {
			if n.round.RecordAck(p.NodeID, h.CurrentEpoch) {
				n.promoteSelf(h)
			}
		}

	case rip.TypeFailoverNegotiation:
		if p, ok := msg.Frame.Payload.(rip.OffsetPayload); ok {
			n.table.RecordOffset(h.NodeID, uint64(p.ReplicationOffset))
		}

	case rip.TypeUpdate:
		n.table.Upsert(neighborFromHeader(h))
	}
}

func neighborFromHeader(h rip.Header) cluster.NeighborInfo {
	role := cluster.RoleMaster
	if h.Flags.IsReplica() {
		role = cluster.RoleReplica
	}
	return cluster.NeighborInfo{
		NodeID: h.NodeID, Role: role, Flags: h.Flags,
		ClientAddr: h.ClientAddr, ClusterAddr: h.ClusterAddr,
		SlotStart: h.SlotStart, SlotEnd: h.SlotEnd,
		MasterID:         h.MasterID,
		LastPongReceived: time.Now(),
	}
}

func (n *Node) applyGossip(msg cluster.Message) {
	p, ok := msg.Frame.Payload.(rip.GossipPayload)
	if !ok {
		return
	}
	// Rebuild the sender's entry from its header so a role or slot-range
	// change (a promoted replica announcing itself via PONG) takes
	// effect, carrying over the fields the header doesn't repeat.
	fresh := neighborFromHeader(msg.Frame.Header)
	if info, known := n.table.Get(msg.Peer); known {
		fresh.ReplOffset = info.ReplOffset
		fresh.LastPingSent = info.LastPingSent
	}
	n.table.Upsert(fresh)
	for _, entry := range p.Entries {
		cluster.ApplyGossipEntry(n.table, entry, msg.Peer)
	}
	n.controller.RecomputeAndStoreState()
}

// onHeartbeat fires on every heartbeat tick: sends PING to a gossip
// sample and scans for PFAIL/FAIL transitions.
func (n *Node) onHeartbeat(now time.Time) {
	n.metrics.GossipRoundsTotal.Inc()
	n.metrics.ReplicationOffset.WithLabelValues(n.self.ID.String()).Set(float64(n.self.ReplicationOffset()))

	payload := n.gossipSample()
	for _, info := range n.table.Sample(n.table.GossipSampleSize()) {
		if err := n.bus.SendOrDial(info.NodeID, info.ClusterAddr.String(), rip.Frame{Header: n.header(rip.TypePing), Payload: payload}); err == nil {
			n.table.MarkPingSent(info.NodeID, now)
		}
	}

	n.scanFailures(now)
}

// gossipSample builds the Ping/Pong payload: a random half-sample of
// the known-nodes table.
func (n *Node) gossipSample() rip.GossipPayload {
	sample := n.table.Sample(n.table.GossipSampleSize())
	entries := make([]rip.GossipEntry, len(sample))
	for i, info := range sample {
		entries[i] = rip.GossipEntry{NodeID: info.NodeID, Addr: info.ClusterAddr, Flags: info.Flags}
	}
	return rip.GossipPayload{Entries: entries}
}

func (n *Node) scanFailures(now time.Time) {
	masters := n.table.Masters()
	for _, info := range masters {
		if info.Flags.IsFail() {
			continue
		}
		if cluster.ShouldMarkPFail(now, info.LastPongReceived, info.LastPingSent, n.cfg.NodeTimeout) {
			n.table.AddFlags(info.NodeID, rip.FlagPFail)
			n.table.RecordAccusation(info.NodeID, n.self.ID)
			n.metrics.PFailTotal.Inc()
		}
		if cluster.ShouldEscalateToFail(n.table.AccuserCount(info.NodeID), len(masters)-1) {
			n.table.AddFlags(info.NodeID, rip.FlagFail)
			n.metrics.FailTotal.Inc()
			n.broadcastToTable(rip.Frame{Header: n.header(rip.TypeFail), Payload: rip.NodeIDPayload{NodeID: info.NodeID}})
			n.maybeStartFailover(info)
		}
	}
	n.controller.RecomputeAndStoreState()
}

// maybeStartFailover begins the election protocol when this node is a
// replica of the now-FAIL master: announce our offset to the sibling
// replicas, wait for theirs, then wait out our rank before requesting
// votes. A higher-offset sibling gets a shorter delay and usually wins
// the epoch race.
func (n *Node) maybeStartFailover(failedMaster cluster.NeighborInfo) {
	if !n.self.IsReplica() || n.self.MasterID() != failedMaster.NodeID {
		return
	}
	if n.round.Phase() != cluster.PhaseIdle && n.round.Phase() != cluster.PhaseAborted {
		return
	}
	n.round.EnterRankWait()

	neg := rip.Frame{
		Header:  n.header(rip.TypeFailoverNegotiation),
		Payload: rip.OffsetPayload{ReplicationOffset: uint32(n.self.ReplicationOffset())},
	}
	for _, sib := range n.table.ReplicasOf(failedMaster.NodeID) {
		_ = n.bus.SendOrDial(sib.NodeID, sib.ClusterAddr.String(), neg)
	}

	time.AfterFunc(n.cfg.NodeTimeout/2, func() {
		var siblings []uint64
		for _, sib := range n.table.ReplicasOf(failedMaster.NodeID) {
			siblings = append(siblings, sib.ReplOffset)
		}
		rank := cluster.Rank(n.self.ReplicationOffset(), siblings)
		delay := cluster.RankDelay(rank, n.cfg.NodeTimeout)
		time.AfterFunc(delay, func() { n.requestVotes(failedMaster) })
	})
}

func (n *Node) requestVotes(failedMaster cluster.NeighborInfo) {
	// A sibling may already have been promoted and rebound us while we
	// waited out our rank.
	if !n.self.IsReplica() || n.self.MasterID() != failedMaster.NodeID {
		return
	}
	epoch := n.self.IncrementCurrentEpoch()
	masters := n.table.Masters()
	n.round.BeginElection(epoch, len(masters), n.cfg.NodeTimeout*4, time.Now())

	h := n.header(rip.TypeFailoverAuthRequest)
	h.CurrentEpoch = epoch
	h.ConfigEpoch = epoch
	h.SlotStart, h.SlotEnd = failedMaster.SlotStart, failedMaster.SlotEnd
	req := rip.Frame{Header: h, Payload: rip.OffsetPayload{ReplicationOffset: uint32(n.self.ReplicationOffset())}}
	for _, m := range masters {
		_ = n.bus.SendOrDial(m.NodeID, m.ClusterAddr.String(), req)
	}

	time.AfterFunc(n.cfg.NodeTimeout*4, func() {
		if n.round.CheckTimeout(time.Now()) {
			n.metrics.FailoversLost.Inc()
		}
	})
}

// handleVoteRequest is a master's acceptor-side vote decision. The
// request header's MasterID names the failed master the candidate
// wants to replace; keying the vote book by it means competing sibling
// replicas at the same epoch contend for one entry, so this master
// grants at most one of them a vote.
func (n *Node) handleVoteRequest(h rip.Header, payload any) {
	if n.self.Role() != cluster.RoleMaster {
		return
	}
	p, ok := payload.(rip.OffsetPayload)
	if !ok || h.MasterID.IsZero() {
		return
	}
	var masterOffset uint64
	if info, ok := n.table.Get(h.MasterID); ok {
		masterOffset = info.ReplOffset
	}
	accepted := n.votes.TryVote(
		h.MasterID,
		h.CurrentEpoch, n.self.CurrentEpoch(),
		uint64(p.ReplicationOffset), masterOffset,
		time.Now(), n.cfg.NodeTimeout,
	)
	if !accepted {
		return
	}
	ack := n.header(rip.TypeFailoverAuthAck)
	ack.CurrentEpoch = h.CurrentEpoch
	ack.SlotStart, ack.SlotEnd = h.SlotStart, h.SlotEnd
	_ = n.bus.Send(h.NodeID, rip.Frame{Header: ack, Payload: rip.NodeIDPayload{NodeID: n.self.ID}})
}

// promoteSelf runs once quorum is reached: this replica becomes the
// new master of its former master's slot range.
func (n *Node) promoteSelf(h rip.Header) {
	formerMaster := n.self.MasterID()
	n.self.Promote(h.SlotStart, h.SlotEnd, h.CurrentEpoch)
	n.store.SetSlotRange(n.self.SlotRange())
	n.metrics.FailoversWon.Inc()
	n.controller.RecomputeAndStoreState()
	n.broadcastToTable(rip.Frame{Header: n.header(rip.TypePong), Payload: n.gossipSample()})
	for _, r := range n.table.ReplicasOf(formerMaster) {
		_ = n.bus.SendOrDial(r.NodeID, r.ClusterAddr.String(), rip.Frame{Header: n.header(rip.TypeMeetNewMaster), Payload: rip.EmptyPayload{}})
	}
}

func (n *Node) broadcastToTable(frame rip.Frame) {
	for _, peer := range n.table.All() {
		_ = n.bus.SendOrDial(peer.NodeID, peer.ClusterAddr.String(), frame)
	}
}

// broadcastPublish fans a locally originated PUBLISH/SPUBLISH out to
// every known peer as a RIP Publish frame. The verb token rides along
// so the receiver knows which subscriber tables to fan into.
func (n *Node) broadcastPublish(tokens []string) {
	if len(tokens) < 3 {
		return
	}
	frame := rip.Frame{Header: n.header(rip.TypePublish), Payload: rip.TokensPayload{Tokens: tokens}}
	n.broadcastToTable(frame)
}

// persistenceLoop drives the periodic RBD snapshot.
func (n *Node) persistenceLoop() {
	if n.cfg.RBDPath == "" || n.cfg.SaveInterval <= 0 {
		return
	}
	ticker := time.NewTicker(n.cfg.SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := n.snapshot(); err != nil {
				n.log.WithError(err).Warn("runtime: snapshot failed")
			}
		case <-n.stop:
			return
		}
	}
}

func (n *Node) snapshot() error {
	start := time.Now()
	defer func() { n.metrics.RBDSnapshotSeconds.Observe(time.Since(start).Seconds()) }()

	if n.cfg.RBDPath != "" {
		if err := persistence.Snapshot(n.cfg.RBDPath, n.store); err != nil {
			return err
		}
	}
	if n.aof != nil {
		if err := n.aof.Rewrite(cluster.SnapshotCommands(n.store)); err != nil {
			n.log.WithError(err).Warn("runtime: AOF rewrite failed")
		}
	}
	if n.cfg.MetadataPath == "" {
		return nil
	}
	role := persistence.RoleMaster
	if n.self.IsReplica() {
		role = persistence.RoleReplica
	}
	slotStart, slotEnd := n.self.SlotRange()
	return persistence.SaveMetadata(n.cfg.MetadataPath, persistence.Metadata{
		NodeID: n.self.ID, Role: role, ClusterState: byte(n.self.ClusterState()),
		CurrentEpoch: n.self.CurrentEpoch(), ConfigEpoch: n.self.ConfigEpoch(),
		ReplicationOffset: n.self.ReplicationOffset(),
		SlotStart:         slotStart, SlotEnd: slotEnd,
		HasMaster: n.self.IsReplica(), MasterID: n.self.MasterID(),
	})
}

// Metrics exposes the prometheus metric set for tests that want to
// assert on counter values directly instead of scraping /metrics.
func (n *Node) Metrics() *metrics.Metrics { return n.metrics }
