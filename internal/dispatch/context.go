package dispatch

import (
	"sync"

	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

// Cluster is the slice of cluster-node behavior the dispatcher needs: who
// owns a slot (for MOVED), whether this node is currently a replica (for
// the read-only guard), and how to broadcast an applied mutation to
// replicas. internal/cluster's Controller implements this; tests here
// use a stub.
type Cluster interface {
	// OwnerAddr returns the "host:port" of the master owning slot, or
	// ("", false) if unknown (the dispatcher then returns CLUSTERDOWN).
	OwnerAddr(slot uint16) (string, bool)
	// IsReplica reports whether this node is currently serving as a
	// replica (gates the read-only command guard).
	IsReplica() bool
	// ClusterDown reports whether cluster_state has gone Fail.
	ClusterDown() bool
	// BroadcastCommand enqueues a RedisCMD RIP frame to every replica of
	// this node, in local apply order.
	BroadcastCommand(tokens []string)
}

// AOFAppender is the append-only-log sink a mutating command writes to
// before it is considered durable, per the documented ordering: AOF
// append, then replica broadcast, then offset increment.
type AOFAppender interface {
	Append(tokens []string) error
}

// OffsetCounter tracks replication_offset, incremented once per applied
// mutating command.
type OffsetCounter interface {
	IncrementOffset() uint64
}

// Broker is the pub/sub surface the dispatcher drives; internal/pubsub
// implements it.
type Broker interface {
	Publish(channel, message string) int
	SPublish(channel, message string) (int, error)
	Subscribe(session *ClientState, channel string) int
	Unsubscribe(session *ClientState, channel string) int
	PSubscribe(session *ClientState, pattern string) int
	PUnsubscribe(session *ClientState, pattern string) int
	SSubscribe(session *ClientState, channel string) (int, error)
	SUnsubscribe(session *ClientState, channel string) int
	Channels(pattern string) []string
	NumSub(channels []string) map[string]int
	NumPat() int
	ShardChannels(pattern string) []string
	ShardNumSub(channels []string) map[string]int
	Teardown(session *ClientState)
}

// Snapshotter triggers an out-of-band RBD snapshot (the SAVE command).
type Snapshotter interface {
	SnapshotNow() error
}

// CommandRecorder observes one dispatched command by its category, for
// the admin-surface command-count metric (internal/metrics implements
// this without dispatch importing it directly).
type CommandRecorder interface {
	RecordCommand(category string)
}

// ClientState is the per-connection state the dispatcher consults:
// whether the handshake/AUTH gate has been passed, and how many active
// subscriptions the client holds (which gates it into pub/sub mode).
type ClientState struct {
	mu            sync.Mutex
	Authenticated bool
	subCount      int

	// Deliver is called by the Broker to push an out-of-band message
	// frame (e.g. ["message", channel, payload]) to this client's
	// writer queue. Set by the session layer when the client connects.
	Deliver func(frame resp.Value)
}

// AdjustSubCount is called by the Broker whenever this client's
// subscription count changes (subscribe: +1, unsubscribe: -1).
func (c *ClientState) AdjustSubCount(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subCount += delta
	if c.subCount < 0 {
		c.subCount = 0
	}
	return c.subCount
}

// InSubscribeMode reports whether the client currently holds at least one
// subscription, which restricts it to the pub/sub command subset.
func (c *ClientState) InSubscribeMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subCount > 0
}

// Context bundles everything a command handler needs: the owning
// storage partition, the shared pub/sub broker, the cluster view for
// MOVED/replica checks, the durability sinks, and the invoking client's
// session state. One Context is built per node and reused across
// clients; per-client state lives in ClientState.
type Context struct {
	Storage     *storage.Storage
	Broker      Broker
	Cluster     Cluster
	AOF         AOFAppender
	Offset      OffsetCounter
	Snapshotter Snapshotter
	Metrics     CommandRecorder
	RequireAuth bool
}
