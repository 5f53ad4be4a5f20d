package cluster

import (
	"sync"

	"ripcache/internal/nodeid"
	"ripcache/internal/storage"
)

// ReplicaConn is the fan-out target for one connected replica; Send
// enqueues tokens as a RedisCMD RIP frame on that replica's socket.
// The session/bus layer supplies the real network Send when a replica
// connects.
type ReplicaConn struct {
	ID   nodeid.ID
	Send func(tokens []string) error
}

// Replicator tracks this master's connected replicas and fans a
// successfully applied mutating command out to all of them, in local
// apply order.
type Replicator struct {
	mu       sync.RWMutex
	replicas map[nodeid.ID]*ReplicaConn
}

func NewReplicator() *Replicator {
	return &Replicator{replicas: make(map[nodeid.ID]*ReplicaConn)}
}

func (r *Replicator) AddReplica(conn *ReplicaConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replicas[conn.ID] = conn
}

func (r *Replicator) RemoveReplica(id nodeid.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.replicas, id)
}

func (r *Replicator) ReplicaCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.replicas)
}

// Broadcast fans tokens out to every connected replica. A send failure
// on one replica is not propagated to the others; the affected
// connection is left for the reader loop's own error handling to tear
// down.
func (r *Replicator) Broadcast(tokens []string) {
	r.mu.RLock()
	conns := make([]*ReplicaConn, 0, len(r.replicas))
	for _, c := range r.replicas {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		_ = c.Send(tokens)
	}
}

// SnapshotCommands reconstructs store's entire contents as an ordered
// command stream a freshly joined replica can apply to catch up.
func SnapshotCommands(store *storage.Storage) [][]string {
	var commands [][]string
	store.ForEach(func(key string, obj storage.Object) {
		switch o := obj.(type) {
		case *storage.StringObject:
			commands = append(commands, []string{"SET", key, string(o.Bytes())})

		case *storage.ListObject:
			elems := o.Range(0, -1)
			if len(elems) == 0 {
				return
			}
			cmd := append([]string{"RPUSH", key}, bytesToStrings(elems)...)
			commands = append(commands, cmd)

		case *storage.SetObject:
			members := o.Members()
			if len(members) == 0 {
				return
			}
			cmd := append([]string{"SADD", key}, bytesToStrings(members)...)
			commands = append(commands, cmd)
		}
	})
	return commands
}

func bytesToStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}
