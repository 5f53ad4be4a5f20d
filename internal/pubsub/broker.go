// Package pubsub implements the three-table subscription broker: plain
// channels, glob patterns, and shard channels gated by slot ownership.
// Publish copies the subscriber list out from under the lock before
// fan-out, so delivery never blocks a table mutation.
package pubsub

import (
	"ripcache/internal/dispatch"
	"ripcache/internal/storage"
	"sync"
)

type subscriberSet map[*dispatch.ClientState]struct{}

// Broker implements dispatch.Broker.
type Broker struct {
	mu         sync.RWMutex
	channels   map[string]subscriberSet
	pchannels  map[string]subscriberSet
	schannels  map[string]subscriberSet
	store      *storage.Storage
	broadcast  func(tokens []string)
}

// New builds an empty Broker. store is consulted to enforce shard-channel
// slot ownership; broadcast, if non-nil, fans a PUBLISH out as a RIP
// Publish frame to peers (internal/runtime wires its broadcastPublish).
func New(store *storage.Storage, broadcast func(tokens []string)) *Broker {
	return &Broker{
		channels:  make(map[string]subscriberSet),
		pchannels: make(map[string]subscriberSet),
		schannels: make(map[string]subscriberSet),
		store:     store,
		broadcast: broadcast,
	}
}

func (b *Broker) Subscribe(session *dispatch.ClientState, channel string) int {
	b.mu.Lock()
	set, ok := b.channels[channel]
	if !ok {
		set = make(subscriberSet)
		b.channels[channel] = set
	}
	set[session] = struct{}{}
	b.mu.Unlock()
	return session.AdjustSubCount(1)
}

func (b *Broker) Unsubscribe(session *dispatch.ClientState, channel string) int {
	b.mu.Lock()
	if channel == "" {
		for ch, set := range b.channels {
			if _, ok := set[session]; ok {
				delete(set, session)
				if len(set) == 0 {
					delete(b.channels, ch)
				}
				session.AdjustSubCount(-1)
			}
		}
	} else if set, ok := b.channels[channel]; ok {
		if _, ok := set[session]; ok {
			delete(set, session)
			if len(set) == 0 {
				delete(b.channels, channel)
			}
			session.AdjustSubCount(-1)
		}
	}
	b.mu.Unlock()
	return remainingSubs(session)
}

func (b *Broker) PSubscribe(session *dispatch.ClientState, pattern string) int {
	b.mu.Lock()
	set, ok := b.pchannels[pattern]
	if !ok {
		set = make(subscriberSet)
		b.pchannels[pattern] = set
	}
	set[session] = struct{}{}
	b.mu.Unlock()
	return session.AdjustSubCount(1)
}

func (b *Broker) PUnsubscribe(session *dispatch.ClientState, pattern string) int {
	b.mu.Lock()
	if pattern == "" {
		for p, set := range b.pchannels {
			if _, ok := set[session]; ok {
				delete(set, session)
				if len(set) == 0 {
					delete(b.pchannels, p)
				}
				session.AdjustSubCount(-1)
			}
		}
	} else if set, ok := b.pchannels[pattern]; ok {
		if _, ok := set[session]; ok {
			delete(set, session)
			if len(set) == 0 {
				delete(b.pchannels, pattern)
			}
			session.AdjustSubCount(-1)
		}
	}
	b.mu.Unlock()
	return remainingSubs(session)
}

func (b *Broker) SSubscribe(session *dispatch.ClientState, channel string) (int, error) {
	slot := storage.Slot(channel)
	if !b.store.Owns(slot) {
		return 0, &storage.MovedError{Slot: slot}
	}
	b.mu.Lock()
	set, ok := b.schannels[channel]
	if !ok {
		set = make(subscriberSet)
		b.schannels[channel] = set
	}
	set[session] = struct{}{}
	b.mu.Unlock()
	return session.AdjustSubCount(1), nil
}

func (b *Broker) SUnsubscribe(session *dispatch.ClientState, channel string) int {
	b.mu.Lock()
	if channel == "" {
		for ch, set := range b.schannels {
			if _, ok := set[session]; ok {
				delete(set, session)
				if len(set) == 0 {
					delete(b.schannels, ch)
				}
				session.AdjustSubCount(-1)
			}
		}
	} else if set, ok := b.schannels[channel]; ok {
		if _, ok := set[session]; ok {
			delete(set, session)
			if len(set) == 0 {
				delete(b.schannels, channel)
			}
			session.AdjustSubCount(-1)
		}
	}
	b.mu.Unlock()
	return remainingSubs(session)
}

// remainingSubs is a best-effort count for the unsubscribe reply; the
// authoritative count lives in ClientState's own counter.
func remainingSubs(session *dispatch.ClientState) int {
	if session.InSubscribeMode() {
		return 1
	}
	return 0
}

// Publish delivers to local channel and pattern subscribers, then
// forwards to peers via broadcast so their local subscribers see it
// too. Returns the number of local clients the message was delivered
// to.
func (b *Broker) Publish(channel, message string) int {
	b.mu.RLock()
	var targets []*dispatch.ClientState
	if set, ok := b.channels[channel]; ok {
		for s := range set {
			targets = append(targets, s)
		}
	}
	for pattern, set := range b.pchannels {
		if matchGlob(pattern, channel) {
			for s := range set {
				targets = append(targets, s)
			}
		}
	}
	b.mu.RUnlock()

	deliverMessage(targets, "message", channel, message)
	if b.broadcast != nil {
		b.broadcast([]string{"PUBLISH", channel, message})
	}
	return len(targets)
}

// DeliverLocalOnly applies an already-broadcast PUBLISH arriving from a
// peer over the RIP Publish frame: local channel/pattern fan-out only,
// never re-broadcast, or two nodes would relay the same message between
// each other forever.
func (b *Broker) DeliverLocalOnly(channel, message string) {
	b.mu.RLock()
	var targets []*dispatch.ClientState
	if set, ok := b.channels[channel]; ok {
		for s := range set {
			targets = append(targets, s)
		}
	}
	for pattern, set := range b.pchannels {
		if matchGlob(pattern, channel) {
			for s := range set {
				targets = append(targets, s)
			}
		}
	}
	b.mu.RUnlock()
	deliverMessage(targets, "message", channel, message)
}

// DeliverShardLocalOnly is the shard-channel analogue of
// DeliverLocalOnly, applied when a peer's SPUBLISH arrives: only local
// shard subscribers see it, so a shard message never leaks to a plain
// subscriber of the same channel name.
func (b *Broker) DeliverShardLocalOnly(channel, message string) {
	b.mu.RLock()
	var targets []*dispatch.ClientState
	if set, ok := b.schannels[channel]; ok {
		for s := range set {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()
	deliverMessage(targets, "smessage", channel, message)
}

// SPublish returns MOVED unless this node owns slot(channel); locally it
// behaves like Publish but against schannels only. The broadcast goes
// to every known peer, which fans it into its own shard subscribers;
// since SSubscribe only registers subscribers on a node that owns the
// slot, only the owning master and its replicas (which mirror its slot
// range) hold any.
func (b *Broker) SPublish(channel, message string) (int, error) {
	slot := storage.Slot(channel)
	if !b.store.Owns(slot) {
		return 0, &storage.MovedError{Slot: slot}
	}
	b.mu.RLock()
	var targets []*dispatch.ClientState
	if set, ok := b.schannels[channel]; ok {
		for s := range set {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	deliverMessage(targets, "smessage", channel, message)
	if b.broadcast != nil {
		b.broadcast([]string{"SPUBLISH", channel, message})
	}
	return len(targets), nil
}

func (b *Broker) Channels(pattern string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return filteredKeys(b.channels, pattern)
}

func (b *Broker) NumSub(channels []string) map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]int, len(channels))
	for _, ch := range channels {
		out[ch] = len(b.channels[ch])
	}
	return out
}

func (b *Broker) NumPat() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pchannels)
}

func (b *Broker) ShardChannels(pattern string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return filteredKeys(b.schannels, pattern)
}

func (b *Broker) ShardNumSub(channels []string) map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]int, len(channels))
	for _, ch := range channels {
		out[ch] = len(b.schannels[ch])
	}
	return out
}

// Teardown removes session from every table on disconnect.
func (b *Broker) Teardown(session *dispatch.ClientState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tbl := range []map[string]subscriberSet{b.channels, b.pchannels, b.schannels} {
		for ch, set := range tbl {
			if _, ok := set[session]; ok {
				delete(set, session)
				if len(set) == 0 {
					delete(tbl, ch)
				}
			}
		}
	}
}

func filteredKeys(tbl map[string]subscriberSet, pattern string) []string {
	var out []string
	for ch := range tbl {
		if pattern == "" || matchGlob(pattern, ch) {
			out = append(out, ch)
		}
	}
	return out
}
