package pubsub

import (
	"testing"

	"ripcache/internal/dispatch"
	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

func newTestBroker() *Broker {
	return New(storage.New(0, 16384), nil)
}

func TestSubscribePublishDelivers(t *testing.T) {
	b := newTestBroker()
	var got resp.Value
	session := &dispatch.ClientState{Deliver: func(f resp.Value) { got = f }}

	n := b.Subscribe(session, "chat")
	if n != 1 {
		t.Fatalf("expected subscriber count 1, got %d", n)
	}

	delivered := b.Publish("chat", "hi")
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	if got.Kind != resp.KindArray || len(got.Items) != 3 || got.Items[2].Str != "hi" {
		t.Fatalf("unexpected delivered frame: %+v", got)
	}
}

func TestPatternSubscribeMatches(t *testing.T) {
	b := newTestBroker()
	var gotChannel string
	session := &dispatch.ClientState{Deliver: func(f resp.Value) { gotChannel = f.Items[1].Str }}
	b.PSubscribe(session, "news.*")

	n := b.Publish("news.sports", "goal")
	if n != 1 {
		t.Fatalf("expected 1 delivery via pattern, got %d", n)
	}
	if gotChannel != "news.sports" {
		t.Fatalf("got channel %q", gotChannel)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := newTestBroker()
	session := &dispatch.ClientState{}
	b.Subscribe(session, "chat")
	b.Unsubscribe(session, "chat")
	if session.InSubscribeMode() {
		t.Fatal("expected no active subscriptions after unsubscribe")
	}
	if n := b.Publish("chat", "hi"); n != 0 {
		t.Fatalf("expected 0 deliveries after unsubscribe, got %d", n)
	}
}

func TestShardSubscribeRespectsOwnership(t *testing.T) {
	store := storage.New(0, 100)
	b := New(store, nil)
	session := &dispatch.ClientState{}

	var key string
	for i := 0; i < 1000; i++ {
		k := string(rune('a' + i%26))
		if storage.Slot(k) >= 100 {
			key = k
			break
		}
	}
	if key == "" {
		t.Skip("no out-of-range channel name found")
	}
	if _, err := b.SSubscribe(session, key); err == nil {
		t.Fatal("expected MovedError for out-of-range shard channel")
	}
}

func TestShardDeliveryDoesNotLeakToPlainSubscribers(t *testing.T) {
	b := newTestBroker()
	var plainGot, shardGot int
	plain := &dispatch.ClientState{Deliver: func(resp.Value) { plainGot++ }}
	shard := &dispatch.ClientState{Deliver: func(resp.Value) { shardGot++ }}
	b.Subscribe(plain, "room")
	if _, err := b.SSubscribe(shard, "room"); err != nil {
		t.Fatalf("SSubscribe: %v", err)
	}

	b.DeliverShardLocalOnly("room", "hi")
	if plainGot != 0 || shardGot != 1 {
		t.Fatalf("shard delivery leaked: plain=%d shard=%d", plainGot, shardGot)
	}

	b.DeliverLocalOnly("room", "hi")
	if plainGot != 1 || shardGot != 1 {
		t.Fatalf("plain delivery wrong: plain=%d shard=%d", plainGot, shardGot)
	}
}

func TestTeardownRemovesAllSubscriptions(t *testing.T) {
	b := newTestBroker()
	session := &dispatch.ClientState{}
	b.Subscribe(session, "a")
	b.PSubscribe(session, "b.*")
	b.Teardown(session)
	if n := b.Publish("a", "x"); n != 0 {
		t.Fatalf("expected 0 deliveries after teardown, got %d", n)
	}
}

func TestPubSubChannelsAndNumSub(t *testing.T) {
	b := newTestBroker()
	s1 := &dispatch.ClientState{}
	s2 := &dispatch.ClientState{}
	b.Subscribe(s1, "chat")
	b.Subscribe(s2, "chat")
	b.Subscribe(s1, "news")

	channels := b.Channels("")
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
	counts := b.NumSub([]string{"chat", "news"})
	if counts["chat"] != 2 || counts["news"] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
