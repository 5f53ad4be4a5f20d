package dispatch

import (
	"testing"

	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

type stubCluster struct {
	replica     bool
	down        bool
	owner       string
	ownerKnown  bool
	broadcasted [][]string
}

func (s *stubCluster) OwnerAddr(slot uint16) (string, bool) { return s.owner, s.ownerKnown }
func (s *stubCluster) IsReplica() bool                      { return s.replica }
func (s *stubCluster) ClusterDown() bool                    { return s.down }
func (s *stubCluster) BroadcastCommand(tokens []string)     { s.broadcasted = append(s.broadcasted, tokens) }

type stubAOF struct{ entries [][]string }

func (a *stubAOF) Append(tokens []string) error {
	a.entries = append(a.entries, tokens)
	return nil
}

type stubOffset struct{ n uint64 }

func (o *stubOffset) IncrementOffset() uint64 {
	o.n++
	return o.n
}

func newTestContext() (*Context, *stubAOF, *stubCluster) {
	aof := &stubAOF{}
	cl := &stubCluster{}
	ctx := &Context{
		Storage:     storage.New(0, 16384),
		Cluster:     cl,
		AOF:         aof,
		Offset:      &stubOffset{},
		RequireAuth: true,
	}
	return ctx, aof, cl
}

func argsOf(strs ...string) []resp.Value {
	out := make([]resp.Value, len(strs))
	for i, s := range strs {
		out[i] = resp.Bulk(s)
	}
	return out
}

func TestAuthGateBlocksBeforeHandshake(t *testing.T) {
	ctx, _, _ := newTestContext()
	session := &ClientState{}
	result := Dispatch(ctx, session, "SET", argsOf("k1", "v"))
	if result.Kind != resp.KindSimpleError || result.ErrKind != "NOAUTH" {
		t.Fatalf("expected NOAUTH, got %+v", result)
	}
}

func TestSetGetAfterAuth(t *testing.T) {
	ctx, aof, cl := newTestContext()
	session := &ClientState{Authenticated: true}

	result := Dispatch(ctx, session, "SET", argsOf("k1", "hello"))
	if result.Kind != resp.KindSimpleString || result.Str != "OK" {
		t.Fatalf("SET failed: %+v", result)
	}
	if len(aof.entries) != 1 {
		t.Fatalf("expected 1 AOF entry, got %d", len(aof.entries))
	}
	if len(cl.broadcasted) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(cl.broadcasted))
	}

	result = Dispatch(ctx, session, "GET", argsOf("k1"))
	if result.Kind != resp.KindBulkString || result.Str != "hello" {
		t.Fatalf("GET failed: %+v", result)
	}
}

func TestWrongArity(t *testing.T) {
	ctx, _, _ := newTestContext()
	session := &ClientState{Authenticated: true}
	result := Dispatch(ctx, session, "SET", argsOf("k1"))
	if result.Kind != resp.KindSimpleError || result.ErrKind != "ERR" {
		t.Fatalf("expected ERR wrong arity, got %+v", result)
	}
}

func TestReplicaRejectsWrites(t *testing.T) {
	ctx, _, cl := newTestContext()
	cl.replica = true
	session := &ClientState{Authenticated: true}
	result := Dispatch(ctx, session, "SET", argsOf("k1", "v"))
	if result.Kind != resp.KindSimpleError || result.ErrKind != "INVALID" {
		t.Fatalf("expected INVALID on replica, got %+v", result)
	}
}

func TestReplicaAllowsReads(t *testing.T) {
	ctx, _, cl := newTestContext()
	_ = ctx.Storage.Set("k1", storage.NewStringObject([]byte("v")))
	cl.replica = true
	session := &ClientState{Authenticated: true}
	result := Dispatch(ctx, session, "GET", argsOf("k1"))
	if result.Kind != resp.KindBulkString {
		t.Fatalf("expected bulk string on replica read, got %+v", result)
	}
}

func TestMovedRedirection(t *testing.T) {
	ctx := &Context{
		Storage:     storage.New(0, 100),
		Cluster:     &stubCluster{owner: "10.0.0.2:7000", ownerKnown: true},
		RequireAuth: false,
	}
	session := &ClientState{}
	// Find a key whose slot lands outside [0,100).
	var key string
	for i := 0; i < 1000; i++ {
		k := string(rune('a' + i%26))
		if storage.Slot(k) >= 100 {
			key = k
			break
		}
	}
	if key == "" {
		t.Skip("no out-of-range key found")
	}
	result := Dispatch(ctx, session, "GET", argsOf(key))
	if result.Kind != resp.KindMoved {
		t.Fatalf("expected MOVED, got %+v", result)
	}
	if result.MovedAddr != "10.0.0.2:7000" {
		t.Fatalf("expected owner addr, got %q", result.MovedAddr)
	}
}

func TestWrongTypeError(t *testing.T) {
	ctx, _, _ := newTestContext()
	_ = ctx.Storage.Set("list-key", storage.NewListObject())
	session := &ClientState{Authenticated: true}
	result := Dispatch(ctx, session, "GET", argsOf("list-key"))
	if result.Kind != resp.KindSimpleError || result.ErrKind != "WRONGTYPE" {
		t.Fatalf("expected WRONGTYPE, got %+v", result)
	}
}

func TestUnknownCommand(t *testing.T) {
	ctx, _, _ := newTestContext()
	session := &ClientState{Authenticated: true}
	result := Dispatch(ctx, session, "BOGUS", nil)
	if result.Kind != resp.KindSimpleError || result.ErrKind != "ERR" {
		t.Fatalf("expected ERR unknown command, got %+v", result)
	}
}
