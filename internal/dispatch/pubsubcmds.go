package dispatch

import (
	"strings"

	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

// Pub/Sub commands carry no key argument (KeyIndex 0): channel/pattern
// routing is the Broker's concern, not slot ownership, except for the
// shard variants which the Broker itself checks against Storage.
func (t *Table) registerPubSub() {
	t.register(&Command{Name: "SUBSCRIBE", Proc: cmdSubscribe, Arity: -2, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "UNSUBSCRIBE", Proc: cmdUnsubscribe, Arity: -1, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "PSUBSCRIBE", Proc: cmdPSubscribe, Arity: -2, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "PUNSUBSCRIBE", Proc: cmdPUnsubscribe, Arity: -1, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "SSUBSCRIBE", Proc: cmdSSubscribe, Arity: -2, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "SUNSUBSCRIBE", Proc: cmdSUnsubscribe, Arity: -1, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "PUBLISH", Proc: cmdPublish, Arity: 3, Mutating: false, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "SPUBLISH", Proc: cmdSPublish, Arity: 3, PubSubAllowed: true, Category: "pubsub"})
	t.register(&Command{Name: "PUBSUB", Proc: cmdPubSub, Arity: -2, ReadOnly: true, PubSubAllowed: true, Category: "pubsub"})
}

func cmdSubscribe(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	var last resp.Value
	for _, a := range args {
		ch, _ := a.AsString()
		n := ctx.Broker.Subscribe(session, ch)
		last = resp.Array([]resp.Value{resp.Bulk("subscribe"), resp.Bulk(ch), resp.Integer(int64(n))})
	}
	return last
}

func cmdUnsubscribe(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	var last resp.Value
	if len(args) == 0 {
		n := ctx.Broker.Unsubscribe(session, "")
		return resp.Array([]resp.Value{resp.Bulk("unsubscribe"), resp.NullBulk(), resp.Integer(int64(n))})
	}
	for _, a := range args {
		ch, _ := a.AsString()
		n := ctx.Broker.Unsubscribe(session, ch)
		last = resp.Array([]resp.Value{resp.Bulk("unsubscribe"), resp.Bulk(ch), resp.Integer(int64(n))})
	}
	return last
}

func cmdPSubscribe(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	var last resp.Value
	for _, a := range args {
		pat, _ := a.AsString()
		n := ctx.Broker.PSubscribe(session, pat)
		last = resp.Array([]resp.Value{resp.Bulk("psubscribe"), resp.Bulk(pat), resp.Integer(int64(n))})
	}
	return last
}

func cmdPUnsubscribe(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	var last resp.Value
	if len(args) == 0 {
		n := ctx.Broker.PUnsubscribe(session, "")
		return resp.Array([]resp.Value{resp.Bulk("punsubscribe"), resp.NullBulk(), resp.Integer(int64(n))})
	}
	for _, a := range args {
		pat, _ := a.AsString()
		n := ctx.Broker.PUnsubscribe(session, pat)
		last = resp.Array([]resp.Value{resp.Bulk("punsubscribe"), resp.Bulk(pat), resp.Integer(int64(n))})
	}
	return last
}

func cmdSSubscribe(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	var last resp.Value
	for _, a := range args {
		ch, _ := a.AsString()
		n, err := ctx.Broker.SSubscribe(session, ch)
		if err != nil {
			if me, ok := err.(*storage.MovedError); ok {
				return movedResponse(ctx, me.Slot)
			}
			return resp.Error("ERR", err.Error())
		}
		last = resp.Array([]resp.Value{resp.Bulk("ssubscribe"), resp.Bulk(ch), resp.Integer(int64(n))})
	}
	return last
}

func cmdSUnsubscribe(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	var last resp.Value
	if len(args) == 0 {
		n := ctx.Broker.SUnsubscribe(session, "")
		return resp.Array([]resp.Value{resp.Bulk("sunsubscribe"), resp.NullBulk(), resp.Integer(int64(n))})
	}
	for _, a := range args {
		ch, _ := a.AsString()
		n := ctx.Broker.SUnsubscribe(session, ch)
		last = resp.Array([]resp.Value{resp.Bulk("sunsubscribe"), resp.Bulk(ch), resp.Integer(int64(n))})
	}
	return last
}

func cmdPublish(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	ch, _ := args[0].AsString()
	msg, _ := args[1].AsString()
	n := ctx.Broker.Publish(ch, msg)
	return resp.Integer(int64(n))
}

func cmdSPublish(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	ch, _ := args[0].AsString()
	msg, _ := args[1].AsString()
	n, err := ctx.Broker.SPublish(ch, msg)
	if err != nil {
		if me, ok := err.(*storage.MovedError); ok {
			return movedResponse(ctx, me.Slot)
		}
		return resp.Error("ERR", err.Error())
	}
	return resp.Integer(int64(n))
}

func cmdPubSub(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	sub, _ := args[0].AsString()
	switch strings.ToUpper(sub) {
	case "CHANNELS":
		pattern := ""
		if len(args) > 1 {
			pattern, _ = args[1].AsString()
		}
		names := ctx.Broker.Channels(pattern)
		out := make([]resp.Value, len(names))
		for i, n := range names {
			out[i] = resp.Bulk(n)
		}
		return resp.Array(out)
	case "NUMSUB":
		chans := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			s, _ := a.AsString()
			chans = append(chans, s)
		}
		counts := ctx.Broker.NumSub(chans)
		out := make([]resp.Value, 0, len(chans)*2)
		for _, c := range chans {
			out = append(out, resp.Bulk(c), resp.Integer(int64(counts[c])))
		}
		return resp.Array(out)
	case "NUMPAT":
		return resp.Integer(int64(ctx.Broker.NumPat()))
	case "SHARDCHANNELS":
		pattern := ""
		if len(args) > 1 {
			pattern, _ = args[1].AsString()
		}
		names := ctx.Broker.ShardChannels(pattern)
		out := make([]resp.Value, len(names))
		for i, n := range names {
			out[i] = resp.Bulk(n)
		}
		return resp.Array(out)
	case "SHARDNUMSUB":
		chans := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			s, _ := a.AsString()
			chans = append(chans, s)
		}
		counts := ctx.Broker.ShardNumSub(chans)
		out := make([]resp.Value, 0, len(chans)*2)
		for _, c := range chans {
			out = append(out, resp.Bulk(c), resp.Integer(int64(counts[c])))
		}
		return resp.Array(out)
	default:
		return resp.Errorf("ERR", "unknown PUBSUB subcommand '%s'", sub)
	}
}
