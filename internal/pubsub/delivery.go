package pubsub

import (
	"ripcache/internal/dispatch"
	"ripcache/internal/resp"
)

// deliverMessage pushes a ["message"|"smessage", channel, payload] frame
// to each target's writer queue via its Deliver callback. Targets are
// copied out from under the subscription-table lock by the caller
// before this runs, so delivery never blocks a table mutation.
func deliverMessage(targets []*dispatch.ClientState, kind, channel, payload string) {
	frame := resp.Array([]resp.Value{
		resp.Bulk(kind),
		resp.Bulk(channel),
		resp.Bulk(payload),
	})
	for _, t := range targets {
		if t.Deliver != nil {
			t.Deliver(frame)
		}
	}
}
