package dispatch

import "ripcache/internal/resp"

func (t *Table) registerOperational() {
	t.register(&Command{Name: "SAVE", Proc: cmdSave, Arity: 1, Category: "operational"})
}

func cmdSave(ctx *Context, _ *ClientState, _ []resp.Value) resp.Value {
	if ctx.Snapshotter == nil {
		return resp.Error("ERR", "persistence not configured")
	}
	if err := ctx.Snapshotter.SnapshotNow(); err != nil {
		return resp.Errorf("ERR", "save failed: %v", err)
	}
	return resp.SimpleString("OK")
}
