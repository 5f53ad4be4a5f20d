// Package dispatch implements the command table and dispatch loop:
// arity checks, slot ownership / MOVED interception, the replica
// read-only guard, and the AOF-then-broadcast-then-offset ordering for
// mutating commands.
package dispatch

import (
	"strings"

	"ripcache/internal/resp"
)

// Proc is a command handler. args excludes the command name itself.
type Proc func(ctx *Context, session *ClientState, args []resp.Value) resp.Value

// Command describes one dispatchable command.
type Command struct {
	Name string
	Proc Proc

	// Arity mirrors Redis convention: a positive N means exactly N
	// tokens total (name + args); a negative N means at least |N|.
	Arity int

	// KeyIndex is the 1-based position of the command's key argument
	// among args (0 means the command carries no key and bypasses the
	// slot/MOVED check).
	KeyIndex int

	// ReadOnly commands are accepted on a replica. There, a Mutating
	// command that is not ReadOnly returns INVALID; commands that are
	// neither (handshake, pub/sub, SAVE) are accepted too.
	ReadOnly bool

	// Mutating commands get AOF-appended and broadcast to replicas on
	// success.
	Mutating bool

	// PubSubAllowed commands remain reachable from a client that is
	// currently in pub/sub mode.
	PubSubAllowed bool

	Category string
}

// Table is the case-insensitive command registry.
type Table struct {
	commands map[string]*Command
}

// NewTable builds the full command table.
func NewTable() *Table {
	t := &Table{commands: make(map[string]*Command)}
	t.registerHandshake()
	t.registerStrings()
	t.registerLists()
	t.registerSets()
	t.registerPubSub()
	t.registerOperational()
	return t
}

func (t *Table) register(cmd *Command) {
	t.commands[strings.ToUpper(cmd.Name)] = cmd
}

// Lookup finds a command case-insensitively.
func (t *Table) Lookup(name string) (*Command, bool) {
	cmd, ok := t.commands[strings.ToUpper(name)]
	return cmd, ok
}

func checkArity(cmd *Command, argc int) bool {
	total := argc + 1 // include the command name itself
	if cmd.Arity >= 0 {
		return total == cmd.Arity
	}
	return total >= -cmd.Arity
}

func errWrongArity(name string) resp.Value {
	return resp.Errorf("ERR", "wrong number of arguments for '%s' command", strings.ToLower(name))
}

// Dispatch handles one client-originated command: arity, handshake
// gate, pub/sub-mode gate, replica read-only guard, CLUSTERDOWN check
// (mutating commands only), slot ownership / MOVED, handler invocation,
// and (for mutating commands) AOF append + replica broadcast + offset
// increment, in that order.
func Dispatch(ctx *Context, session *ClientState, name string, args []resp.Value) resp.Value {
	cmd, ok := table(ctx).Lookup(name)
	if !ok {
		return resp.Errorf("ERR", "unknown command '%s'", name)
	}
	if !checkArity(cmd, len(args)) {
		return errWrongArity(cmd.Name)
	}

	upper := strings.ToUpper(cmd.Name)
	if ctx.RequireAuth && !session.Authenticated && upper != "HELLO" && upper != "AUTH" {
		return resp.Error("NOAUTH", "Authentication required")
	}

	if session.InSubscribeMode() && !cmd.PubSubAllowed {
		return resp.Errorf("ERR", "%s is not allowed in subscribe context", upper)
	}

	if ctx.Cluster != nil && ctx.Cluster.IsReplica() && cmd.Mutating && !cmd.ReadOnly {
		return resp.Error("INVALID", "invalid command for redis replica")
	}

	if ctx.Cluster != nil && ctx.Cluster.ClusterDown() && cmd.Mutating {
		return resp.Error("CLUSTERDOWN", "the cluster is down")
	}

	if cmd.KeyIndex > 0 && cmd.KeyIndex <= len(args) {
		key, _ := args[cmd.KeyIndex-1].AsString()
		slot := storageSlot(key)
		if ctx.Storage != nil && !ctx.Storage.Owns(slot) {
			return movedResponse(ctx, slot)
		}
	}

	result := cmd.Proc(ctx, session, args)
	if cmd.Mutating && !result.IsError() {
		applySideEffects(ctx, name, args)
	}
	if ctx.Metrics != nil {
		ctx.Metrics.RecordCommand(cmd.Category)
	}
	return result
}

// DispatchReplicated re-runs a command received over the replication
// stream, bypassing the replica read-only guard and the handshake/
// pub/sub gates; intra-cluster origin is already trusted.
func DispatchReplicated(ctx *Context, name string, args []resp.Value) resp.Value {
	cmd, ok := table(ctx).Lookup(name)
	if !ok {
		return resp.Errorf("ERR", "unknown command '%s'", name)
	}
	session := &ClientState{Authenticated: true}
	result := cmd.Proc(ctx, session, args)
	if ctx.Offset != nil {
		ctx.Offset.IncrementOffset()
	}
	return result
}

func applySideEffects(ctx *Context, name string, args []resp.Value) {
	tokens := make([]string, 0, len(args)+1)
	tokens = append(tokens, strings.ToUpper(name))
	for _, a := range args {
		s, _ := a.AsString()
		tokens = append(tokens, s)
	}
	if ctx.AOF != nil {
		_ = ctx.AOF.Append(tokens)
	}
	if ctx.Cluster != nil {
		ctx.Cluster.BroadcastCommand(tokens)
	}
	if ctx.Offset != nil {
		ctx.Offset.IncrementOffset()
	}
}

func movedResponse(ctx *Context, slot uint16) resp.Value {
	if ctx.Cluster == nil {
		return resp.Moved(slot, "")
	}
	addr, ok := ctx.Cluster.OwnerAddr(slot)
	if !ok {
		return resp.Error("CLUSTERDOWN", "the cluster is down")
	}
	return resp.Moved(slot, addr)
}

// table is shared across a node's lifetime; since it is stateless it is
// built once at package initialization and used for every Context.
var sharedTable = NewTable()

func table(ctx *Context) *Table { return sharedTable }
