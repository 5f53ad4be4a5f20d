package dispatch

import (
	"ripcache/internal/resp"
)

// authPassword is set by runtime.New at startup from the first
// configured user's password; empty
// means no password is required (AUTH still flips Authenticated).
var authPassword string

// SetAuthPassword configures the password HELLO/AUTH must match. An
// empty password accepts any AUTH call.
func SetAuthPassword(pw string) { authPassword = pw }

func (t *Table) registerHandshake() {
	t.register(&Command{
		Name: "HELLO", Proc: cmdHello, Arity: -1, PubSubAllowed: true,
		Category: "handshake",
	})
	t.register(&Command{
		Name: "AUTH", Proc: cmdAuth, Arity: -2, PubSubAllowed: true,
		Category: "handshake",
	})
}

// cmdHello implements `HELLO [protover] [AUTH user pass]`. Only
// protocol version 3 is supported; anything else is NOPROTO.
func cmdHello(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	i := 0
	if i < len(args) {
		ver, _ := args[i].AsString()
		if ver != "3" {
			return resp.Error("NOPROTO", "unsupported protocol version")
		}
		i++
	}
	for i < len(args) {
		opt, _ := args[i].AsString()
		if opt == "AUTH" && i+2 < len(args) {
			pass, _ := args[i+2].AsString()
			if authPassword != "" && pass != authPassword {
				return resp.Error("ERR", "invalid password")
			}
			session.Authenticated = true
			i += 3
			continue
		}
		i++
	}
	return resp.MapOf([]resp.Pair{
		{Key: resp.Bulk("server"), Value: resp.Bulk("ripcache")},
		{Key: resp.Bulk("proto"), Value: resp.Integer(3)},
	})
}

// cmdAuth implements `AUTH [user] password`.
func cmdAuth(ctx *Context, session *ClientState, args []resp.Value) resp.Value {
	pass, _ := args[len(args)-1].AsString()
	if authPassword != "" && pass != authPassword {
		return resp.Error("ERR", "invalid password")
	}
	session.Authenticated = true
	return resp.SimpleString("OK")
}
