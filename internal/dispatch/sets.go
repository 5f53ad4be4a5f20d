package dispatch

import (
	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

func (t *Table) registerSets() {
	t.register(&Command{Name: "SADD", Proc: cmdSAdd, Arity: -3, KeyIndex: 1, Mutating: true, Category: "set"})
	t.register(&Command{Name: "SCARD", Proc: cmdSCard, Arity: 2, KeyIndex: 1, ReadOnly: true, Category: "set"})
	t.register(&Command{Name: "SISMEMBER", Proc: cmdSIsMember, Arity: 3, KeyIndex: 1, ReadOnly: true, Category: "set"})
	t.register(&Command{Name: "SREM", Proc: cmdSRem, Arity: -3, KeyIndex: 1, Mutating: true, Category: "set"})
	t.register(&Command{Name: "SMEMBERS", Proc: cmdSMembers, Arity: 2, KeyIndex: 1, ReadOnly: true, Category: "set"})
}

func cmdSAdd(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	added := 0
	err := ctx.Storage.Mutate(key, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		var s *storage.SetObject
		if !exists {
			s = storage.NewSetObject()
		} else {
			var err error
			s, err = storage.AsSet(existing)
			if err != nil {
				return nil, false, err
			}
		}
		for _, m := range valuesOf(args[1:]) {
			if s.Add(m) {
				added++
			}
		}
		return s, false, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(added))
}

func cmdSCard(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.Integer(0)
	}
	if err != nil {
		return storageErrValue(err)
	}
	s, err := storage.AsSet(obj)
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(s.Card()))
}

func cmdSIsMember(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	member, _ := args[1].AsString()
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.Integer(0)
	}
	if err != nil {
		return storageErrValue(err)
	}
	s, err := storage.AsSet(obj)
	if err != nil {
		return storageErrValue(err)
	}
	if s.IsMember([]byte(member)) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdSRem(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	removed := 0
	err := ctx.Storage.Mutate(key, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		if !exists {
			return nil, false, nil
		}
		s, err := storage.AsSet(existing)
		if err != nil {
			return nil, false, err
		}
		for _, m := range valuesOf(args[1:]) {
			if s.Remove(m) {
				removed++
			}
		}
		if s.Card() == 0 {
			return nil, true, nil
		}
		return s, false, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(removed))
}

func cmdSMembers(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.SetOf(nil)
	}
	if err != nil {
		return storageErrValue(err)
	}
	s, err := storage.AsSet(obj)
	if err != nil {
		return storageErrValue(err)
	}
	members := s.Members()
	out := make([]resp.Value, len(members))
	for i, m := range members {
		out[i] = resp.BulkBytes(m)
	}
	return resp.SetOf(out)
}
