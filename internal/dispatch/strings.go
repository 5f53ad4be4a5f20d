package dispatch

import (
	"strconv"

	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

func (t *Table) registerStrings() {
	t.register(&Command{Name: "GET", Proc: cmdGet, Arity: 2, KeyIndex: 1, ReadOnly: true, Category: "string"})
	t.register(&Command{Name: "SET", Proc: cmdSet, Arity: -3, KeyIndex: 1, Mutating: true, Category: "string"})
	t.register(&Command{Name: "DEL", Proc: cmdDel, Arity: 2, KeyIndex: 1, Mutating: true, Category: "string"})
	t.register(&Command{Name: "GETDEL", Proc: cmdGetDel, Arity: 2, KeyIndex: 1, Mutating: true, Category: "string"})
	t.register(&Command{Name: "APPEND", Proc: cmdAppend, Arity: 3, KeyIndex: 1, Mutating: true, Category: "string"})
	t.register(&Command{Name: "STRLEN", Proc: cmdStrlen, Arity: 2, KeyIndex: 1, ReadOnly: true, Category: "string"})
	t.register(&Command{Name: "GETRANGE", Proc: cmdGetRange, Arity: 4, KeyIndex: 1, ReadOnly: true, Category: "string"})
	t.register(&Command{Name: "SUBSTR", Proc: cmdGetRange, Arity: 4, KeyIndex: 1, ReadOnly: true, Category: "string"})
	t.register(&Command{Name: "INCR", Proc: cmdIncr, Arity: 2, KeyIndex: 1, Mutating: true, Category: "string"})
	t.register(&Command{Name: "DECR", Proc: cmdDecr, Arity: 2, KeyIndex: 1, Mutating: true, Category: "string"})
}

func cmdGet(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.NullBulk()
	}
	if err != nil {
		return storageErrValue(err)
	}
	s, err := storage.AsString(obj)
	if err != nil {
		return storageErrValue(err)
	}
	return resp.BulkBytes(s.Bytes())
}

func cmdSet(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	val, _ := args[1].AsString()
	if err := ctx.Storage.Set(key, storage.NewStringObject([]byte(val))); err != nil {
		return storageErrValue(err)
	}
	return resp.SimpleString("OK")
}

func cmdDel(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	existed, err := ctx.Storage.Del(key)
	if err != nil {
		return storageErrValue(err)
	}
	if existed {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdGetDel(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.NullBulk()
	}
	if err != nil {
		return storageErrValue(err)
	}
	s, err := storage.AsString(obj)
	if err != nil {
		return storageErrValue(err)
	}
	out := s.Bytes()
	if _, err := ctx.Storage.Del(key); err != nil {
		return storageErrValue(err)
	}
	return resp.BulkBytes(out)
}

func cmdAppend(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	suffix, _ := args[1].AsString()
	var newLen int
	err := ctx.Storage.Mutate(key, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		if !exists {
			s := storage.NewStringObject([]byte(suffix))
			newLen = s.Len()
			return s, false, nil
		}
		s, err := storage.AsString(existing)
		if err != nil {
			return nil, false, err
		}
		newLen = s.Append([]byte(suffix))
		return s, false, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(newLen))
}

func cmdStrlen(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.Integer(0)
	}
	if err != nil {
		return storageErrValue(err)
	}
	s, err := storage.AsString(obj)
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(s.Len()))
}

func cmdGetRange(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	startStr, _ := args[1].AsString()
	endStr, _ := args[2].AsString()
	start, err1 := strconv.Atoi(startStr)
	end, err2 := strconv.Atoi(endStr)
	if err1 != nil || err2 != nil {
		return resp.Error("ERR", "value is not an integer or out of range")
	}
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.Bulk("")
	}
	if err != nil {
		return storageErrValue(err)
	}
	s, err := storage.AsString(obj)
	if err != nil {
		return storageErrValue(err)
	}
	return resp.BulkBytes(s.GetRange(start, end))
}

func cmdIncr(ctx *Context, _ *ClientState, args []resp.Value) resp.Value { return incrBy(ctx, args[0], 1) }
func cmdDecr(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	return incrBy(ctx, args[0], -1)
}

func incrBy(ctx *Context, keyArg resp.Value, delta int64) resp.Value {
	key, _ := keyArg.AsString()
	var result int64
	err := ctx.Storage.Mutate(key, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		var s *storage.StringObject
		if !exists {
			s = storage.NewStringObject(nil)
		} else {
			var err error
			s, err = storage.AsString(existing)
			if err != nil {
				return nil, false, err
			}
		}
		v, err := s.IncrBy(delta)
		if err != nil {
			return nil, false, err
		}
		result = v
		return s, false, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(result)
}
