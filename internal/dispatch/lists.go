package dispatch

import (
	"strconv"
	"strings"

	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

func (t *Table) registerLists() {
	t.register(&Command{Name: "LPUSH", Proc: cmdLPush, Arity: -3, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "RPUSH", Proc: cmdRPush, Arity: -3, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "LPOP", Proc: cmdLPop, Arity: -2, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "RPOP", Proc: cmdRPop, Arity: -2, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "LLEN", Proc: cmdLLen, Arity: 2, KeyIndex: 1, ReadOnly: true, Category: "list"})
	t.register(&Command{Name: "LRANGE", Proc: cmdLRange, Arity: 4, KeyIndex: 1, ReadOnly: true, Category: "list"})
	t.register(&Command{Name: "LSET", Proc: cmdLSet, Arity: 4, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "LREM", Proc: cmdLRem, Arity: 4, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "LTRIM", Proc: cmdLTrim, Arity: 4, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "LINDEX", Proc: cmdLIndex, Arity: 3, KeyIndex: 1, ReadOnly: true, Category: "list"})
	t.register(&Command{Name: "LMOVE", Proc: cmdLMove, Arity: 5, KeyIndex: 1, Mutating: true, Category: "list"})
	t.register(&Command{Name: "LINSERT", Proc: cmdLInsert, Arity: 5, KeyIndex: 1, Mutating: true, Category: "list"})
}

func getOrCreateList(ctx *Context, key string, fn func(l *storage.ListObject) (any, error)) (any, error) {
	var ret any
	err := ctx.Storage.Mutate(key, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		var l *storage.ListObject
		if !exists {
			l = storage.NewListObject()
		} else {
			var err error
			l, err = storage.AsList(existing)
			if err != nil {
				return nil, false, err
			}
		}
		v, err := fn(l)
		if err != nil {
			return nil, false, err
		}
		ret = v
		if l.Len() == 0 {
			return nil, true, nil
		}
		return l, false, nil
	})
	return ret, err
}

func valuesOf(args []resp.Value) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		s, _ := a.AsString()
		out[i] = []byte(s)
	}
	return out
}

func cmdLPush(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	v, err := getOrCreateList(ctx, key, func(l *storage.ListObject) (any, error) {
		return l.LPush(valuesOf(args[1:])...), nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(v.(int)))
}

func cmdRPush(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	v, err := getOrCreateList(ctx, key, func(l *storage.ListObject) (any, error) {
		return l.RPush(valuesOf(args[1:])...), nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(v.(int)))
}

func popCount(args []resp.Value, idx int) int {
	if idx >= len(args) {
		return 1
	}
	s, _ := args[idx].AsString()
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return n
}

func cmdLPop(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	count := popCount(args, 1)
	v, err := getOrCreateList(ctx, key, func(l *storage.ListObject) (any, error) {
		return l.LPop(count), nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return poppedToValue(v.([][]byte), len(args) > 1)
}

func cmdRPop(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	count := popCount(args, 1)
	v, err := getOrCreateList(ctx, key, func(l *storage.ListObject) (any, error) {
		return l.RPop(count), nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return poppedToValue(v.([][]byte), len(args) > 1)
}

func poppedToValue(popped [][]byte, asArray bool) resp.Value {
	if asArray {
		if popped == nil {
			return resp.NullArray()
		}
		items := make([]resp.Value, len(popped))
		for i, p := range popped {
			items[i] = resp.BulkBytes(p)
		}
		return resp.Array(items)
	}
	if len(popped) == 0 {
		return resp.NullBulk()
	}
	return resp.BulkBytes(popped[0])
}

func cmdLLen(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.Integer(0)
	}
	if err != nil {
		return storageErrValue(err)
	}
	l, err := storage.AsList(obj)
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(l.Len()))
}

func atoiOrZero(v resp.Value) int {
	s, _ := v.AsString()
	n, _ := strconv.Atoi(s)
	return n
}

func cmdLRange(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	start, end := atoiOrZero(args[1]), atoiOrZero(args[2])
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.Array(nil)
	}
	if err != nil {
		return storageErrValue(err)
	}
	l, err := storage.AsList(obj)
	if err != nil {
		return storageErrValue(err)
	}
	items := l.Range(start, end)
	out := make([]resp.Value, len(items))
	for i, it := range items {
		out[i] = resp.BulkBytes(it)
	}
	return resp.Array(out)
}

func cmdLSet(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	idx := atoiOrZero(args[1])
	val, _ := args[2].AsString()
	err := ctx.Storage.Mutate(key, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		if !exists {
			return nil, false, storage.ErrNotFound
		}
		l, err := storage.AsList(existing)
		if err != nil {
			return nil, false, err
		}
		if err := l.Set(idx, []byte(val)); err != nil {
			return nil, false, err
		}
		return l, false, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.SimpleString("OK")
}

func cmdLRem(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	count := atoiOrZero(args[1])
	val, _ := args[2].AsString()
	v, err := getOrCreateList(ctx, key, func(l *storage.ListObject) (any, error) {
		return l.Rem(count, []byte(val)), nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(v.(int)))
}

func cmdLTrim(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	start, end := atoiOrZero(args[1]), atoiOrZero(args[2])
	_, err := getOrCreateList(ctx, key, func(l *storage.ListObject) (any, error) {
		l.Trim(start, end)
		return nil, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.SimpleString("OK")
}

func cmdLIndex(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	idx := atoiOrZero(args[1])
	obj, err := ctx.Storage.Get(key)
	if err == storage.ErrNotFound {
		return resp.NullBulk()
	}
	if err != nil {
		return storageErrValue(err)
	}
	l, err := storage.AsList(obj)
	if err != nil {
		return storageErrValue(err)
	}
	v, ok := l.Index(idx)
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkBytes(v)
}

func cmdLInsert(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	key, _ := args[0].AsString()
	where, _ := args[1].AsString()
	pivot, _ := args[2].AsString()
	val, _ := args[3].AsString()
	before := strings.EqualFold(where, "BEFORE")
	if !before && !strings.EqualFold(where, "AFTER") {
		return resp.Error("ERR", "syntax error")
	}
	var newLen int
	err := ctx.Storage.Mutate(key, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		if !exists {
			newLen = -1
			return nil, false, nil
		}
		l, err := storage.AsList(existing)
		if err != nil {
			return nil, false, err
		}
		n, err := l.Insert(before, []byte(pivot), []byte(val))
		if err == storage.ErrNoSuchPivot {
			newLen = -1
			return l, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		newLen = n
		return l, false, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.Integer(int64(newLen))
}

// cmdLMove implements LMOVE source destination LEFT|RIGHT LEFT|RIGHT,
// popping from source and pushing onto destination as one dispatcher
// call; both keys must be owned by this node (no cross-slot migration).
func cmdLMove(ctx *Context, _ *ClientState, args []resp.Value) resp.Value {
	src, _ := args[0].AsString()
	dst, _ := args[1].AsString()
	fromWhere, _ := args[2].AsString()
	toWhere, _ := args[3].AsString()

	if storage.Slot(dst) != storage.Slot(src) && !ctx.Storage.Owns(storage.Slot(dst)) {
		return movedResponse(ctx, storage.Slot(dst))
	}

	var moved []byte
	err := ctx.Storage.Mutate(src, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		if !exists {
			return nil, false, storage.ErrNotFound
		}
		l, err := storage.AsList(existing)
		if err != nil {
			return nil, false, err
		}
		var popped [][]byte
		if strings.EqualFold(fromWhere, "LEFT") {
			popped = l.LPop(1)
		} else {
			popped = l.RPop(1)
		}
		if len(popped) == 0 {
			return l, false, storage.ErrNotFound
		}
		moved = popped[0]
		if l.Len() == 0 {
			return nil, true, nil
		}
		return l, false, nil
	})
	if err == storage.ErrNotFound {
		return resp.NullBulk()
	}
	if err != nil {
		return storageErrValue(err)
	}

	err = ctx.Storage.Mutate(dst, func(existing storage.Object, exists bool) (storage.Object, bool, error) {
		var l *storage.ListObject
		if !exists {
			l = storage.NewListObject()
		} else {
			var err error
			l, err = storage.AsList(existing)
			if err != nil {
				return nil, false, err
			}
		}
		if strings.EqualFold(toWhere, "LEFT") {
			l.LPush(moved)
		} else {
			l.RPush(moved)
		}
		return l, false, nil
	})
	if err != nil {
		return storageErrValue(err)
	}
	return resp.BulkBytes(moved)
}
