package dispatch

import (
	"ripcache/internal/resp"
	"ripcache/internal/storage"
)

func storageSlot(key string) uint16 { return storage.Slot(key) }

// storageErrValue translates a storage-layer error into its wire error
// shape. Callers only reach this for non-nil, non-MOVED errors (MOVED
// is intercepted earlier in Dispatch).
func storageErrValue(err error) resp.Value {
	switch err {
	case storage.ErrNotFound:
		return resp.Error("ERR", "no such key")
	case storage.ErrWrongType:
		return resp.Error("WRONGTYPE", "Operation against a key holding the wrong kind of value")
	case storage.ErrNotInteger:
		return resp.Error("ERR", "value is not an integer or out of range")
	case storage.ErrIndexRange:
		return resp.Error("ERR", "index out of range")
	case storage.ErrNoSuchPivot:
		return resp.Error("ERR", "pivot not found")
	default:
		return resp.Error("ERR", err.Error())
	}
}
