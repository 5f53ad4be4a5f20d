// Package storage implements the slot-partitioned key/value store each
// node serves: an ordinary in-memory map guarded by a reader/writer
// lock, with MOVED semantics for keys outside the node's owned slot
// range. Keys hold typed Objects (string, list, set); operations on a
// key of the wrong kind fail with ErrWrongType.
package storage

import "errors"

// Kind tags the dynamic type of a stored Object, mirroring Redis's own
// notion of key type. The WRONGTYPE check (AsString, AsList, AsSet) and
// RBD encoding use type assertions instead of Kind.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Object is any value a key can hold.
type Object interface {
	Kind() Kind
}

var (
	ErrNotFound    = errors.New("no such key")
	ErrNotInteger  = errors.New("value is not an integer or out of range")
	ErrWrongType   = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrIndexRange  = errors.New("index out of range")
	ErrNoSuchPivot = errors.New("pivot not found")
)

// AsString type-asserts obj to *StringObject, returning ErrWrongType on
// any other kind.
func AsString(obj Object) (*StringObject, error) {
	s, ok := obj.(*StringObject)
	if !ok {
		return nil, ErrWrongType
	}
	return s, nil
}

func AsList(obj Object) (*ListObject, error) {
	l, ok := obj.(*ListObject)
	if !ok {
		return nil, ErrWrongType
	}
	return l, nil
}

func AsSet(obj Object) (*SetObject, error) {
	s, ok := obj.(*SetObject)
	if !ok {
		return nil, ErrWrongType
	}
	return s, nil
}
