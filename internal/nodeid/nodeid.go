// Package nodeid defines the cluster node identifier: an opaque
// 40-character hex string (160 random bits), stable for the lifetime of
// a node's persisted metadata. The wire format is a fixed 40 hex chars
// of raw entropy, not a UUID, so generation reads crypto/rand directly.
package nodeid

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// Length is the fixed wire and string length of a NodeID.
const Length = 40

// ID is a 40-character hex string identifying a cluster node.
type ID string

// Empty is the zero value, used where "no master" needs representing.
const Empty ID = ""

// New generates a fresh random node id from 20 bytes (160 bits) of
// crypto/rand entropy, hex-encoded to the 40-character wire form.
func New() ID {
	var raw [Length / 2]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// broken, a condition this process cannot usefully recover
		// from; a node cannot safely start without a real identity.
		panic("nodeid: crypto/rand unavailable: " + err.Error())
	}
	return ID(hex.EncodeToString(raw[:]))
}

var ErrMalformed = errors.New("nodeid: malformed node id")

// Parse validates that s is a well-formed 40-character hex node id.
func Parse(s string) (ID, error) {
	if len(s) != Length {
		return "", ErrMalformed
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", ErrMalformed
	}
	return ID(s), nil
}

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == Empty }
