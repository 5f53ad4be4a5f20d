package storage

import (
	"fmt"
	"sync"

	"ripcache/internal/crc16"
)

// MovedError reports that a key's slot is not owned by this node's
// slot range; the dispatcher intercepts it and rewrites it to include
// the owning node's address before it reaches the client.
type MovedError struct {
	Slot uint16
}

func (e *MovedError) Error() string { return fmt.Sprintf("MOVED %d", e.Slot) }

// Storage is the slot-partitioned key/value map one node serves: a
// single ordinary Go map guarded by one reader/writer lock, with every
// access gated on slot ownership. A per-slot map-of-maps is unnecessary
// here: slot(key) is cheaply recomputed from the key and nothing
// iterates by individual slot (live slot migration is not supported).
type Storage struct {
	mu         sync.RWMutex
	slotStart  uint16
	slotEnd    uint16 // exclusive
	keys       map[string]Object
}

func New(slotStart, slotEnd uint16) *Storage {
	return &Storage{
		slotStart: slotStart,
		slotEnd:   slotEnd,
		keys:      make(map[string]Object),
	}
}

// SlotRange returns the half-open [start, end) slot range this storage
// currently owns.
func (s *Storage) SlotRange() (uint16, uint16) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slotStart, s.slotEnd
}

// SetSlotRange updates the owned range, used when a replica is
// promoted and inherits its former master's slots.
func (s *Storage) SetSlotRange(start, end uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slotStart, s.slotEnd = start, end
}

// Owns reports whether slot falls in this storage's owned range.
func (s *Storage) Owns(slot uint16) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owns(slot)
}

func (s *Storage) owns(slot uint16) bool {
	return slot >= s.slotStart && slot < s.slotEnd
}

// Slot returns the hash slot key maps to.
func Slot(key string) uint16 { return crc16.Slot(key) }

func (s *Storage) checkOwnership(key string) (uint16, error) {
	slot := Slot(key)
	if !s.owns(slot) {
		return slot, &MovedError{Slot: slot}
	}
	return slot, nil
}

// View runs fn with a read lock held, after checking key's slot is
// owned. fn must not perform blocking I/O: the lock is never to be
// held across a network call.
func (s *Storage) View(key string, fn func(obj Object, exists bool) error) error {
	if _, err := s.checkOwnership(key); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, exists := s.keys[key]
	return fn(obj, exists)
}

// Mutate runs fn with a write lock held, after checking key's slot is
// owned. fn receives the existing object (nil if absent) and returns
// the object to store; returning (nil, true, nil) deletes the key.
// fn's second return reports whether the key should be deleted.
func (s *Storage) Mutate(key string, fn func(existing Object, exists bool) (next Object, delete bool, err error)) error {
	if _, err := s.checkOwnership(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.keys[key]
	next, del, err := fn(existing, exists)
	if err != nil {
		return err
	}
	if del {
		delete(s.keys, key)
		return nil
	}
	if next != nil {
		s.keys[key] = next
	}
	return nil
}

// Get is a convenience wrapper over View for read-only commands that
// just need the object itself.
func (s *Storage) Get(key string) (Object, error) {
	var obj Object
	err := s.View(key, func(o Object, exists bool) error {
		if !exists {
			return ErrNotFound
		}
		obj = o
		return nil
	})
	return obj, err
}

// Set stores obj at key unconditionally (after an ownership check).
func (s *Storage) Set(key string, obj Object) error {
	return s.Mutate(key, func(Object, bool) (Object, bool, error) {
		return obj, false, nil
	})
}

// Del removes key, reporting whether it was present.
func (s *Storage) Del(key string) (bool, error) {
	existed := false
	err := s.Mutate(key, func(_ Object, exists bool) (Object, bool, error) {
		existed = exists
		return nil, true, nil
	})
	return existed, err
}

// ForEach iterates every key this storage currently holds under a read
// lock, in map order (undefined), calling fn for each. Used by RBD
// snapshotting. fn must not mutate Storage.
func (s *Storage) ForEach(fn func(key string, obj Object)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.keys {
		fn(k, v)
	}
}

// Len returns the number of keys currently stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// FlushAll removes every key (used when loading a fresh RBD snapshot).
func (s *Storage) FlushAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]Object)
}
