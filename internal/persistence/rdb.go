package persistence

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"ripcache/internal/storage"
)

// Kind tags mirror storage.Kind without importing it for the on-disk
// encoding, so the wire format doesn't shift if storage.Kind's iota
// order ever changes.
const (
	rdbString byte = 0
	rdbList   byte = 1
	rdbSet    byte = 2
)

// Snapshot serializes every key store currently holds to path via a
// temp-file-plus-atomic-rename, so a crash mid-snapshot leaves the
// previous file intact.
func Snapshot(path string, store *storage.Storage) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	if err := binary.Write(w, binary.BigEndian, uint32(store.Len())); err != nil {
		f.Close()
		return err
	}

	var writeErr error
	store.ForEach(func(key string, obj storage.Object) {
		if writeErr != nil {
			return
		}
		writeErr = encodeEntry(w, key, obj)
	})
	if writeErr != nil {
		f.Close()
		return writeErr
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encodeEntry(w io.Writer, key string, obj storage.Object) error {
	if err := writeString(w, key); err != nil {
		return err
	}
	switch o := obj.(type) {
	case *storage.StringObject:
		if err := binary.Write(w, binary.BigEndian, rdbString); err != nil {
			return err
		}
		return writeBytes(w, o.Bytes())

	case *storage.ListObject:
		if err := binary.Write(w, binary.BigEndian, rdbList); err != nil {
			return err
		}
		elems := o.Range(0, -1)
		if err := binary.Write(w, binary.BigEndian, uint32(len(elems))); err != nil {
			return err
		}
		for _, e := range elems {
			if err := writeBytes(w, e); err != nil {
				return err
			}
		}
		return nil

	case *storage.SetObject:
		if err := binary.Write(w, binary.BigEndian, rdbSet); err != nil {
			return err
		}
		members := o.Members()
		if err := binary.Write(w, binary.BigEndian, uint32(len(members))); err != nil {
			return err
		}
		for _, m := range members {
			if err := writeBytes(w, m); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func writeString(w io.Writer, s string) error { return writeBytes(w, []byte(s)) }

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// Load reads a snapshot file written by Snapshot and replays its
// contents into store via Set, after a FlushAll. A missing file is not
// an error: a fresh node simply has no snapshot to load.
func Load(path string, store *storage.Storage) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}

	store.FlushAll()
	for i := uint32(0); i < count; i++ {
		key, err := readString(r)
		if err != nil {
			return err
		}
		var kind byte
		if err := binary.Read(r, binary.BigEndian, &kind); err != nil {
			return err
		}
		obj, err := decodeObject(r, kind)
		if err != nil {
			return err
		}
		if err := store.Set(key, obj); err != nil {
			return err
		}
	}
	return nil
}

func decodeObject(r io.Reader, kind byte) (storage.Object, error) {
	switch kind {
	case rdbString:
		b, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return storage.NewStringObject(b), nil

	case rdbList:
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		l := storage.NewListObject()
		for i := uint32(0); i < n; i++ {
			b, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			l.RPush(b)
		}
		return l, nil

	case rdbSet:
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		s := storage.NewSetObject()
		for i := uint32(0); i < n; i++ {
			b, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			s.Add(b)
		}
		return s, nil
	}
	return nil, io.ErrUnexpectedEOF
}

func readString(r io.Reader) (string, error) {
	b, err := readBytes(r)
	return string(b), err
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
