// Package persistence implements the node's two durability mechanisms:
// an append-only command log (AOF, fsync on every write) and a periodic
// binary snapshot (RBD) with a sibling metadata record.
package persistence

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"ripcache/internal/resp"
)

// AOFWriter appends one RESP array per mutating command and fsyncs
// after every write.
type AOFWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewAOFWriter opens (creating if needed) the AOF file for appending.
func NewAOFWriter(path string) (*AOFWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &AOFWriter{file: f}, nil
}

// Append encodes tokens as a RESP array of bulk strings, writes it, and
// fsyncs before returning, so the command is durable from the client's
// perspective before the replica broadcast is enqueued.
func (w *AOFWriter) Append(tokens []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	items := make([]resp.Value, len(tokens))
	for i, t := range tokens {
		items[i] = resp.Bulk(t)
	}
	if err := resp.Encode(w.file, resp.Array(items)); err != nil {
		return err
	}
	return w.file.Sync()
}

func (w *AOFWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Rewrite replaces the AOF with a fresh log containing exactly commands,
// the compacted reconstruction of current storage state (the caller
// supplies it, typically cluster.SnapshotCommands, so this package never
// needs to import storage to walk it). The new log is built under a
// uuid-named temp file beside the live one and swapped in with a single
// rename, so a crash mid-rewrite never leaves a truncated AOF in place.
func (w *AOFWriter) Rewrite(commands [][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.file.Name()
	tmpPath := filepath.Join(filepath.Dir(path), "aof-"+uuid.NewString()+".tmp")

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	for _, tokens := range commands {
		items := make([]resp.Value, len(tokens))
		for i, t := range tokens {
			items[i] = resp.Bulk(t)
		}
		if err := resp.Encode(tmp, resp.Array(items)); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := w.file.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}

// LoadAOF replays path, returning the ordered list of token slices
// (one per logged command) for the caller to re-dispatch. A missing
// file is not an error: a fresh node simply has nothing to replay.
func LoadAOF(path string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var out [][]string
	for {
		v, err := resp.Decode(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if v.Kind != resp.KindArray {
			continue
		}
		tokens := make([]string, len(v.Items))
		for i, item := range v.Items {
			s, _ := item.AsString()
			tokens[i] = s
		}
		out = append(out, tokens)
	}
	return out, nil
}
