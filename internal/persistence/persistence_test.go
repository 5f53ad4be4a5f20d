package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"ripcache/internal/nodeid"
	"ripcache/internal/storage"
)

func TestAOFAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aof.log")

	w, err := NewAOFWriter(path)
	if err != nil {
		t.Fatalf("NewAOFWriter: %v", err)
	}
	if err := w.Append([]string{"SET", "k1", "v1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append([]string{"LPUSH", "l1", "a", "b"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := LoadAOF(path)
	if err != nil {
		t.Fatalf("LoadAOF: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0][0] != "SET" || entries[0][1] != "k1" || entries[0][2] != "v1" {
		t.Fatalf("unexpected first entry: %v", entries[0])
	}
	if entries[1][0] != "LPUSH" || len(entries[1]) != 4 {
		t.Fatalf("unexpected second entry: %v", entries[1])
	}
}

func TestAOFRewriteCompactsAndPreservesAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aof.log")

	w, err := NewAOFWriter(path)
	if err != nil {
		t.Fatalf("NewAOFWriter: %v", err)
	}
	if err := w.Append([]string{"SET", "k1", "v1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append([]string{"SET", "k1", "v2"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := w.Rewrite([][]string{{"SET", "k1", "v2"}}); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	if err := w.Append([]string{"SET", "k2", "v3"}); err != nil {
		t.Fatalf("Append after Rewrite: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := LoadAOF(path)
	if err != nil {
		t.Fatalf("LoadAOF: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries post-rewrite, got %d: %v", len(entries), entries)
	}
	if entries[0][1] != "k1" || entries[0][2] != "v2" {
		t.Fatalf("unexpected compacted entry: %v", entries[0])
	}
	if entries[1][1] != "k2" {
		t.Fatalf("unexpected appended entry: %v", entries[1])
	}
}

func TestLoadAOFMissingFileIsNotError(t *testing.T) {
	entries, err := LoadAOF(filepath.Join(t.TempDir(), "missing.log"))
	if err != nil {
		t.Fatalf("expected no error for missing AOF, got %v", err)
	}
	if entries != nil {
		t.Fatalf("expected nil entries, got %v", entries)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.rdb")

	src := storage.New(0, 16384)
	_ = src.Set("str", storage.NewStringObject([]byte("hello")))
	l := storage.NewListObject()
	l.RPush([]byte("a"), []byte("b"))
	_ = src.Set("list", l)
	s := storage.NewSetObject()
	s.Add([]byte("x"))
	s.Add([]byte("y"))
	_ = src.Set("set", s)

	if err := Snapshot(path, src); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	dst := storage.New(0, 16384)
	if err := Load(path, dst); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dst.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", dst.Len())
	}

	obj, err := dst.Get("str")
	if err != nil {
		t.Fatalf("Get str: %v", err)
	}
	sv, _ := storage.AsString(obj)
	if string(sv.Bytes()) != "hello" {
		t.Fatalf("got %q", sv.Bytes())
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta")

	id := nodeid.New()
	m := Metadata{
		NodeID:            id,
		Role:              RoleReplica,
		ClusterState:      1,
		CurrentEpoch:      7,
		ConfigEpoch:       3,
		ReplicationOffset: 42,
		SlotStart:         0,
		SlotEnd:           5461,
		HasMaster:         true,
		MasterID:          nodeid.New(),
	}
	if err := SaveMetadata(path, m); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}
	got, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if got.NodeID != m.NodeID || got.CurrentEpoch != 7 || got.ReplicationOffset != 42 || got.MasterID != m.MasterID {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, m)
	}
}

func TestLoadMetadataMissingFile(t *testing.T) {
	_, err := LoadMetadata(filepath.Join(t.TempDir(), "missing"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
