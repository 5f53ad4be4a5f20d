package persistence

import (
	"encoding/binary"
	"io"
	"os"

	"ripcache/internal/nodeid"
)

// Role mirrors a node's replication role for metadata purposes.
type Role byte

const (
	RoleMaster Role = iota
	RoleReplica
)

// Metadata is the sibling record an RBD snapshot writes alongside the
// data file: id, role, epochs, replication offset, slot range, and
// master linkage: enough to resume a node's cluster identity without
// replaying gossip. encodeMetadata is the source of truth for the byte
// layout.
type Metadata struct {
	NodeID            nodeid.ID
	Role              Role
	ClusterState      byte
	CurrentEpoch      uint64
	ConfigEpoch       uint64
	ReplicationOffset uint64 // watermark: AOF entries at or before this are already in the snapshot
	SlotStart         uint16
	SlotEnd           uint16
	HasMaster         bool
	MasterID          nodeid.ID
}

// SaveMetadata writes m to path via temp-file-plus-rename, matching the
// RBD data file's own atomic-replace discipline.
func SaveMetadata(path string, m Metadata) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := encodeMetadata(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encodeMetadata(w io.Writer, m Metadata) error {
	if _, err := io.WriteString(w, m.NodeID.String()); err != nil {
		return err
	}
	fields := []any{m.Role, m.ClusterState, m.CurrentEpoch, m.ConfigEpoch, m.ReplicationOffset, m.SlotStart, m.SlotEnd}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return err
		}
	}
	hasMaster := byte(0)
	if m.HasMaster {
		hasMaster = 1
	}
	if err := binary.Write(w, binary.BigEndian, hasMaster); err != nil {
		return err
	}
	if m.HasMaster {
		if _, err := io.WriteString(w, m.MasterID.String()); err != nil {
			return err
		}
	}
	return nil
}

// LoadMetadata reads a metadata record previously written by SaveMetadata.
// A missing file returns (Metadata{}, os.ErrNotExist) for the caller to
// treat as "no prior snapshot".
func LoadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()
	return decodeMetadata(f)
}

func decodeMetadata(r io.Reader) (Metadata, error) {
	var m Metadata
	idBuf := make([]byte, nodeid.Length)
	if _, err := io.ReadFull(r, idBuf); err != nil {
		return m, err
	}
	id, err := nodeid.Parse(string(idBuf))
	if err != nil {
		return m, err
	}
	m.NodeID = id

	fields := []any{&m.Role, &m.ClusterState, &m.CurrentEpoch, &m.ConfigEpoch, &m.ReplicationOffset, &m.SlotStart, &m.SlotEnd}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return m, err
		}
	}
	var hasMaster byte
	if err := binary.Read(r, binary.BigEndian, &hasMaster); err != nil {
		return m, err
	}
	m.HasMaster = hasMaster == 1
	if m.HasMaster {
		masterBuf := make([]byte, nodeid.Length)
		if _, err := io.ReadFull(r, masterBuf); err != nil {
			return m, err
		}
		mid, err := nodeid.Parse(string(masterBuf))
		if err != nil {
			return m, err
		}
		m.MasterID = mid
	}
	return m, nil
}
