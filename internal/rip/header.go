// Package rip implements RIP (Redis Internal Protocol), the tagged
// binary framing every node-to-node frame uses: a fixed big-endian
// header followed by a payload dispatched on a 1-byte type tag.
package rip

import (
	"encoding/binary"
	"errors"
	"io"

	"ripcache/internal/nodeid"
)

// Type is the 1-byte tag selecting a RIP frame's payload shape.
type Type byte

const (
	TypePing                Type = 0
	TypePong                Type = 1
	TypeUpdate              Type = 2
	TypeFail                Type = 3
	TypeFailoverAuthRequest Type = 4
	TypeFailoverAuthAck     Type = 5
	TypeRedisCMD            Type = 6
	TypePublish             Type = 7
	TypeFailoverNegotiation Type = 8
	TypeMeet                Type = 9
	TypeMeetMaster          Type = 10
	TypeMeetNewMaster       Type = 11
)

// Flags packs the four boolean node flags into one byte. FlagFail is
// cluster-wide consensus; FlagPFail is local suspicion only.
type Flags byte

const (
	FlagMaster Flags = 1 << iota
	FlagReplica
	FlagFail
	FlagPFail
)

func (f Flags) IsMaster() bool  { return f&FlagMaster != 0 }
func (f Flags) IsReplica() bool { return f&FlagReplica != 0 }
func (f Flags) IsFail() bool    { return f&FlagFail != 0 }
func (f Flags) IsPFail() bool   { return f&FlagPFail != 0 }

// ClusterState is the sender's view of overall cluster health.
type ClusterState byte

const (
	ClusterOK   ClusterState = 0
	ClusterFail ClusterState = 1
)

// Header is the fixed preamble of every RIP frame: type(1) | node_id(40)
// | current_epoch(8) | config_epoch(8) | flags(1) | slot_start(2) |
// slot_end(2) | client_addr | cluster_addr | cluster_state(1) |
// has_master(1) [ | master_id(40) ], all big-endian.
type Header struct {
	Type         Type
	NodeID       nodeid.ID
	CurrentEpoch uint64
	ConfigEpoch  uint64
	Flags        Flags
	SlotStart    uint16
	SlotEnd      uint16
	ClientAddr   SocketAddr
	ClusterAddr  SocketAddr
	ClusterState ClusterState
	MasterID     nodeid.ID // zero value when HasMaster is false
}

var ErrMalformedHeader = errors.New("rip: malformed header")

// HasMaster reports whether this header carries a non-empty MasterID
// (a replica announcing the master it follows).
func (h Header) HasMaster() bool { return !h.MasterID.IsZero() }

func EncodeHeader(w io.Writer, h Header) error {
	if _, err := w.Write([]byte{byte(h.Type)}); err != nil {
		return err
	}
	if err := writeNodeID(w, h.NodeID); err != nil {
		return err
	}
	if err := writeUint64(w, h.CurrentEpoch); err != nil {
		return err
	}
	if err := writeUint64(w, h.ConfigEpoch); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(h.Flags)}); err != nil {
		return err
	}
	if err := writeUint16(w, h.SlotStart); err != nil {
		return err
	}
	if err := writeUint16(w, h.SlotEnd); err != nil {
		return err
	}
	if err := h.ClientAddr.encode(w); err != nil {
		return err
	}
	if err := h.ClusterAddr.encode(w); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(h.ClusterState)}); err != nil {
		return err
	}
	hasMaster := h.HasMaster()
	hasMasterByte := byte(0)
	if hasMaster {
		hasMasterByte = 1
	}
	if _, err := w.Write([]byte{hasMasterByte}); err != nil {
		return err
	}
	if hasMaster {
		if err := writeNodeID(w, h.MasterID); err != nil {
			return err
		}
	}
	return nil
}

func DecodeHeader(r io.Reader) (Header, error) {
	var typeByte [1]byte
	if _, err := io.ReadFull(r, typeByte[:]); err != nil {
		return Header{}, err
	}
	var h Header
	h.Type = Type(typeByte[0])

	id, err := readNodeID(r)
	if err != nil {
		return Header{}, err
	}
	h.NodeID = id

	if h.CurrentEpoch, err = readUint64(r); err != nil {
		return Header{}, err
	}
	if h.ConfigEpoch, err = readUint64(r); err != nil {
		return Header{}, err
	}

	var flagsByte [1]byte
	if _, err := io.ReadFull(r, flagsByte[:]); err != nil {
		return Header{}, err
	}
	h.Flags = Flags(flagsByte[0])

	if h.SlotStart, err = readUint16(r); err != nil {
		return Header{}, err
	}
	if h.SlotEnd, err = readUint16(r); err != nil {
		return Header{}, err
	}

	if h.ClientAddr, err = decodeSocketAddr(r); err != nil {
		return Header{}, err
	}
	if h.ClusterAddr, err = decodeSocketAddr(r); err != nil {
		return Header{}, err
	}

	var stateByte [1]byte
	if _, err := io.ReadFull(r, stateByte[:]); err != nil {
		return Header{}, err
	}
	h.ClusterState = ClusterState(stateByte[0])

	var hasMasterByte [1]byte
	if _, err := io.ReadFull(r, hasMasterByte[:]); err != nil {
		return Header{}, err
	}
	if hasMasterByte[0] == 1 {
		masterID, err := readNodeID(r)
		if err != nil {
			return Header{}, err
		}
		h.MasterID = masterID
	}

	return h, nil
}

func writeNodeID(w io.Writer, id nodeid.ID) error {
	var buf [nodeid.Length]byte
	copy(buf[:], id.String())
	_, err := w.Write(buf[:])
	return err
}

func readNodeID(r io.Reader) (nodeid.ID, error) {
	var buf [nodeid.Length]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", err
	}
	return nodeid.ID(buf[:]), nil
}

func writeUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
