package rip

import (
	"bufio"
	"errors"
	"io"

	"ripcache/internal/nodeid"
)

// GossipEntry is one piggybacked known-node summary carried by a Ping or
// Pong frame's gossip sample.
type GossipEntry struct {
	NodeID nodeid.ID
	Addr   SocketAddr
	Flags  Flags
}

// GossipPayload is the Ping/Pong payload: a random sub-sample of the
// sender's known-nodes table.
type GossipPayload struct {
	Entries []GossipEntry
}

// NodeIDPayload is the Fail / FailoverAuthAck payload: a single node id.
type NodeIDPayload struct {
	NodeID nodeid.ID
}

// TokensPayload is the RedisCMD / Publish payload: a length-prefixed
// sequence of UTF-8 tokens (the command's argv, or [channel, message]).
type TokensPayload struct {
	Tokens []string
}

// OffsetPayload is the FailoverAuthRequest / FailoverNegotiation
// payload: the sender's replication offset.
type OffsetPayload struct {
	ReplicationOffset uint32
}

// EmptyPayload is carried by Meet / MeetMaster / MeetNewMaster / Update,
// none of which need a body beyond the header.
type EmptyPayload struct{}

// Frame is a decoded RIP message: header plus its type-specific payload.
// Payload's dynamic type is determined by Header.Type; see decodePayload.
type Frame struct {
	Header  Header
	Payload any
}

var ErrUnknownType = errors.New("rip: unknown frame type")

// EncodeFrame writes header and payload to w.
func EncodeFrame(w io.Writer, f Frame) error {
	if err := EncodeHeader(w, f.Header); err != nil {
		return err
	}
	return encodePayload(w, f.Header.Type, f.Payload)
}

// DecodeFrame reads one full RIP frame (header + type-appropriate
// payload) from r.
func DecodeFrame(r *bufio.Reader) (Frame, error) {
	header, err := DecodeHeader(r)
	if err != nil {
		return Frame{}, err
	}
	payload, err := decodePayload(r, header.Type)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Header: header, Payload: payload}, nil
}

func encodePayload(w io.Writer, t Type, payload any) error {
	switch t {
	case TypePing, TypePong:
		p, ok := payload.(GossipPayload)
		if !ok {
			return ErrUnknownType
		}
		return encodeGossip(w, p)

	case TypeFail, TypeFailoverAuthAck:
		p, ok := payload.(NodeIDPayload)
		if !ok {
			return ErrUnknownType
		}
		return writeNodeID(w, p.NodeID)

	case TypeRedisCMD, TypePublish:
		p, ok := payload.(TokensPayload)
		if !ok {
			return ErrUnknownType
		}
		return encodeTokens(w, p)

	case TypeFailoverAuthRequest, TypeFailoverNegotiation:
		p, ok := payload.(OffsetPayload)
		if !ok {
			return ErrUnknownType
		}
		return writeUint32(w, p.ReplicationOffset)

	case TypeMeet, TypeMeetMaster, TypeMeetNewMaster, TypeUpdate:
		return nil

	default:
		return ErrUnknownType
	}
}

func decodePayload(r *bufio.Reader, t Type) (any, error) {
	switch t {
	case TypePing, TypePong:
		return decodeGossip(r)

	case TypeFail, TypeFailoverAuthAck:
		id, err := readNodeID(r)
		if err != nil {
			return nil, err
		}
		return NodeIDPayload{NodeID: id}, nil

	case TypeRedisCMD, TypePublish:
		return decodeTokens(r)

	case TypeFailoverAuthRequest, TypeFailoverNegotiation:
		offset, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return OffsetPayload{ReplicationOffset: offset}, nil

	case TypeMeet, TypeMeetMaster, TypeMeetNewMaster, TypeUpdate:
		return EmptyPayload{}, nil

	default:
		return nil, ErrUnknownType
	}
}

func encodeGossip(w io.Writer, p GossipPayload) error {
	if err := writeUint32(w, uint32(len(p.Entries))); err != nil {
		return err
	}
	for _, e := range p.Entries {
		if err := writeNodeID(w, e.NodeID); err != nil {
			return err
		}
		if err := e.Addr.encode(w); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(e.Flags)}); err != nil {
			return err
		}
	}
	return nil
}

func decodeGossip(r io.Reader) (GossipPayload, error) {
	n, err := readUint32(r)
	if err != nil {
		return GossipPayload{}, err
	}
	entries := make([]GossipEntry, n)
	for i := range entries {
		id, err := readNodeID(r)
		if err != nil {
			return GossipPayload{}, err
		}
		addr, err := decodeSocketAddr(r)
		if err != nil {
			return GossipPayload{}, err
		}
		var flagByte [1]byte
		if _, err := io.ReadFull(r, flagByte[:]); err != nil {
			return GossipPayload{}, err
		}
		entries[i] = GossipEntry{NodeID: id, Addr: addr, Flags: Flags(flagByte[0])}
	}
	return GossipPayload{Entries: entries}, nil
}

func encodeTokens(w io.Writer, p TokensPayload) error {
	if err := writeUint32(w, uint32(len(p.Tokens))); err != nil {
		return err
	}
	for _, tok := range p.Tokens {
		if err := writeUint32(w, uint32(len(tok))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, tok); err != nil {
			return err
		}
	}
	return nil
}

func decodeTokens(r io.Reader) (TokensPayload, error) {
	n, err := readUint32(r)
	if err != nil {
		return TokensPayload{}, err
	}
	tokens := make([]string, n)
	for i := range tokens {
		tokLen, err := readUint32(r)
		if err != nil {
			return TokensPayload{}, err
		}
		buf := make([]byte, tokLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return TokensPayload{}, err
		}
		tokens[i] = string(buf)
	}
	return TokensPayload{Tokens: tokens}, nil
}
