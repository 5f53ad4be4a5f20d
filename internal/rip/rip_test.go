package rip

import (
	"bufio"
	"bytes"
	"net"
	"reflect"
	"testing"

	"ripcache/internal/nodeid"
)

func sampleHeader(t Type, withMaster bool) Header {
	h := Header{
		Type:         t,
		NodeID:       nodeid.New(),
		CurrentEpoch: 9,
		ConfigEpoch:  3,
		Flags:        FlagMaster | FlagPFail,
		SlotStart:    0,
		SlotEnd:      5461,
		ClientAddr:   SocketAddr{IP: net.ParseIP("10.0.0.1").To4(), Port: 6379},
		ClusterAddr:  SocketAddr{IP: net.ParseIP("10.0.0.1").To4(), Port: 16379},
		ClusterState: ClusterOK,
	}
	if withMaster {
		h.MasterID = nodeid.New()
	}
	return h
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, withMaster := range []bool{false, true} {
		h := sampleHeader(TypePing, withMaster)
		var buf bytes.Buffer
		if err := EncodeHeader(&buf, h); err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeHeader(&buf)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !reflect.DeepEqual(got, h) {
			t.Fatalf("header mismatch:\n got  %+v\n want %+v", got, h)
		}
	}
}

func TestHeaderIPv6RoundTrip(t *testing.T) {
	h := sampleHeader(TypePong, false)
	h.ClusterAddr = SocketAddr{IP: net.ParseIP("::1"), Port: 16380}
	var buf bytes.Buffer
	if err := EncodeHeader(&buf, h); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeHeader(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ClusterAddr.String() != "[::1]:16380" {
		t.Fatalf("unexpected address: %s", got.ClusterAddr.String())
	}
}

func TestFrameRoundTripEveryType(t *testing.T) {
	gossip := GossipPayload{Entries: []GossipEntry{
		{NodeID: nodeid.New(), Addr: SocketAddr{IP: net.ParseIP("10.0.0.2").To4(), Port: 16380}, Flags: FlagReplica},
	}}
	cases := []Frame{
		{Header: sampleHeader(TypePing, false), Payload: gossip},
		{Header: sampleHeader(TypePong, true), Payload: gossip},
		{Header: sampleHeader(TypeFail, false), Payload: NodeIDPayload{NodeID: nodeid.New()}},
		{Header: sampleHeader(TypeFailoverAuthAck, false), Payload: NodeIDPayload{NodeID: nodeid.New()}},
		{Header: sampleHeader(TypeRedisCMD, false), Payload: TokensPayload{Tokens: []string{"SET", "k1", "v"}}},
		{Header: sampleHeader(TypePublish, false), Payload: TokensPayload{Tokens: []string{"chat", "hi"}}},
		{Header: sampleHeader(TypeFailoverAuthRequest, false), Payload: OffsetPayload{ReplicationOffset: 42}},
		{Header: sampleHeader(TypeFailoverNegotiation, false), Payload: OffsetPayload{ReplicationOffset: 0}},
		{Header: sampleHeader(TypeMeet, false), Payload: EmptyPayload{}},
		{Header: sampleHeader(TypeMeetMaster, false), Payload: EmptyPayload{}},
		{Header: sampleHeader(TypeMeetNewMaster, false), Payload: EmptyPayload{}},
		{Header: sampleHeader(TypeUpdate, false), Payload: EmptyPayload{}},
	}
	for _, want := range cases {
		var buf bytes.Buffer
		if err := EncodeFrame(&buf, want); err != nil {
			t.Fatalf("encode %v: %v", want.Header.Type, err)
		}
		got, err := DecodeFrame(bufio.NewReader(&buf))
		if err != nil {
			t.Fatalf("decode %v: %v", want.Header.Type, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("frame mismatch for type %v:\n got  %+v\n want %+v", want.Header.Type, got, want)
		}
	}
}
