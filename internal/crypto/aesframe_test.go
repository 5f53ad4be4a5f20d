package crypto

import (
	"bytes"
	"testing"
)

func TestFramerRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	f, err := NewFramer(key)
	if err != nil {
		t.Fatalf("NewFramer: %v", err)
	}

	messages := [][]byte{
		[]byte(""),
		[]byte("*1\r\n$4\r\nPING\r\n"),
		bytes.Repeat([]byte("x"), 1000),
	}
	for _, m := range messages {
		var buf bytes.Buffer
		if err := f.WriteFrame(&buf, m); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		got, err := ReadFrame(&buf, f)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if !bytes.Equal(got, m) {
			t.Fatalf("round trip mismatch: got %q want %q", got, m)
		}
	}
}

func TestFramerRandomIVPerFrame(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, KeySize)
	f, _ := NewFramer(key)
	a, _ := f.Seal([]byte("same plaintext"))
	b, _ := f.Seal([]byte("same plaintext"))
	if bytes.Equal(a, b) {
		t.Fatalf("two frames of identical plaintext should not be byte-identical (IV must vary)")
	}
}

func TestOpenRejectsTruncatedFrame(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, KeySize)
	f, _ := NewFramer(key)
	if _, err := f.Open([]byte{1, 2, 3}); err != ErrTruncatedFrame {
		t.Fatalf("expected ErrTruncatedFrame, got %v", err)
	}
}

func TestNewFramerRejectsBadKeySize(t *testing.T) {
	if _, err := NewFramer([]byte("short")); err != ErrBadKeySize {
		t.Fatalf("expected ErrBadKeySize, got %v", err)
	}
}
