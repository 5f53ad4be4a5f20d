package resp

import (
	"bufio"
	"bytes"
	"reflect"
	"testing"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("decode: %v (wire: %q)", err, buf.String())
	}
	return got
}

func TestRoundTripEveryKind(t *testing.T) {
	cases := []Value{
		SimpleString("OK"),
		Error("ERR", "wrong number of arguments"),
		Integer(42),
		Integer(-7),
		Bulk("hello"),
		Bulk(""),
		NullBulk(),
		Array([]Value{Bulk("a"), Integer(1), SimpleString("b")}),
		NullArray(),
		Array(nil),
		SetOf([]Value{Bulk("x"), Bulk("y")}),
		MapOf([]Pair{{Key: Bulk("k"), Value: Integer(1)}}),
		Null(),
		Verbatim("txt", "some text"),
		Moved(5461, "127.0.0.1:7001"),
	}
	for _, want := range cases {
		got := roundTrip(t, want)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, want)
		}
	}
}

func TestRoundTripNestedArray(t *testing.T) {
	want := Array([]Value{
		Array([]Value{Bulk("message"), Bulk("chat"), Bulk("hi")}),
	})
	got := roundTrip(t, want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("nested array mismatch: got %#v want %#v", got, want)
	}
}

func TestDecodeRejectsOversizedBulk(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("$536870913\r\n"))
	if _, err := Decode(r); err != ErrBulkTooLarge {
		t.Fatalf("expected ErrBulkTooLarge, got %v", err)
	}
}

func TestDecodeRejectsMalformedLine(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("+missing-crlf\n"))
	if _, err := Decode(r); err != ErrProtocol {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}
