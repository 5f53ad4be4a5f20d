package crc16

import "testing"

func TestSlotDeterministic(t *testing.T) {
	keys := []string{"k1", "k2", "user:1000", ""}
	for _, k := range keys {
		s1 := Slot(k)
		s2 := Slot(k)
		if s1 != s2 {
			t.Fatalf("Slot(%q) not deterministic: %d != %d", k, s1, s2)
		}
		if s1 >= SlotCount {
			t.Fatalf("Slot(%q) = %d out of range", k, s1)
		}
	}
}

func TestHashTagCollocation(t *testing.T) {
	a := Slot("user:{1000}:profile")
	b := Slot("user:{1000}:settings")
	if a != b {
		t.Fatalf("hash-tagged keys should share a slot: %d != %d", a, b)
	}
}

func TestEmptyHashTagFallsBackToWholeKey(t *testing.T) {
	// "{}" is an empty tag and must be ignored: the whole key is hashed.
	withEmptyTag := Slot("foo{}bar")
	whole := Checksum([]byte("foo{}bar")) % SlotCount
	if withEmptyTag != whole {
		t.Fatalf("empty hash tag should hash the whole key: got %d want %d", withEmptyTag, whole)
	}
}

func TestUnclosedHashTagHashesWholeKey(t *testing.T) {
	got := Slot("foo{bar")
	want := Checksum([]byte("foo{bar")) % SlotCount
	if got != want {
		t.Fatalf("unclosed tag should hash the whole key: got %d want %d", got, want)
	}
}
