package storage

import "testing"

func TestMovedForKeyOutsideRange(t *testing.T) {
	s := New(0, 100)
	// Find a key whose slot falls outside [0,100).
	var key string
	for i := 0; i < 10000; i++ {
		k := string(rune('a' + i%26))
		if Slot(k) >= 100 {
			key = k
			break
		}
	}
	if key == "" {
		t.Skip("could not find an out-of-range key in the sample space")
	}
	_, err := s.Get(key)
	me, ok := err.(*MovedError)
	if !ok {
		t.Fatalf("expected *MovedError, got %v", err)
	}
	if me.Slot != Slot(key) {
		t.Fatalf("MovedError slot mismatch: got %d want %d", me.Slot, Slot(key))
	}
}

func TestSetGetDelOwnedKey(t *testing.T) {
	s := New(0, 16384)
	if err := s.Set("k1", NewStringObject([]byte("hello"))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	obj, err := s.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	str, err := AsString(obj)
	if err != nil {
		t.Fatalf("AsString: %v", err)
	}
	if string(str.Bytes()) != "hello" {
		t.Fatalf("got %q want %q", str.Bytes(), "hello")
	}

	existed, err := s.Del("k1")
	if err != nil || !existed {
		t.Fatalf("Del: existed=%v err=%v", existed, err)
	}
	if _, err := s.Get("k1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestWrongTypeError(t *testing.T) {
	s := New(0, 16384)
	_ = s.Set("list-key", NewListObject())
	obj, _ := s.Get("list-key")
	if _, err := AsString(obj); err != ErrWrongType {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestListOperations(t *testing.T) {
	l := NewListObject()
	l.RPush([]byte("a"), []byte("b"), []byte("c"))
	l.LPush([]byte("z"))
	if l.Len() != 4 {
		t.Fatalf("Len = %d, want 4", l.Len())
	}
	got := l.Range(0, -1)
	want := []string{"z", "a", "b", "c"}
	for i, w := range want {
		if string(got[i]) != w {
			t.Fatalf("Range[%d] = %q, want %q", i, got[i], w)
		}
	}
	removed := l.Rem(1, []byte("a"))
	if removed != 1 || l.Len() != 3 {
		t.Fatalf("Rem: removed=%d len=%d", removed, l.Len())
	}
}

func TestSetOperations(t *testing.T) {
	s := NewSetObject()
	if !s.Add([]byte("apple")) {
		t.Fatal("expected Add to report newly added")
	}
	if s.Add([]byte("apple")) {
		t.Fatal("expected duplicate Add to report false")
	}
	if s.Card() != 1 {
		t.Fatalf("Card = %d, want 1", s.Card())
	}
	if !s.IsMember([]byte("apple")) {
		t.Fatal("expected apple to be a member")
	}
	if !s.Remove([]byte("apple")) {
		t.Fatal("expected Remove to report removal")
	}
}

func TestStringIncrBy(t *testing.T) {
	s := NewStringObject([]byte("10"))
	v, err := s.IncrBy(5)
	if err != nil || v != 15 {
		t.Fatalf("IncrBy: v=%d err=%v", v, err)
	}
	bad := NewStringObject([]byte("not-a-number"))
	if _, err := bad.IncrBy(1); err != ErrNotInteger {
		t.Fatalf("expected ErrNotInteger, got %v", err)
	}
}
