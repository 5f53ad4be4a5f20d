package storage

import "strconv"

// StringObject holds a binary-safe byte string, the target of
// GET/SET/APPEND/STRLEN/GETRANGE/INCR/DECR/GETDEL.
type StringObject struct {
	data []byte
}

func NewStringObject(data []byte) *StringObject {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &StringObject{data: buf}
}

func (s *StringObject) Kind() Kind { return KindString }

func (s *StringObject) Bytes() []byte { return s.data }

func (s *StringObject) Len() int { return len(s.data) }

// Append appends suffix in place and returns the new total length.
func (s *StringObject) Append(suffix []byte) int {
	s.data = append(s.data, suffix...)
	return len(s.data)
}

// GetRange returns the substring for the inclusive, Redis-style
// (possibly negative, clamped) start/end bounds GETRANGE/SUBSTR use.
func (s *StringObject) GetRange(start, end int) []byte {
	n := len(s.data)
	if n == 0 {
		return nil
	}
	start = clampIndex(start, n)
	end = clampIndex(end, n)
	if start > end || start >= n {
		return nil
	}
	if end >= n {
		end = n - 1
	}
	out := make([]byte, end-start+1)
	copy(out, s.data[start:end+1])
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	return i
}

// IncrBy parses the current value as a base-10 int64, adds delta, and
// stores the formatted result back. Returns ErrNotInteger if the
// current value isn't a valid integer or the add overflows.
func (s *StringObject) IncrBy(delta int64) (int64, error) {
	var cur int64
	if len(s.data) > 0 {
		v, err := strconv.ParseInt(string(s.data), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur = v
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, ErrNotInteger
	}
	s.data = []byte(strconv.FormatInt(next, 10))
	return next, nil
}
