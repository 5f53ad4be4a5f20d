package storage

// ListObject is a doubly-ended sequence of binary-safe elements backing
// LPUSH/RPUSH/LPOP/RPOP/LLEN/LRANGE/LSET/LREM/LTRIM/LINDEX/LMOVE/LINSERT.
// A single slice; no listpack/quicklist encoding split, which has no
// observable effect on any command here.
type ListObject struct {
	elems [][]byte
}

func NewListObject() *ListObject {
	return &ListObject{}
}

func (l *ListObject) Kind() Kind { return KindList }

func (l *ListObject) Len() int { return len(l.elems) }

func (l *ListObject) LPush(values ...[]byte) int {
	for _, v := range values {
		l.elems = append([][]byte{cloneBytes(v)}, l.elems...)
	}
	return len(l.elems)
}

func (l *ListObject) RPush(values ...[]byte) int {
	for _, v := range values {
		l.elems = append(l.elems, cloneBytes(v))
	}
	return len(l.elems)
}

func (l *ListObject) LPop(count int) [][]byte {
	if count > len(l.elems) {
		count = len(l.elems)
	}
	if count <= 0 {
		return nil
	}
	out := l.elems[:count]
	l.elems = l.elems[count:]
	return out
}

func (l *ListObject) RPop(count int) [][]byte {
	n := len(l.elems)
	if count > n {
		count = n
	}
	if count <= 0 {
		return nil
	}
	out := make([][]byte, count)
	for i := 0; i < count; i++ {
		out[i] = l.elems[n-1-i]
	}
	l.elems = l.elems[:n-count]
	return out
}

// Range returns the elements in [start, end], Redis-style negative
// indices accepted and clamped, inclusive of end.
func (l *ListObject) Range(start, end int) [][]byte {
	n := len(l.elems)
	if n == 0 {
		return nil
	}
	start = clampIndex(start, n)
	end = clampIndex(end, n)
	if end >= n {
		end = n - 1
	}
	if start > end || start >= n {
		return nil
	}
	out := make([][]byte, end-start+1)
	copy(out, l.elems[start:end+1])
	return out
}

func (l *ListObject) Index(idx int) ([]byte, bool) {
	n := len(l.elems)
	idx = clampIndex(idx, n)
	if idx < 0 || idx >= n {
		return nil, false
	}
	return l.elems[idx], true
}

func (l *ListObject) Set(idx int, value []byte) error {
	n := len(l.elems)
	idx = clampIndex(idx, n)
	if idx < 0 || idx >= n {
		return ErrIndexRange
	}
	l.elems[idx] = cloneBytes(value)
	return nil
}

// Rem removes occurrences of value. count > 0 removes the first count
// matches head-to-tail, count < 0 removes |count| matches tail-to-head,
// count == 0 removes all matches. Returns the number removed.
func (l *ListObject) Rem(count int, value []byte) int {
	removed := 0
	if count >= 0 {
		limit := count
		out := l.elems[:0]
		for _, e := range l.elems {
			if (limit == 0 || removed < limit) && bytesEqual(e, value) {
				removed++
				continue
			}
			out = append(out, e)
		}
		l.elems = out
		return removed
	}

	limit := -count
	keep := make([]bool, len(l.elems))
	for i := range keep {
		keep[i] = true
	}
	for i := len(l.elems) - 1; i >= 0 && removed < limit; i-- {
		if bytesEqual(l.elems[i], value) {
			keep[i] = false
			removed++
		}
	}
	out := l.elems[:0]
	for i, k := range keep {
		if k {
			out = append(out, l.elems[i])
		}
	}
	l.elems = out
	return removed
}

func (l *ListObject) Trim(start, end int) {
	l.elems = l.Range(start, end)
}

// Insert places value immediately before (or after) the first element
// equal to pivot, returning the new length, or ErrNoSuchPivot if pivot
// is absent.
func (l *ListObject) Insert(before bool, pivot, value []byte) (int, error) {
	for i, e := range l.elems {
		if bytesEqual(e, pivot) {
			idx := i
			if !before {
				idx = i + 1
			}
			l.elems = append(l.elems[:idx:idx], append([][]byte{cloneBytes(value)}, l.elems[idx:]...)...)
			return len(l.elems), nil
		}
	}
	return 0, ErrNoSuchPivot
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
