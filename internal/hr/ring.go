package hr

// ring is a fixed-capacity buffer that evicts the oldest pushed element once full.
// Eviction follows push order only; element contents (timestamps) are never consulted.
type ring[T any] struct {
	buf   []T
	start int // index of the oldest element
	n     int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// ringFromNewestFirst builds a ring from a newest-first slice, keeping at most
// capacity of the newest elements.
func ringFromNewestFirst[T any](capacity int, items []T) *ring[T] {
	r := newRing[T](capacity)
	for i := len(items) - 1; i >= 0; i-- {
		r.Push(items[i])
	}
	return r
}

// Push appends v, evicting and returning the oldest element when the ring is full.
func (r *ring[T]) Push(v T) (evicted T, ok bool) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return evicted, false
	}
	evicted = r.buf[r.start]
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
	return evicted, true
}

func (r *ring[T]) Len() int { return r.n }

func (r *ring[T]) Cap() int { return len(r.buf) }

// NewestFirst returns the elements from the most recently pushed to the oldest.
func (r *ring[T]) NewestFirst() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+r.n-1-i)%len(r.buf)]
	}
	return out
}
