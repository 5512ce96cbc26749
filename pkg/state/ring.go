package state

// idRing is a bounded FIFO of message ids backed by a circular buffer,
// giving O(1) eviction of the oldest id. The bulk-load path may grow
// past the initial capacity; only the single-insert path evicts.
type idRing struct {
	buf  []string
	head int
	size int
}

func newIDRing(capacity int) *idRing {
	if capacity < 1 {
		capacity = 1
	}
	return &idRing{buf: make([]string, capacity)}
}

func (r *idRing) len() int {
	return r.size
}

// push appends an id, evicting the oldest when the buffer is full.
// Returns the evicted id and whether an eviction happened.
func (r *idRing) push(id string) (string, bool) {
	if r.size == len(r.buf) {
		evicted := r.buf[r.head]
		r.buf[r.head] = id
		r.head = (r.head + 1) % len(r.buf)
		return evicted, true
	}
	r.buf[(r.head+r.size)%len(r.buf)] = id
	r.size++
	return "", false
}

// pushGrow appends an id, doubling the buffer instead of evicting when
// full. Used only for trusted bulk loads.
func (r *idRing) pushGrow(id string) {
	if r.size == len(r.buf) {
		grown := make([]string, len(r.buf)*2)
		copy(grown, r.ids())
		r.buf = grown
		r.head = 0
	}
	r.buf[(r.head+r.size)%len(r.buf)] = id
	r.size++
}

// popOldest removes and returns the oldest id
func (r *idRing) popOldest() (string, bool) {
	if r.size == 0 {
		return "", false
	}
	id := r.buf[r.head]
	r.buf[r.head] = ""
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return id, true
}

// ids returns the ids oldest-first as a fresh slice
func (r *idRing) ids() []string {
	out := make([]string, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
