// Package ring implements a lock-free single-producer/single-consumer byte
// ring over caller-provided storage. One slot is always reserved so a full
// ring is distinguishable from an empty one; usable capacity is cap-1.
//
// The single producer (TryWrite) must only ever run on one goroutine
// or interrupt-equivalent context; the single consumer (Pop/PeekLinear/
// CopyFromTail/Clear) only on one other. The producer publishes the write
// index with Release ordering after the payload bytes are stored; the
// consumer publishes the read index with Release ordering after it has
// finished consuming. Both sides read the other's index with Acquire
// ordering. Go's atomic package does not expose named orderings, but
// atomic.Load/Store on a single word give the same guarantee on every
// architecture Go supports, so sync/atomic is sufficient here: no mutex,
// no channel, and no reordering across these operations is observable.
package ring

import "sync/atomic"

// Ring is a byte ring buffer over a caller-provided, power-of-two-sized
// backing array.
type Ring struct {
	buf  []byte
	mask uint64

	writeIdx atomic.Uint64
	readIdx  atomic.Uint64

	rejected  atomic.Uint64
	highwater atomic.Uint64
}

// New wraps mem as a ring buffer. len(mem) must be a nonzero power of two
// and at most 65536; the caller guarantees this (as in the C source, this
// is a caller contract, not a runtime-checked error return).
func New(mem []byte) *Ring {
	n := len(mem)
	if n == 0 || n&(n-1) != 0 || n > 65536 {
		panic("ring: capacity must be a nonzero power of two <= 65536")
	}
	return &Ring{buf: mem, mask: uint64(n - 1)}
}

// Capacity returns the backing storage size (including the reserved slot).
func (r *Ring) Capacity() int { return len(r.buf) }

// Used returns the number of unread bytes currently stored.
func (r *Ring) Used() int {
	return r.usedNow()
}

// Free returns the number of bytes that can be written without blocking.
func (r *Ring) Free() int {
	return len(r.buf) - 1 - r.usedNow()
}

func (r *Ring) usedNow() int {
	w := r.writeIdx.Load()
	rd := r.readIdx.Load()
	return int((w - rd) % uint64(len(r.buf)))
}

// Highwater returns the maximum Used() has ever reached since New.
func (r *Ring) Highwater() int { return int(r.highwater.Load()) }

// Rejected returns the cumulative number of bytes refused by TryWrite.
func (r *Ring) Rejected() int { return int(r.rejected.Load()) }

// TryWrite writes all of src or none of it. It returns the number of bytes
// written (len(src) on success, 0 on rejection). On rejection, len(src) is
// added to the cumulative rejected-bytes counter. Single-producer only.
func (r *Ring) TryWrite(src []byte) int {
	n := len(src)
	cap1 := len(r.buf) - 1
	if n == 0 {
		return 0
	}
	if n > cap1 || r.Free() < n {
		r.rejected.Add(uint64(n))
		return 0
	}

	w := r.writeIdx.Load()
	start := w & r.mask
	end := (start + uint64(n)) & r.mask
	if end > start || uint64(n) == 0 {
		copy(r.buf[start:start+uint64(n)], src)
	} else {
		first := uint64(len(r.buf)) - start
		copy(r.buf[start:], src[:first])
		copy(r.buf[:end], src[first:])
	}

	r.writeIdx.Store(w + uint64(n))

	if used := r.usedNow(); uint64(used) > r.highwater.Load() {
		r.highwater.Store(uint64(used))
	}
	return n
}

// PeekLinear returns the longest contiguous run of unread bytes starting at
// the read index, without advancing it. The returned slice aliases the
// backing storage and is invalidated by the next Pop/Clear/TryWrite that
// wraps over it.
func (r *Ring) PeekLinear() []byte {
	used := r.usedNow()
	if used == 0 {
		return nil
	}
	start := r.readIdx.Load() & r.mask
	run := uint64(len(r.buf)) - start
	if run > uint64(used) {
		run = uint64(used)
	}
	return r.buf[start : start+run]
}

// Pop advances the read index by n bytes. The caller guarantees n <= Used().
// Single-consumer only.
func (r *Ring) Pop(n int) {
	if n <= 0 {
		return
	}
	r.readIdx.Store(r.readIdx.Load() + uint64(n))
}

// CopyFromTail performs a non-destructive copy of up to min(n, Used())
// bytes, starting at the read index, into dst, handling wraparound. It
// returns the number of bytes copied. dst == nil returns 0.
func (r *Ring) CopyFromTail(dst []byte, n int) int {
	if dst == nil || n <= 0 {
		return 0
	}
	used := r.usedNow()
	if n > used {
		n = used
	}
	if n > len(dst) {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	start := r.readIdx.Load() & r.mask
	end := (start + uint64(n)) & r.mask
	if end > start {
		copy(dst[:n], r.buf[start:start+uint64(n)])
	} else {
		first := uint64(len(r.buf)) - start
		copy(dst[:first], r.buf[start:])
		copy(dst[first:n], r.buf[:end])
	}
	return n
}

// Clear discards all unread bytes. Metrics (highwater, rejected) persist.
func (r *Ring) Clear() {
	r.readIdx.Store(r.writeIdx.Load())
}
