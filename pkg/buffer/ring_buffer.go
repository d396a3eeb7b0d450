package buffer

import "github.com/brahimab8/powerscope-core/pkg/ring"

// RingBuffer adapts a ring.Ring to the Buffer interface. It is the storage
// used by both the TX stream queue and the RX byte ring.
type RingBuffer struct {
	r *ring.Ring
}

// NewRing wraps mem (power-of-two length, <= 65536) as a Buffer.
func NewRing(mem []byte) *RingBuffer {
	return &RingBuffer{r: ring.New(mem)}
}

func (b *RingBuffer) Size() int     { return b.r.Used() }
func (b *RingBuffer) Space() int    { return b.r.Free() }
func (b *RingBuffer) Capacity() int { return b.r.Capacity() - 1 }
func (b *RingBuffer) Clear()        { b.r.Clear() }

func (b *RingBuffer) Append(src []byte) bool {
	if len(src) == 0 {
		return true
	}
	return b.r.TryWrite(src) == len(src)
}

func (b *RingBuffer) Pop(n int) { b.r.Pop(n) }

func (b *RingBuffer) Copy(dst []byte, n int) int { return b.r.CopyFromTail(dst, n) }

func (b *RingBuffer) PeekContiguous() []byte { return b.r.PeekLinear() }

// Rejected returns the cumulative byte count TryWrite has refused.
func (b *RingBuffer) Rejected() int { return b.r.Rejected() }

// Highwater returns the peak Size() observed since creation.
func (b *RingBuffer) Highwater() int { return b.r.Highwater() }
