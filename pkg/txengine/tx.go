// Package txengine implements frame-aware drop-oldest enqueueing, the
// single-entry response priority slot, and the one-frame-per-pump transport
// writer described in spec.md §4.4.
package txengine

import (
	"github.com/brahimab8/powerscope-core/pkg/buffer"
	"github.com/brahimab8/powerscope-core/pkg/frame"
	"github.com/brahimab8/powerscope-core/pkg/transport"
)

// responseSlot is the single-entry, overwrite-on-new-response priority
// channel for ACK/NACK frames.
type responseSlot struct {
	data    [frame.MaxBytes]byte
	len     int
	pending bool
}

// TX holds the stream queue, the transport, and the response slot. It is
// owned entirely by the tick goroutine; no synchronization is needed
// between Enqueue/SendResponse/SendStream and Pump because they all run on
// the same thread.
type TX struct {
	stream    buffer.Buffer
	transport transport.Transport
	maxPayload uint16

	resp responseSlot
}

// New builds a TX engine over the given stream queue storage and transport.
// maxPayload of 0 disables the STREAM payload cap check.
func New(stream buffer.Buffer, t transport.Transport, maxPayload uint16) *TX {
	return &TX{stream: stream, transport: t, maxPayload: maxPayload}
}

// EnqueueFrame appends a fully-formed frame to the stream queue, dropping
// whole frames from the head (frame-aware drop-oldest) if necessary to make
// room. It rejects len==0 or len > usable capacity outright.
func (tx *TX) EnqueueFrame(frameBytes []byte) bool {
	n := len(frameBytes)
	if n == 0 || n > tx.stream.Capacity() {
		return false
	}
	for tx.stream.Space() < n {
		if dropOneFrame(tx.stream) == 0 {
			tx.stream.Clear()
			break
		}
	}
	return tx.stream.Append(frameBytes)
}

// dropOneFrame removes exactly one whole frame from the head of buf. It
// returns 0 when the head does not (yet) hold a complete frame — the caller
// falls back to clearing the whole queue. On an invalid header it pops a
// single byte to resync and reports progress (1), exactly as spec.md §4.4
// specifies.
func dropOneFrame(buf buffer.Buffer) int {
	if buf.Size() < frame.HdrLen+frame.CRCLen {
		return 0
	}
	var hdr [frame.HdrLen]byte
	buf.Copy(hdr[:], frame.HdrLen)

	// Resync decodes the header prefix directly rather than calling
	// frame.Parse: the CRC trailer may not have arrived yet (or ever, if
	// the head is desynced), and drop-oldest only needs the declared
	// length to size the frame, not CRC validity.
	if !validHeaderPrefix(hdr[:]) {
		buf.Pop(1)
		return 1
	}

	frameLen := frame.HdrLen + int(declaredLen(hdr[:])) + frame.CRCLen
	if buf.Size() < frameLen {
		return 0
	}
	buf.Pop(frameLen)
	return 1
}

// validHeaderPrefix and declaredLen decode just enough of a raw header to
// drive resync without requiring a valid CRC (dropOneFrame/pump operate on
// bytes that may not have arrived in full yet).
func validHeaderPrefix(hdr []byte) bool {
	if len(hdr) < frame.HdrLen {
		return false
	}
	magic := uint16(hdr[0]) | uint16(hdr[1])<<8
	ver := hdr[3]
	l := uint16(hdr[4]) | uint16(hdr[5])<<8
	return magic == frame.Magic && ver == frame.Ver && l <= frame.MaxPayload
}

func declaredLen(hdr []byte) uint16 {
	return uint16(hdr[4]) | uint16(hdr[5])<<8
}

// SendResponse formats an ACK/NACK frame into the priority slot, overwriting
// any previously pending (undrained) response.
func (tx *TX) SendResponse(typ frame.Type, cmdID uint8, seq, tsMs uint32, payload []byte) {
	n := frame.Write(tx.resp.data[:], typ, cmdID, payload, seq, tsMs)
	tx.resp.len = n
	tx.resp.pending = n > 0
}

// SendStream builds a STREAM frame and routes it through EnqueueFrame. If
// maxPayload is nonzero and payload exceeds it, the send is silently
// dropped (returns false) without touching the queue.
func (tx *TX) SendStream(payload []byte, tsMs, seq uint32) bool {
	if tx.maxPayload != 0 && len(payload) > int(tx.maxPayload) {
		return false
	}
	var local [frame.MaxBytes]byte
	n := frame.Write(local[:], frame.TypeStream, 0, payload, seq, tsMs)
	if n == 0 {
		return false
	}
	return tx.EnqueueFrame(local[:n])
}

// Pump writes at most one frame to the transport: the pending response, if
// any and if it fits, strictly before anything in the stream queue.
func (tx *TX) Pump() {
	if !tx.transport.LinkReady() {
		return
	}

	chunk := tx.transport.BestChunk()

	if tx.resp.pending && tx.resp.len <= chunk {
		n, err := tx.transport.TxWrite(tx.resp.data[:tx.resp.len])
		if err != nil {
			return
		}
		if n == tx.resp.len {
			tx.resp.pending = false
		}
		return
	}

	if tx.stream.Size() < frame.HdrLen+frame.CRCLen {
		return
	}
	var hdr [frame.HdrLen]byte
	tx.stream.Copy(hdr[:], frame.HdrLen)
	if !validHeaderPrefix(hdr[:]) {
		tx.stream.Pop(1)
		return
	}
	frameLen := frame.HdrLen + int(declaredLen(hdr[:])) + frame.CRCLen
	if tx.stream.Size() < frameLen || frameLen > chunk {
		return
	}

	run := tx.stream.PeekContiguous()
	var out []byte
	if len(run) >= frameLen {
		out = run[:frameLen]
	} else {
		var local [frame.MaxBytes]byte
		tx.stream.Copy(local[:], frameLen)
		out = local[:frameLen]
	}

	n, err := tx.transport.TxWrite(out)
	if err != nil {
		return
	}
	if n == frameLen {
		tx.stream.Pop(frameLen)
	}
}

// ResponsePending reports whether an ACK/NACK is currently waiting to drain.
func (tx *TX) ResponsePending() bool { return tx.resp.pending }
