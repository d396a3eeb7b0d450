package txengine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brahimab8/powerscope-core/pkg/buffer"
	"github.com/brahimab8/powerscope-core/pkg/frame"
	"github.com/brahimab8/powerscope-core/pkg/txengine"
)

// fakeTransport is an in-memory transport.Transport double: ready=true and
// a frame.MaxBytes chunk by default, with a write log for assertions and knobs to
// simulate busy/error responses.
type fakeTransport struct {
	ready    bool
	chunk    int
	writes   [][]byte
	busyOnce bool
	errOnce  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{ready: true, chunk: frame.MaxBytes}
}

func (f *fakeTransport) TxWrite(buf []byte) (int, error) {
	if f.errOnce {
		f.errOnce = false
		return -1, errWriteFailed
	}
	if f.busyOnce {
		f.busyOnce = false
		return 0, nil
	}
	cp := append([]byte(nil), buf...)
	f.writes = append(f.writes, cp)
	return len(buf), nil
}

func (f *fakeTransport) LinkReady() bool       { return f.ready }
func (f *fakeTransport) BestChunk() int        { return f.chunk }
func (f *fakeTransport) SetRXHandler(func([]byte)) {}

var errWriteFailed = &writeErr{}

type writeErr struct{}

func (*writeErr) Error() string { return "write failed" }

func TestPump_RespondsBeforeStream(t *testing.T) {
	stream := buffer.NewRing(make([]byte, 256))
	tp := newFakeTransport()
	tx := txengine.New(stream, tp, 0)

	tx.SendStream([]byte{0x01, 0xAA}, 10, 0)
	tx.SendResponse(frame.TypeACK, 0x05, 1, 20, nil)

	tx.Pump()
	require.Len(t, tp.writes, 1)
	_, hdr, _ := frame.Parse(tp.writes[0])
	require.Equal(t, frame.TypeACK, hdr.Type)
	require.False(t, tx.ResponsePending())

	tx.Pump()
	require.Len(t, tp.writes, 2)
	_, hdr2, _ := frame.Parse(tp.writes[1])
	require.Equal(t, frame.TypeStream, hdr2.Type)
}

func TestPump_OneFramePerCall(t *testing.T) {
	stream := buffer.NewRing(make([]byte, 256))
	tp := newFakeTransport()
	tx := txengine.New(stream, tp, 0)

	tx.SendStream([]byte{1}, 0, 0)
	tx.SendStream([]byte{2}, 0, 1)

	tx.Pump()
	require.Len(t, tp.writes, 1)
	tx.Pump()
	require.Len(t, tp.writes, 2)
}

func TestPump_NotReadyDoesNothing(t *testing.T) {
	stream := buffer.NewRing(make([]byte, 256))
	tp := newFakeTransport()
	tp.ready = false
	tx := txengine.New(stream, tp, 0)
	tx.SendResponse(frame.TypeACK, 1, 1, 1, nil)

	tx.Pump()
	require.Empty(t, tp.writes)
	require.True(t, tx.ResponsePending())
}

func TestPump_BusyRetainsFrameForNextPump(t *testing.T) {
	stream := buffer.NewRing(make([]byte, 256))
	tp := newFakeTransport()
	tp.busyOnce = true
	tx := txengine.New(stream, tp, 0)
	tx.SendResponse(frame.TypeACK, 1, 1, 1, nil)

	tx.Pump()
	require.True(t, tx.ResponsePending())
	require.Empty(t, tp.writes)

	tx.Pump()
	require.False(t, tx.ResponsePending())
	require.Len(t, tp.writes, 1)
}

func TestSendResponse_OverwritesPendingResponse(t *testing.T) {
	stream := buffer.NewRing(make([]byte, 256))
	tp := newFakeTransport()
	tx := txengine.New(stream, tp, 0)

	tx.SendResponse(frame.TypeNACK, 1, 1, 1, []byte{0x01})
	tx.SendResponse(frame.TypeACK, 2, 2, 2, nil)

	tx.Pump()
	require.Len(t, tp.writes, 1)
	_, hdr, _ := frame.Parse(tp.writes[0])
	require.Equal(t, frame.TypeACK, hdr.Type)
	require.Equal(t, uint8(2), hdr.CmdID)
}

func TestSendStream_DropsOverMaxPayload(t *testing.T) {
	stream := buffer.NewRing(make([]byte, 256))
	tp := newFakeTransport()
	tx := txengine.New(stream, tp, 4) // cap of 4 bytes

	ok := tx.SendStream([]byte{1, 2, 3, 4, 5}, 0, 0)
	require.False(t, ok)
	require.Equal(t, 0, stream.Size())
}

func TestEnqueueFrame_DropsWholeOldestFrameUnderPressure(t *testing.T) {
	// usable capacity 31: exactly one 19-byte frame fits; enqueueing a
	// second must drop the first in its entirety.
	stream := buffer.NewRing(make([]byte, 32))
	tp := newFakeTransport()
	tx := txengine.New(stream, tp, 0)

	require.True(t, tx.SendStream([]byte{0xAA}, 0, 0))
	require.Equal(t, 19, stream.Size())

	require.True(t, tx.SendStream([]byte{0xBB}, 1, 1))
	require.Equal(t, 19, stream.Size(), "oldest whole frame dropped to make room for the new one")

	tx.Pump()
	require.Len(t, tp.writes, 1)
	_, hdr, payload := frame.Parse(tp.writes[0])
	require.Equal(t, uint32(1), hdr.Seq)
	require.Equal(t, []byte{0xBB}, payload)
}

func TestEnqueueFrame_RejectsZeroLenAndOversize(t *testing.T) {
	stream := buffer.NewRing(make([]byte, 32))
	tp := newFakeTransport()
	tx := txengine.New(stream, tp, 0)

	require.False(t, tx.EnqueueFrame(nil))
	require.False(t, tx.EnqueueFrame(make([]byte, 1000)))
}
