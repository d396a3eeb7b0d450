// Package memtransport implements an in-memory transport.Transport for
// tests: two Transports can be wired to
// each other's RX handler so a CMD sent on one arrives as RX on the other
// without any real link.
package memtransport

import "sync"

// chunkSize matches serialport's recommended chunk; it only needs to be at
// least frame.MaxBytes.
const chunkSize = 256

// Transport is a transport.Transport backed by nothing but memory. Writes
// are recorded for inspection and, if Peer is set, delivered directly to
// the peer's RX handler.
type Transport struct {
	mu     sync.Mutex
	ready  bool
	peer   *Transport
	rxFn   func([]byte)
	Writes [][]byte
}

// New returns a ready Transport with no peer wired.
func New() *Transport {
	return &Transport{ready: true}
}

// Link wires a and b to each other: a write on one is delivered as RX on
// the other.
func Link(a, b *Transport) {
	a.mu.Lock()
	a.peer = b
	a.mu.Unlock()
	b.mu.Lock()
	b.peer = a
	b.mu.Unlock()
}

// SetReady controls LinkReady's return value, for exercising the busy path.
func (t *Transport) SetReady(ready bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = ready
}

func (t *Transport) TxWrite(buf []byte) (int, error) {
	t.mu.Lock()
	if !t.ready {
		t.mu.Unlock()
		return 0, nil
	}
	cp := append([]byte(nil), buf...)
	t.Writes = append(t.Writes, cp)
	peer := t.peer
	t.mu.Unlock()

	if peer != nil {
		peer.mu.Lock()
		fn := peer.rxFn
		peer.mu.Unlock()
		if fn != nil {
			fn(cp)
		}
	}
	return len(buf), nil
}

func (t *Transport) LinkReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

func (t *Transport) BestChunk() int { return chunkSize }

func (t *Transport) SetRXHandler(fn func([]byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rxFn = fn
}
