// Package transport defines the contract the streaming core consumes to
// move bytes on and off the wire. Concrete transports (UART, USB-CDC, an
// in-memory test double) live in their own sub-packages; this package only
// holds the interface the core is generic over.
package transport

// Transport is the narrow contract the core needs from whatever physical
// (or simulated) link carries frames. TxWrite must be all-or-nothing from
// the caller's perspective: it writes every byte of buf or none of it.
type Transport interface {
	// TxWrite attempts exactly one write. It returns len(buf) on success,
	// 0 if busy/not ready, and a non-nil error only for unrecoverable
	// transport failures (the C contract's -1).
	TxWrite(buf []byte) (int, error)
	// LinkReady reports whether the link can accept an immediate write.
	LinkReady() bool
	// BestChunk returns the maximum safe single-write length in bytes.
	// It must be >= frame.MaxBytes.
	BestChunk() int
	// SetRXHandler registers the callback invoked with each chunk of bytes
	// received from the link. It may be invoked from an interrupt context
	// or a dedicated reader goroutine, concurrently with the tick.
	SetRXHandler(func(data []byte))
}
