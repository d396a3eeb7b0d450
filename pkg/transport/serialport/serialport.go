// Package serialport implements transport.Transport over an OS serial
// device. It serves both UART and USB-CDC links: on Linux/macOS both
// enumerate as the same kind of character device, distinguished only by
// path and baud rate, so one implementation covers both.
package serialport

import (
	"fmt"
	"io"
	"log"
	"sync"

	"go.bug.st/serial"
)

// chunkSize bounds a single Read call; it is comfortably above
// frame.MaxBytes so a full frame is never artificially fragmented by the
// transport layer itself.
const chunkSize = 256

// Config selects the serial device and line settings.
type Config struct {
	Device   string
	BaudRate int
}

// Port is a transport.Transport backed by a real (or emulated) OS serial
// port. Writes are serialized with a mutex; reads run on a dedicated
// goroutine that hands chunks of bytes to the registered RX handler, which
// may be invoked concurrently with the tick goroutine exactly as
// transport.Transport documents.
type Port struct {
	port serial.Port

	mu sync.Mutex

	rxHandler func([]byte)

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Open opens the serial device described by cfg and starts the background
// read loop. Call SetRXHandler before any bytes are expected to matter;
// bytes read before a handler is registered are silently dropped.
func Open(cfg Config) (*Port, error) {
	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	sp, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}

	p := &Port{
		port:   sp,
		stopCh: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.readLoop()
	return p, nil
}

// TxWrite implements transport.Transport. The underlying go.bug.st/serial
// port blocks until the OS accepts the write, so TxWrite never reports
// busy: it returns the byte count the port accepted, or -1 and an error on
// any write failure (including a port closed concurrently).
func (p *Port) TxWrite(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.port.Write(buf)
	if err != nil {
		return -1, fmt.Errorf("serialport: write: %w", err)
	}
	return n, nil
}

// LinkReady always reports true: a successfully opened serial port accepts
// writes immediately (the OS driver buffers them).
func (p *Port) LinkReady() bool { return true }

// BestChunk returns the largest single write this transport recommends;
// serial links have no inherent fragmentation limit below chunkSize, which
// is already well above frame.MaxBytes.
func (p *Port) BestChunk() int { return chunkSize }

// SetRXHandler registers the callback invoked with each chunk read from the
// port. It may be called concurrently with Tick, matching
// transport.Transport's contract.
func (p *Port) SetRXHandler(fn func(data []byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rxHandler = fn
}

// Close stops the read loop and closes the underlying port.
func (p *Port) Close() error {
	close(p.stopCh)
	p.wg.Wait()
	return p.port.Close()
}

func (p *Port) readLoop() {
	defer p.wg.Done()

	buf := make([]byte, chunkSize)
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		n, err := p.port.Read(buf)
		if err != nil {
			if err == io.EOF {
				return
			}
			log.Printf("serialport: read error: %v", err)
			continue
		}
		if n == 0 {
			continue
		}

		p.mu.Lock()
		handler := p.rxHandler
		p.mu.Unlock()
		if handler != nil {
			cp := append([]byte(nil), buf[:n]...)
			handler(cp)
		}
	}
}
