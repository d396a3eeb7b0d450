// Package telemetry forwards decoded STREAM samples emitted by the core to
// Redis, and optionally bridges inbound Redis list commands into CMD
// frames fed back into the core. Both sit outside the core: the core only
// ever writes to a transport.Transport and only ever receives bytes
// through OnRX, never telemetry-specific types.
package telemetry

import (
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/brahimab8/powerscope-core/pkg/frame"
	"github.com/brahimab8/powerscope-core/pkg/transport"
)

// SampleWriter is the narrow redis surface Sink needs; *redis.Client
// satisfies it. Narrowed to an interface so Sink depends on a capability,
// not a concrete client, and so tests can supply a fake.
type SampleWriter interface {
	WriteAndPublishHex(key, field string, value []byte) error
}

// CommandSource is the narrow redis surface CommandBridge needs;
// *redis.Client satisfies it.
type CommandSource interface {
	BRPop(timeout time.Duration, key string) ([]string, error)
}

// streamKeyPrefix namespaces the Redis hash/channel each sensor's samples
// are written under: "powerscope:sensor:<runtime_id>".
const streamKeyPrefix = "powerscope:sensor:"

func streamKey(runtimeID uint8) string {
	return fmt.Sprintf("%s%d", streamKeyPrefix, runtimeID)
}

// Sink wraps a transport.Transport, forwarding every TxWrite unchanged and
// mirroring any fully-written STREAM frame to Redis. It implements
// transport.Transport itself, so it can be spliced in anywhere core.New
// expects a transport without the core ever knowing telemetry exists.
type Sink struct {
	next transport.Transport
	w    SampleWriter
}

// NewSink wraps next, mirroring STREAM frames to w. A nil w is legal and
// makes Sink a pure passthrough (nil sink/sample-writer is legal).
func NewSink(next transport.Transport, w SampleWriter) *Sink {
	return &Sink{next: next, w: w}
}

func (s *Sink) TxWrite(buf []byte) (int, error) {
	n, err := s.next.TxWrite(buf)
	if err == nil && n == len(buf) && s.w != nil {
		s.mirror(buf[:n])
	}
	return n, err
}

func (s *Sink) LinkReady() bool              { return s.next.LinkReady() }
func (s *Sink) BestChunk() int               { return s.next.BestChunk() }
func (s *Sink) SetRXHandler(fn func([]byte)) { s.next.SetRXHandler(fn) }

// mirror decodes one frame out of a just-written chunk and, if it is a
// STREAM frame, HSETs+PUBLISHes its sample under the emitting sensor's key.
// Non-STREAM frames (ACK/NACK) and anything that fails to parse are
// silently ignored: telemetry only cares about sensor data.
func (s *Sink) mirror(buf []byte) {
	consumed, hdr, payload := frame.Parse(buf)
	if consumed == 0 || hdr.Type != frame.TypeStream || len(payload) == 0 {
		return
	}
	runtimeID := payload[0]
	sample := payload[1:]
	if err := s.w.WriteAndPublishHex(streamKey(runtimeID), "sample", sample); err != nil {
		log.Printf("telemetry: failed to write sample for sensor %d: %v", runtimeID, err)
	}
}

// CommandBridge drains command requests off a Redis list (BRPOP) and
// feeds them into a core as CMD frames. Each list entry is
// "cmd_id:hexpayload" (hexpayload and the colon may be omitted for a
// zero-length payload).
type CommandBridge struct {
	redis   CommandSource
	listKey string
	onRX    func([]byte)
	clock   func() uint32
	seq     uint32
	stopCh  chan struct{}
}

// NewCommandBridge builds a bridge that pops commands off listKey and
// delivers them to onRX (typically a core.Core's OnRX method) as CMD
// frames timestamped by clock.
func NewCommandBridge(r CommandSource, listKey string, onRX func([]byte), clock func() uint32) *CommandBridge {
	return &CommandBridge{
		redis:   r,
		listKey: listKey,
		onRX:    onRX,
		clock:   clock,
		stopCh:  make(chan struct{}),
	}
}

// Run blocks, draining commands until Stop is called. It is meant to run
// in its own goroutine.
func (b *CommandBridge) Run() {
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		result, err := b.redis.BRPop(0, b.listKey)
		if err != nil {
			log.Printf("telemetry: command bridge BRPOP on %s: %v", b.listKey, err)
			time.Sleep(time.Second)
			continue
		}
		if result == nil {
			continue
		}

		b.deliver(result[1])
	}
}

// Stop halts Run at its next BRPOP wakeup.
func (b *CommandBridge) Stop() {
	close(b.stopCh)
}

func (b *CommandBridge) deliver(raw string) {
	cmdID, payload, err := parseCommand(raw)
	if err != nil {
		log.Printf("telemetry: discarding malformed command %q: %v", raw, err)
		return
	}

	var buf [frame.MaxBytes]byte
	n := frame.Write(buf[:], frame.TypeCMD, cmdID, payload, b.seq, b.clock())
	if n == 0 {
		log.Printf("telemetry: command %q does not fit in one frame", raw)
		return
	}
	b.seq++
	b.onRX(buf[:n])
}

func parseCommand(raw string) (cmdID uint8, payload []byte, err error) {
	parts := strings.SplitN(raw, ":", 2)
	id, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid cmd_id: %w", err)
	}
	if len(parts) == 1 || parts[1] == "" {
		return uint8(id), nil, nil
	}
	payload, err = hex.DecodeString(parts[1])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return uint8(id), payload, nil
}
