// Package core implements the streaming core's top-level scheduler: RX
// framing and resync, CMD dispatch glue, per-sensor advancement, and TX
// pumping, tied together behind a single Tick/OnRX entrypoint.
package core

import (
	"encoding/binary"

	"github.com/brahimab8/powerscope-core/pkg/buffer"
	"github.com/brahimab8/powerscope-core/pkg/dispatch"
	"github.com/brahimab8/powerscope-core/pkg/frame"
	"github.com/brahimab8/powerscope-core/pkg/ring"
	"github.com/brahimab8/powerscope-core/pkg/sensor"
	"github.com/brahimab8/powerscope-core/pkg/transport"
	"github.com/brahimab8/powerscope-core/pkg/txengine"
)

// Clock returns the current time in milliseconds, wrap-safe against uint32
// overflow per the tick's subtraction arithmetic.
type Clock func() uint32

// Config bounds and identifies a Core at construction time.
type Config struct {
	// MinPeriodMs and MaxPeriodMs bound SET_PERIOD (spec default 1..10000).
	MinPeriodMs uint16
	MaxPeriodMs uint16
	// BuildID is surfaced by GET_VERSION; callers may leave it at 0.
	BuildID uint32
	// StreamMaxPayload caps a single STREAM frame's payload; 0 disables the
	// check (frame.Write's own MaxPayload clamp still applies).
	StreamMaxPayload uint16
}

// Core is the streaming core: RX ring, TX engine, dispatch table, and the
// registered sensors. It has no internal goroutines; Tick and OnRX are the
// only entrypoints, and only OnRX is safe to call concurrently with Tick.
type Core struct {
	rx  *ring.Ring
	tx  *txengine.TX
	tbl *dispatch.Table

	transport transport.Transport
	clock     Clock

	sensors []*sensor.State

	cfg Config
}

// New builds a Core over rxMem (RX ring backing storage, power-of-two
// length) and streamMem (TX stream ring backing storage, power-of-two
// length), wired to t and clock. The dispatch table defaults to
// dispatch.DefaultTable(core); callers needing a custom table should build
// one via dispatch.DefaultTable or from scratch and assign it with
// SetTable after construction.
func New(rxMem, streamMem []byte, t transport.Transport, clock Clock, cfg Config) *Core {
	c := &Core{
		rx:        ring.New(rxMem),
		transport: t,
		clock:     clock,
		cfg:       cfg,
	}
	c.tx = txengine.New(buffer.NewRing(streamMem), t, cfg.StreamMaxPayload)
	c.tbl = dispatch.DefaultTable(c)
	t.SetRXHandler(c.OnRX)
	return c
}

// SetTable replaces the dispatch table, e.g. to register additional or
// overriding opcodes. It is not safe to call concurrently with Tick.
func (c *Core) SetTable(tbl *dispatch.Table) { c.tbl = tbl }

// RegisterSensor adds a sensor, assigning it the next runtime_id in
// registration order (0-based), and returns the resulting state so the
// wiring layer can hand it to a Redis bridge, demo UI, etc. defaultPeriodMs
// is the sensor's initial period before any SET_PERIOD.
func (c *Core) RegisterSensor(adapter sensor.Adapter, defaultPeriodMs uint16) *sensor.State {
	runtimeID := uint8(len(c.sensors))
	s := sensor.NewState(runtimeID, adapter, defaultPeriodMs, frame.MaxPayload)
	c.sensors = append(c.sensors, s)
	return s
}

// OnRX appends data to the RX ring, dropping trailing bytes (drop-newest)
// if it doesn't all fit. It is the transport's RX callback and may run
// concurrently with Tick from a different goroutine; the RX ring's
// single-producer/single-consumer discipline is the only synchronization
// this requires.
func (c *Core) OnRX(data []byte) {
	n := len(data)
	if n == 0 {
		return
	}
	if free := c.rx.Free(); n > free {
		n = free
	}
	if n > 0 {
		c.rx.TryWrite(data[:n])
	}
}

// Tick runs exactly one scheduling pass: RX processing and CMD dispatch,
// one state-machine step for every ready-and-streaming sensor, then a
// single TX pump. It must only be called from one goroutine at a time.
func (c *Core) Tick() {
	c.processRX()
	now := c.clock()
	for _, s := range c.sensors {
		if s.Ready && s.Streaming {
			s.Advance(now, c.tx)
		}
	}
	c.tx.Pump()
}

// processRX drains complete frames from the RX ring, routing CMD frames to
// the dispatcher and discarding everything else (the core never processes
// device-to-host frame types arriving from the host). A corrupt or
// undecodable head is resynced one byte at a time; an incomplete frame
// simply waits for more bytes on the next tick.
func (c *Core) processRX() {
	var scratch [frame.MaxBytes]byte
	for {
		used := c.rx.Used()
		if used < frame.HdrLen+frame.CRCLen {
			return
		}
		n := used
		if n > frame.MaxBytes {
			n = frame.MaxBytes
		}
		got := c.rx.CopyFromTail(scratch[:], n)

		magic := binary.LittleEndian.Uint16(scratch[0:2])
		ver := scratch[3]
		declaredLen := binary.LittleEndian.Uint16(scratch[4:6])
		if magic != frame.Magic || ver != frame.Ver || declaredLen > frame.MaxPayload {
			c.rx.Pop(1)
			continue
		}

		total := frame.HdrLen + int(declaredLen) + frame.CRCLen
		if got < total {
			// Not enough bytes have arrived yet; wait for the next tick.
			// (got < total only when used < total, since n already caps at
			// MaxBytes >= total.)
			return
		}

		consumed, hdr, payload := frame.Parse(scratch[:total])
		if consumed == 0 {
			// Magic/version/length looked right but the CRC didn't verify:
			// a desynced or corrupted head. Drop one byte and retry.
			c.rx.Pop(1)
			continue
		}

		if hdr.Type == frame.TypeCMD {
			c.handleCMD(hdr, payload)
		}
		c.rx.Pop(consumed)
	}
}

// handleCMD runs the CMD handling glue from the dispatcher section: an
// oversized payload is rejected before the dispatcher ever sees it, and a
// false return with no handler-written bytes gets a default INVALID_CMD
// error byte.
func (c *Core) handleCMD(hdr frame.Header, payload []byte) {
	if len(payload) > frame.MaxPayload {
		c.tx.SendResponse(frame.TypeNACK, hdr.CmdID, hdr.Seq, hdr.TsMs, []byte{byte(dispatch.ErrInvalidLen)})
		return
	}

	var resp [frame.MaxPayload]byte
	n, ok := c.tbl.Dispatch(hdr.CmdID, payload, resp[:])
	if ok {
		c.tx.SendResponse(frame.TypeACK, hdr.CmdID, hdr.Seq, hdr.TsMs, resp[:n])
		return
	}
	if n == 0 {
		resp[0] = byte(dispatch.ErrInvalidCmd)
		n = 1
	}
	c.tx.SendResponse(frame.TypeNACK, hdr.CmdID, hdr.Seq, hdr.TsMs, resp[:n])
}

// Sensors, FindSensor, MinPeriodMs, MaxPeriodMs, BuildID, and NowMs
// implement dispatch.Registry.

func (c *Core) Sensors() []*sensor.State { return c.sensors }

func (c *Core) FindSensor(runtimeID uint8) *sensor.State {
	for _, s := range c.sensors {
		if s.RuntimeID == runtimeID {
			return s
		}
	}
	return nil
}

func (c *Core) MinPeriodMs() uint16 { return c.cfg.MinPeriodMs }
func (c *Core) MaxPeriodMs() uint16 { return c.cfg.MaxPeriodMs }
func (c *Core) BuildID() uint32     { return c.cfg.BuildID }
func (c *Core) NowMs() uint32       { return c.clock() }
