package dispatch

import (
	"encoding/binary"

	"github.com/brahimab8/powerscope-core/pkg/sensor"
)

// Registry is the narrow view of core state the default command handlers
// need: the registered sensors plus the device-configuration bounds and
// identity values referenced by GET_PERIOD/SET_PERIOD/GET_VERSION/
// GET_UPTIME. It is implemented by the streaming core and passed in at
// table-construction time so this package never depends on core.
type Registry interface {
	Sensors() []*sensor.State
	FindSensor(runtimeID uint8) *sensor.State
	MinPeriodMs() uint16
	MaxPeriodMs() uint16
	BuildID() uint32
	NowMs() uint32
}

// Opcodes for the reference command set (spec.md §4.8, plus the §9/SPEC_FULL
// supplements: READ_SENSOR, GET_VERSION, GET_UPTIME).
const (
	OpStartStream = 0x01
	OpStopStream  = 0x02
	OpSetPeriod   = 0x03
	OpGetPeriod   = 0x04
	OpPing        = 0x05
	OpGetSensors  = 0x06
	OpReadSensor  = 0x07
	OpGetVersion  = 0x08
	OpGetUptime   = 0x09
)

func nack(code ErrorCode, resp []byte) (int, bool) {
	if len(resp) < 1 {
		return 0, false
	}
	resp[0] = byte(code)
	return 1, false
}

// DefaultTable builds the reference dispatch table from spec.md §4.8 plus
// SPEC_FULL.md §4.10/§4.11, bound to reg. A target may register additional
// opcodes on the returned table, or build its own from scratch.
func DefaultTable(reg Registry) *Table {
	t := &Table{}

	t.Register(OpPing, NoArgParser, func(_ interface{}, resp []byte) (int, bool) {
		return 0, true
	})

	t.Register(OpGetSensors, NoArgParser, func(_ interface{}, resp []byte) (int, bool) {
		sensors := reg.Sensors()
		need := 2 * len(sensors)
		if len(resp) < need {
			return nack(ErrOverflow, resp)
		}
		for i, s := range sensors {
			resp[2*i] = s.RuntimeID
			resp[2*i+1] = s.Adapter.TypeID()
		}
		return need, true
	})

	t.Register(OpStartStream, SensorIDParser, func(d interface{}, resp []byte) (int, bool) {
		args := d.(SensorIDArgs)
		s := reg.FindSensor(args.SensorID)
		if s == nil {
			return nack(ErrInvalidValue, resp)
		}
		s.StartStreaming()
		return 0, true
	})

	t.Register(OpStopStream, SensorIDParser, func(d interface{}, resp []byte) (int, bool) {
		args := d.(SensorIDArgs)
		s := reg.FindSensor(args.SensorID)
		if s == nil {
			return nack(ErrInvalidValue, resp)
		}
		s.StopStreaming()
		return 0, true
	})

	t.Register(OpSetPeriod, SetPeriodParser, func(d interface{}, resp []byte) (int, bool) {
		args := d.(SetPeriodArgs)
		s := reg.FindSensor(args.SensorID)
		if s == nil {
			return nack(ErrInvalidValue, resp)
		}
		if args.PeriodMs < reg.MinPeriodMs() || args.PeriodMs > reg.MaxPeriodMs() {
			return nack(ErrInvalidValue, resp)
		}
		s.PeriodMs = args.PeriodMs
		return 0, true
	})

	t.Register(OpGetPeriod, SensorIDParser, func(d interface{}, resp []byte) (int, bool) {
		args := d.(SensorIDArgs)
		s := reg.FindSensor(args.SensorID)
		if s == nil {
			return nack(ErrInvalidValue, resp)
		}
		if len(resp) < 4 {
			return nack(ErrOverflow, resp)
		}
		binary.LittleEndian.PutUint32(resp[:4], uint32(s.PeriodMs))
		return 4, true
	})

	t.Register(OpReadSensor, SensorIDParser, func(d interface{}, resp []byte) (int, bool) {
		args := d.(SensorIDArgs)
		s := reg.FindSensor(args.SensorID)
		if s == nil {
			return nack(ErrInvalidValue, resp)
		}
		if s.Streaming {
			return nack(ErrSensorBusy, resp)
		}
		n, ok := s.ReadOnDemand(resp)
		if !ok {
			return nack(ErrInternal, resp)
		}
		return n, true
	})

	t.Register(OpGetVersion, NoArgParser, func(_ interface{}, resp []byte) (int, bool) {
		if len(resp) < 5 {
			return nack(ErrOverflow, resp)
		}
		resp[0] = 0 // protocol version, matches frame.Ver
		binary.LittleEndian.PutUint32(resp[1:5], reg.BuildID())
		return 5, true
	})

	t.Register(OpGetUptime, NoArgParser, func(_ interface{}, resp []byte) (int, bool) {
		if len(resp) < 4 {
			return nack(ErrOverflow, resp)
		}
		binary.LittleEndian.PutUint32(resp[:4], reg.NowMs())
		return 4, true
	})

	return t
}
