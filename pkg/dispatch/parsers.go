package dispatch

import "encoding/binary"

// NoArgParser succeeds iff the payload is empty.
func NoArgParser(payload []byte) (interface{}, bool) {
	if len(payload) != 0 {
		return nil, false
	}
	return nil, true
}

// SensorIDArgs is the decoded form of a single-byte sensor_id payload, used
// by START_STREAM, STOP_STREAM, GET_PERIOD, and READ_SENSOR.
type SensorIDArgs struct {
	SensorID uint8
}

// SensorIDParser requires exactly 1 byte: sensor_id.
func SensorIDParser(payload []byte) (interface{}, bool) {
	if len(payload) != 1 {
		return nil, false
	}
	return SensorIDArgs{SensorID: payload[0]}, true
}

// SetPeriodArgs is the decoded form of SET_PERIOD's payload.
type SetPeriodArgs struct {
	SensorID  uint8
	PeriodMs  uint16
}

// SetPeriodParser requires exactly 3 bytes: sensor_id:u8, period_ms:u16le.
func SetPeriodParser(payload []byte) (interface{}, bool) {
	if len(payload) != 3 {
		return nil, false
	}
	return SetPeriodArgs{
		SensorID: payload[0],
		PeriodMs: binary.LittleEndian.Uint16(payload[1:3]),
	}, true
}
