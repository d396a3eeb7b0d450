// Package simulated implements a deterministic synthetic sensor.Adapter,
// used by tests and by the demo binary when no real hardware is attached.
package simulated

import (
	"encoding/binary"
	"math"

	"github.com/brahimab8/powerscope-core/pkg/sensor"
)

// TypeID identifies the simulated sensor kind on the wire.
const TypeID uint8 = 0xFE

const sampleSize = 4

// Adapter produces a synthetic sine-wave sample in millivolts, advancing
// one step per Start call. BusyFor lets tests exercise the SENSOR_POLL
// path: Start/Poll return Busy BusyFor times before settling to Ready.
type Adapter struct {
	BusyFor int

	step      int
	busyLeft  int
	lastValue int32
}

func (a *Adapter) Start() sensor.Status {
	a.busyLeft = a.BusyFor
	if a.busyLeft > 0 {
		a.busyLeft--
		return sensor.StatusBusy
	}
	a.settle()
	return sensor.StatusReady
}

func (a *Adapter) Poll() sensor.Status {
	if a.busyLeft > 0 {
		a.busyLeft--
		return sensor.StatusBusy
	}
	a.settle()
	return sensor.StatusReady
}

func (a *Adapter) settle() {
	a.lastValue = int32(1000 + 500*math.Sin(float64(a.step)/10))
	a.step++
}

func (a *Adapter) Fill(dst []byte, max int) int {
	if max < sampleSize {
		return 0
	}
	binary.LittleEndian.PutUint32(dst[:sampleSize], uint32(a.lastValue))
	return sampleSize
}

func (a *Adapter) SampleSize() int { return sampleSize }
func (a *Adapter) TypeID() uint8   { return TypeID }
