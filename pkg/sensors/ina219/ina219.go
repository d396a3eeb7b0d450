// Package ina219 adapts periph.io's INA219 current/voltage monitor driver
// to sensor.Adapter. The INA219's Sense() call is a short, bounded I²C
// transaction, so Start completes synchronously (Ready) and Poll is never
// actually reached in practice; it still exists to satisfy the contract
// for any adapter whose acquisition genuinely spans multiple ticks.
package ina219

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/devices/ina219"

	"github.com/brahimab8/powerscope-core/pkg/sensor"
)

// TypeID identifies this sensor kind on the wire (GET_SENSORS, STREAM
// frames). It is arbitrary but stable for this repository's default
// registry.
const TypeID uint8 = 0x01

// sampleSize is 12 bytes: three int32le fields (microvolts, microamps,
// microwatts).
const sampleSize = 12

// Adapter wraps a periph.io Ina219 device. It is not safe for concurrent
// use; the streaming core only ever calls it from the tick goroutine.
type Adapter struct {
	dev *ina219.Ina219

	last    ina219.PowerMonitor
	pending bool
	err     error
}

// Options mirrors ina219.Option so callers configuring sense resistor,
// address, or max current don't need to import the upstream package
// directly.
type Options = ina219.Option

var (
	Address       = ina219.Address
	SenseResistor = ina219.SenseResistor
	MaxCurrent    = ina219.MaxCurrent
)

// New opens an INA219 on the given I²C bus.
func New(bus i2c.Bus, opts ...Options) (*Adapter, error) {
	dev, err := ina219.New(bus, opts...)
	if err != nil {
		return nil, fmt.Errorf("ina219: open device: %w", err)
	}
	return &Adapter{dev: dev}, nil
}

// Start performs the I²C read synchronously; a real device answers within
// the transaction, so this adapter never reports Busy.
func (a *Adapter) Start() sensor.Status {
	pm, err := a.dev.Sense()
	if err != nil {
		a.err = err
		a.pending = false
		return sensor.StatusError
	}
	a.last = pm
	a.pending = true
	a.err = nil
	return sensor.StatusReady
}

// Poll is never reached by a correctly behaving caller (Start always
// resolves to Ready or Error) but is implemented for contract completeness.
func (a *Adapter) Poll() sensor.Status {
	if a.err != nil {
		return sensor.StatusError
	}
	if a.pending {
		return sensor.StatusReady
	}
	return a.Start()
}

// Fill encodes the last sensed reading as three little-endian int32 values:
// microvolts, microamps, microwatts.
func (a *Adapter) Fill(dst []byte, max int) int {
	if !a.pending || max < sampleSize {
		return 0
	}
	uV := int32(a.last.Voltage / physic.MicroVolt)
	uA := int32(a.last.Current / physic.MicroAmpere)
	uW := int32(a.last.Power / physic.MicroWatt)

	binary.LittleEndian.PutUint32(dst[0:4], uint32(uV))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(uA))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(uW))

	a.pending = false
	return sampleSize
}

func (a *Adapter) SampleSize() int { return sampleSize }
func (a *Adapter) TypeID() uint8   { return TypeID }
