// Package sensor defines the cooperative sensor adapter contract and the
// per-sensor streaming state machine that drives it from the tick loop.
package sensor

// Status is the cooperative return code shared by Start and Poll.
type Status uint8

const (
	StatusReady Status = iota
	StatusBusy
	StatusError
)

// Adapter is the contract a concrete sensor driver implements. Start may
// complete synchronously (Ready) or defer to repeated Poll calls (Busy).
// Only Error is terminal for the current sample; Busy may be returned any
// number of times from either Start or Poll. Implementations own their own
// context (bus handle, register state, ...) as receiver state; the core
// never reaches into it.
type Adapter interface {
	// Start begins acquisition of one sample.
	Start() Status
	// Poll continues an acquisition previously started with Start.
	Poll() Status
	// Fill copies the acquired sample into dst (up to max bytes) and
	// returns the number of bytes copied. It returns 0 if no sample is
	// available (e.g. called outside of a Ready transition).
	Fill(dst []byte, max int) int
	// SampleSize is the adapter's native sample size in bytes.
	SampleSize() int
	// TypeID identifies the sensor kind, independent of instance.
	TypeID() uint8
}
