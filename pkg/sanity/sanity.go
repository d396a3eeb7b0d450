// Package sanity holds the fixed sizing relationships between the frame
// layout, the buffers that carry frames, and the transport that moves
// them. The ones that are true Go constants are asserted once at package
// init; the ones that depend on a particular deployment's ring sizes,
// transport limit, and period bounds are exposed as CheckDeployment for the
// wiring layer to call before it builds a core.
package sanity

import (
	"fmt"

	"github.com/brahimab8/powerscope-core/pkg/frame"
	"github.com/brahimab8/powerscope-core/pkg/sensor"
)

func init() {
	if frame.HdrLen != 16 {
		panic("sanity: frame header must be exactly 16 bytes")
	}
	if sensor.MaxPayload > frame.MaxPayload {
		panic("sanity: sensor.MaxPayload exceeds frame.MaxPayload")
	}
}

// CheckDeployment validates the sizing relationships a particular target
// determines at runtime: RX/stream ring capacities, the transport's
// largest safe single write, and the minimum allowed streaming period.
func CheckDeployment(rxRingCap, streamRingCap, transportMaxWrite int, minPeriodMs uint16) error {
	if frame.MaxBytes > rxRingCap-1 {
		return fmt.Errorf("sanity: frame.MaxBytes (%d) exceeds RX ring usable capacity (%d)", frame.MaxBytes, rxRingCap-1)
	}
	if frame.MaxBytes > streamRingCap-1 {
		return fmt.Errorf("sanity: frame.MaxBytes (%d) exceeds stream ring usable capacity (%d)", frame.MaxBytes, streamRingCap-1)
	}
	if frame.MaxBytes > transportMaxWrite {
		return fmt.Errorf("sanity: frame.MaxBytes (%d) exceeds transport max write (%d)", frame.MaxBytes, transportMaxWrite)
	}
	if minPeriodMs == 0 {
		return fmt.Errorf("sanity: MinPeriodMs must be > 0")
	}
	return nil
}
