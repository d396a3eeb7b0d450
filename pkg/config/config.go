// Package config decodes the sensor registry the wiring layer needs before
// it can build adapters and register them with the core. This belongs
// entirely outside the core: the core only ever sees a sensor.Adapter and
// a default period, never how either was chosen.
package config

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// SensorSpec describes one sensor entry in the registry file. RuntimeID is
// not stored here: it is assigned by the registrar in registration order
// (the same order entries appear in the decoded slice).
type SensorSpec struct {
	TypeID          uint8  `cbor:"type_id"`
	DefaultPeriodMs uint16 `cbor:"default_period_ms"`
	Kind            string `cbor:"kind"`
	I2CBus          string `cbor:"i2c_bus"`
	I2CAddress      uint8  `cbor:"i2c_address"`
}

// SensorConfig is the decoded form of a sensor registry file: an ordered
// list of sensors to register at startup.
type SensorConfig struct {
	Sensors []SensorSpec `cbor:"sensors"`
}

// Load reads and CBOR-decodes a sensor registry file from path.
func Load(path string) (SensorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SensorConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode CBOR-decodes raw sensor registry bytes.
func Decode(data []byte) (SensorConfig, error) {
	var cfg SensorConfig
	if err := cbor.Unmarshal(data, &cfg); err != nil {
		return SensorConfig{}, fmt.Errorf("config: decode sensor registry: %w", err)
	}
	return cfg, nil
}
