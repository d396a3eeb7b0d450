package main

import (
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/brahimab8/powerscope-core/pkg/config"
	"github.com/brahimab8/powerscope-core/pkg/sensor"
	"github.com/brahimab8/powerscope-core/pkg/sensors/ina219"
	"github.com/brahimab8/powerscope-core/pkg/sensors/simulated"
)

// buildAdapters turns a decoded sensor registry into concrete sensor.Adapter
// values in registration order, opening each distinct I²C bus an ina219
// entry names at most once. It returns the buses it opened so the caller
// can close them on shutdown; on error, it still returns whatever buses
// were opened before the failure.
func buildAdapters(specs []config.SensorSpec) ([]sensor.Adapter, []i2c.BusCloser, error) {
	var adapters []sensor.Adapter
	var buses []i2c.BusCloser
	opened := make(map[string]i2c.Bus)
	hostReady := false

	for _, spec := range specs {
		switch spec.Kind {
		case "simulated", "":
			adapters = append(adapters, &simulated.Adapter{})

		case "ina219":
			bus, ok := opened[spec.I2CBus]
			if !ok {
				if !hostReady {
					if _, err := host.Init(); err != nil {
						return adapters, buses, fmt.Errorf("registry: host init: %w", err)
					}
					hostReady = true
				}
				b, err := i2creg.Open(spec.I2CBus)
				if err != nil {
					return adapters, buses, fmt.Errorf("registry: open i2c bus %q: %w", spec.I2CBus, err)
				}
				bus = b
				opened[spec.I2CBus] = b
				buses = append(buses, b)
			}

			var opts []ina219.Options
			if spec.I2CAddress != 0 {
				opts = append(opts, ina219.Address(uint16(spec.I2CAddress)))
			}
			a, err := ina219.New(bus, opts...)
			if err != nil {
				return adapters, buses, fmt.Errorf("registry: build ina219 adapter: %w", err)
			}
			adapters = append(adapters, a)

		default:
			return adapters, buses, fmt.Errorf("registry: unknown sensor kind %q", spec.Kind)
		}
	}
	return adapters, buses, nil
}
