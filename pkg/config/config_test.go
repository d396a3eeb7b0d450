package config_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/brahimab8/powerscope-core/pkg/config"
)

func TestDecode_RoundTrips(t *testing.T) {
	want := config.SensorConfig{
		Sensors: []config.SensorSpec{
			{TypeID: 0xFE, DefaultPeriodMs: 500, Kind: "simulated"},
			{TypeID: 0x01, DefaultPeriodMs: 1000, Kind: "ina219", I2CBus: "1", I2CAddress: 0x40},
		},
	}
	data, err := cbor.Marshal(want)
	require.NoError(t, err)

	got, err := config.Decode(data)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := config.Decode([]byte{0xFF, 0xFF, 0xFF})
	require.Error(t, err)
}
