package crc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brahimab8/powerscope-core/pkg/crc"
)

func TestChecksum16_EmptyReturnsSeed(t *testing.T) {
	require.Equal(t, crc.Seed, crc.Checksum16(nil, crc.Seed))
	require.Equal(t, uint16(0x1234), crc.Checksum16([]byte{}, 0x1234))
}

func TestChecksum16_KnownVector(t *testing.T) {
	// "123456789" is the standard CRC catalogue check string; CRC-16/CCITT-FALSE
	// over it with init 0xFFFF is the published check value 0x29B1.
	got := crc.Checksum16([]byte("123456789"), crc.Seed)
	require.Equal(t, uint16(0x29B1), got)
}

func TestChecksum16_IncrementalComposition(t *testing.T) {
	a := []byte{0x01, 0x02, 0x03, 0xAA}
	b := []byte{0xFF, 0x00, 0x10}

	whole := crc.Checksum16(append(append([]byte{}, a...), b...), crc.Seed)

	seeded := crc.Update16(crc.Seed, a)
	split := crc.Update16(seeded, b)

	require.Equal(t, whole, split)
}
