// Package frame implements the wire framing used by the streaming core:
// a 16-byte little-endian header, an opaque payload, and a CRC-16 trailer.
package frame

import (
	"encoding/binary"

	"github.com/brahimab8/powerscope-core/pkg/crc"
)

// Type identifies the kind of frame carried on the wire.
type Type uint8

const (
	TypeStream Type = 0
	TypeCMD    Type = 1
	TypeACK    Type = 2
	TypeNACK   Type = 3
)

const (
	Magic = uint16(0x5AA5)
	Ver   = uint8(0)

	// HdrLen is the fixed, on-the-wire header size in bytes.
	HdrLen = 16
	// CRCLen is the trailer size in bytes.
	CRCLen = 2
	// MaxPayload is the largest payload a single frame may carry.
	MaxPayload = 46
	// MaxBytes is the largest a complete frame (header+payload+crc) may be;
	// it must fit in a single transport write.
	MaxBytes = HdrLen + MaxPayload + CRCLen // 64
)

// Header is the decoded, fixed-size frame header.
type Header struct {
	Type  Type
	Ver   uint8
	Len   uint16
	CmdID uint8
	Seq   uint32
	TsMs  uint32
}

// Write serializes a frame (header, payload, CRC trailer) into out and
// returns the number of bytes written, or 0 if out is nil or too small for
// the frame. A payload longer than MaxPayload is clamped: only its first
// MaxPayload bytes are written.
func Write(out []byte, typ Type, cmdID uint8, payload []byte, seq, tsMs uint32) int {
	if out == nil {
		return 0
	}
	plen := len(payload)
	if plen > MaxPayload {
		plen = MaxPayload
	}
	total := HdrLen + plen + CRCLen
	if len(out) < total {
		return 0
	}

	binary.LittleEndian.PutUint16(out[0:2], Magic)
	out[2] = byte(typ)
	out[3] = Ver
	binary.LittleEndian.PutUint16(out[4:6], uint16(plen))
	out[6] = cmdID
	out[7] = 0 // rsv
	binary.LittleEndian.PutUint32(out[8:12], seq)
	binary.LittleEndian.PutUint32(out[12:16], tsMs)
	if plen > 0 {
		copy(out[HdrLen:HdrLen+plen], payload[:plen])
	}

	sum := crc.Checksum16(out[:HdrLen+plen], crc.Seed)
	binary.LittleEndian.PutUint16(out[HdrLen+plen:HdrLen+plen+CRCLen], sum)

	return total
}

// Parse decodes one frame from the front of buf. It returns the number of
// bytes consumed (the full frame length) and the decoded header and payload
// slice (which aliases buf — callers must copy it before buf is reused or
// mutated). It returns 0 on any framing/CRC failure, leaving buf untouched.
func Parse(buf []byte) (consumed int, hdr Header, payload []byte) {
	if buf == nil || len(buf) < HdrLen+CRCLen {
		return 0, Header{}, nil
	}
	if binary.LittleEndian.Uint16(buf[0:2]) != Magic {
		return 0, Header{}, nil
	}
	ver := buf[3]
	if ver != Ver {
		return 0, Header{}, nil
	}
	declaredLen := binary.LittleEndian.Uint16(buf[4:6])
	if declaredLen > MaxPayload {
		return 0, Header{}, nil
	}
	total := HdrLen + int(declaredLen) + CRCLen
	if len(buf) < total {
		return 0, Header{}, nil
	}

	wantCRC := binary.LittleEndian.Uint16(buf[HdrLen+int(declaredLen) : total])
	gotCRC := crc.Checksum16(buf[:HdrLen+int(declaredLen)], crc.Seed)
	if wantCRC != gotCRC {
		return 0, Header{}, nil
	}

	hdr = Header{
		Type:  Type(buf[2]),
		Ver:   ver,
		Len:   declaredLen,
		CmdID: buf[6],
		Seq:   binary.LittleEndian.Uint32(buf[8:12]),
		TsMs:  binary.LittleEndian.Uint32(buf[12:16]),
	}
	if declaredLen > 0 {
		payload = buf[HdrLen : HdrLen+int(declaredLen)]
	}
	return total, hdr, payload
}
