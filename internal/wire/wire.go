package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

const (
	version byte = 1

	flagZstd byte = 1 << 0

	sumLen = 8
)

var (
	ErrCorrupt  = errors.New("propwire: corrupt cache entry")
	ErrChecksum = errors.New("propwire: cache entry checksum mismatch")
	magic4      = [...]byte{'P', 'R', 'W', 'P'}
)

// Frame is one cached payload plus the metadata needed to decide whether the
// current process may still read it.
type Frame struct {
	Registry   uint8  // tag registry version the payload was encoded with
	Transport  string // transport name, e.g. "json"
	Gen        uint64 // generation observed when the entry was written
	Compressed bool   // payload is zstd-compressed
	Payload    []byte // bytes as stored
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// checksum is the first 8 bytes of the BLAKE3 digest of the stored payload.
func checksum(p []byte) [sumLen]byte {
	full := blake3.Sum256(p)
	var out [sumLen]byte
	copy(out[:], full[:sumLen])
	return out
}

// Encode lays out:
//
//	magic(4) | ver(1) | registry(1) | flags(1) | tlen(1) | transport(tlen) |
//	gen(u64 be) | sum(8) | vlen(u32 be) | payload(vlen)
func Encode(f Frame) ([]byte, error) {
	if l := len(f.Transport); l == 0 || l > 0xFF {
		return nil, fmt.Errorf("propwire: invalid transport name length %d", l)
	}

	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 1 + 1 + len(f.Transport) + 8 + sumLen + 4 + len(f.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(f.Registry)
	var flags byte
	if f.Compressed {
		flags |= flagZstd
	}
	buf.WriteByte(flags)
	buf.WriteByte(byte(len(f.Transport)))
	buf.WriteString(f.Transport)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], f.Gen)
	buf.Write(u8[:])

	sum := checksum(f.Payload)
	buf.Write(sum[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(f.Payload)))
	buf.Write(u4[:])

	buf.Write(f.Payload)
	return buf.Bytes(), nil
}

// Decode parses a frame. The returned payload aliases b.
func Decode(b []byte) (Frame, error) {
	const fixed = 4 + 1 + 1 + 1 + 1
	if len(b) < fixed || !hasMagic(b) || b[4] != version {
		return Frame{}, ErrCorrupt
	}
	f := Frame{Registry: b[5]}
	flags := b[6]
	if flags&^flagZstd != 0 {
		return Frame{}, ErrCorrupt
	}
	f.Compressed = flags&flagZstd != 0

	off := fixed
	tlen := int(b[7])
	if tlen == 0 || tlen > len(b)-off {
		return Frame{}, ErrCorrupt
	}
	f.Transport = string(b[off : off+tlen])
	off += tlen

	// gen + sum + vlen
	if off+8+sumLen+4 > len(b) {
		return Frame{}, ErrCorrupt
	}
	f.Gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	var sum [sumLen]byte
	copy(sum[:], b[off:off+sumLen])
	off += sumLen

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact length: no trailing bytes
		return Frame{}, ErrCorrupt
	}
	f.Payload = b[off : off+vlen]

	if checksum(f.Payload) != sum {
		return Frame{}, ErrChecksum
	}
	return f, nil
}
