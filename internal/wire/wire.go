// Package wire frames snapshot payloads for byte-backed stores. The header
// carries magic bytes and a format version so shared or persistent backends
// can detect foreign writes, truncation, and format drift; callers treat
// ErrCorrupt as a miss and drop the entry.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("snapmut: corrupt entry")
	magic4     = [...]byte{'S', 'N', 'A', 'P'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | vlen(u32 be) | payload(vlen)
func Encode(payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode validates the frame and returns the payload as a subslice of b
// (zero-copy). The declared length must consume the buffer exactly;
// truncated or trailing bytes are rejected as corruption.
func Decode(b []byte) ([]byte, error) {
	const hdr = 4 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return nil, ErrCorrupt
	}

	vlen := int(binary.BigEndian.Uint32(b[5:9]))
	if vlen < 0 || vlen != len(b)-hdr {
		return nil, ErrCorrupt
	}

	return b[hdr : hdr+vlen], nil
}
