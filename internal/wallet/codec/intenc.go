package codec

import "encoding/binary"

// Integer encodings shared by the chain codecs: Bitcoin variable-length
// integers, fixed-width little-endian integers and Solana's compact-u16.

// AppendVarint appends a Bitcoin CompactSize encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(dst, byte(v))
	case v <= 0xffff:
		dst = append(dst, 0xfd)
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case v <= 0xffffffff:
		dst = append(dst, 0xfe)
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		dst = append(dst, 0xff)
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}

// AppendUint32LE appends v as 4 little-endian bytes.
func AppendUint32LE(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendUint64LE appends v as 8 little-endian bytes.
func AppendUint64LE(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// AppendCompactU16 appends Solana's compact-u16 encoding (7 bits per byte,
// high bit set on continuation bytes).
func AppendCompactU16(dst []byte, v uint16) []byte {
	for {
		if v < 0x80 {
			return append(dst, byte(v))
		}
		dst = append(dst, byte(v&0x7f)|0x80)
		v >>= 7
	}
}
