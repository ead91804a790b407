package codec

import "math/big"

// RLP (Recursive Length Prefix) encoding as used by EVM transactions.
// Only encoding is implemented; the signer never needs to decode RLP.

const (
	rlpShortStringOffset = 0x80
	rlpShortListOffset   = 0xc0
	rlpShortLengthLimit  = 56
)

// EncodeRLPBytes encodes a byte string per the RLP string rule: a single byte
// below 0x80 encodes as itself, short strings get a one-byte prefix, longer
// strings a length-of-length prefix.
func EncodeRLPBytes(data []byte) []byte {
	if len(data) == 1 && data[0] < rlpShortStringOffset {
		return []byte{data[0]}
	}

	return append(rlpLengthPrefix(len(data), rlpShortStringOffset), data...)
}

// EncodeRLPUint64 encodes an unsigned integer as a big-endian byte string with
// leading zero bytes stripped. Zero encodes as the empty string (0x80).
func EncodeRLPUint64(value uint64) []byte {
	return EncodeRLPBytes(trimUint64(value))
}

// EncodeRLPBigInt encodes a big integer the same way as EncodeRLPUint64.
// A nil value is treated as zero.
func EncodeRLPBigInt(value *big.Int) []byte {
	if value == nil || value.Sign() == 0 {
		return []byte{rlpShortStringOffset}
	}

	return EncodeRLPBytes(value.Bytes())
}

// EncodeRLPList encodes a list from already-RLP-encoded items.
func EncodeRLPList(encodedItems ...[]byte) []byte {
	payloadLen := 0
	for _, item := range encodedItems {
		payloadLen += len(item)
	}

	out := rlpLengthPrefix(payloadLen, rlpShortListOffset)
	for _, item := range encodedItems {
		out = append(out, item...)
	}

	return out
}

// rlpLengthPrefix builds the length prefix for a string (offset 0x80) or a
// list (offset 0xc0) payload of the given length.
func rlpLengthPrefix(length int, offset byte) []byte {
	if length < rlpShortLengthLimit {
		return []byte{offset + byte(length)}
	}

	lenBytes := trimUint64(uint64(length))
	prefix := make([]byte, 0, 1+len(lenBytes))
	//nolint:mnd // long-form prefix = offset + 55 + number of length bytes
	prefix = append(prefix, offset+55+byte(len(lenBytes)))

	return append(prefix, lenBytes...)
}

// trimUint64 returns the big-endian bytes of v with leading zeros stripped.
// Zero yields an empty slice.
func trimUint64(v uint64) []byte {
	buf := make([]byte, 0, 8)
	for shift := 56; shift >= 0; shift -= 8 {
		b := byte(v >> uint(shift))
		if len(buf) == 0 && b == 0 {
			continue
		}
		buf = append(buf, b)
	}

	return buf
}
