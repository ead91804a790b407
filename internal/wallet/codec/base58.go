package codec

import (
	"crypto/sha256"
	"math/big"

	"github.com/pkg/errors"
)

// base58Alphabet is the Bitcoin alphabet (no 0, O, I, l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const base58ChecksumLen = 4

// ErrInvalidChecksum is returned when a Base58Check payload fails its
// double-SHA256 checksum. Checksum mismatches are never silently corrected.
var ErrInvalidChecksum = errors.New("invalid base58check checksum")

// ErrInvalidBase58 is returned when the input contains characters outside the
// base58 alphabet.
var ErrInvalidBase58 = errors.New("invalid base58 string")

// EncodeBase58 encodes data in base58. Leading zero bytes are preserved as
// leading '1' characters.
func EncodeBase58(data []byte) string {
	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}

	num := new(big.Int).SetBytes(data)
	base := big.NewInt(int64(len(base58Alphabet)))
	mod := new(big.Int)

	// Build the digits in reverse
	out := make([]byte, 0, len(data)*2)
	for num.Sign() > 0 {
		num.DivMod(num, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}

	for i := 0; i < zeros; i++ {
		out = append(out, base58Alphabet[0])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return string(out)
}

// DecodeBase58 decodes a base58 string, restoring leading zero bytes.
func DecodeBase58(encoded string) ([]byte, error) {
	num := big.NewInt(0)
	base := big.NewInt(int64(len(base58Alphabet)))

	for _, c := range []byte(encoded) {
		idx := base58Index(c)
		if idx < 0 {
			return nil, ErrInvalidBase58
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(int64(idx)))
	}

	zeros := 0
	for zeros < len(encoded) && encoded[zeros] == base58Alphabet[0] {
		zeros++
	}

	decoded := num.Bytes()
	out := make([]byte, zeros+len(decoded))
	copy(out[zeros:], decoded)

	return out, nil
}

// EncodeBase58Check encodes payload with a version byte prefix and a 4-byte
// double-SHA256 checksum suffix.
func EncodeBase58Check(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+base58ChecksumLen)
	buf = append(buf, version)
	buf = append(buf, payload...)
	checksum := DoubleSHA256(buf)
	buf = append(buf, checksum[:base58ChecksumLen]...)

	return EncodeBase58(buf)
}

// DecodeBase58Check decodes a Base58Check string and verifies its checksum,
// returning the version byte and payload.
func DecodeBase58Check(encoded string) (byte, []byte, error) {
	decoded, err := DecodeBase58(encoded)
	if err != nil {
		return 0, nil, err
	}

	if len(decoded) < 1+base58ChecksumLen {
		return 0, nil, errors.Wrap(ErrInvalidBase58, "base58check payload too short")
	}

	body := decoded[:len(decoded)-base58ChecksumLen]
	checksum := decoded[len(decoded)-base58ChecksumLen:]

	expected := DoubleSHA256(body)
	for i := 0; i < base58ChecksumLen; i++ {
		if checksum[i] != expected[i] {
			return 0, nil, ErrInvalidChecksum
		}
	}

	return body[0], body[1:], nil
}

// DoubleSHA256 returns SHA256(SHA256(data)).
func DoubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])

	return second[:]
}

func base58Index(c byte) int {
	for i := 0; i < len(base58Alphabet); i++ {
		if base58Alphabet[i] == c {
			return i
		}
	}

	return -1
}
