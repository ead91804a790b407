package address

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"

	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/pkg/errors"
)

// TON user-friendly address tag bytes.
const (
	tonBounceableTag    = 0x11
	tonNonBounceableTag = 0x51

	tonAddressLen = 36 // tag + workchain + 32-byte hash + 2-byte CRC16
)

// TONAddress derives a TON user-friendly address. The account hash is the
// SHA-256 of the public key; full state-init hashing is out of scope here and
// matches the deployed wallet behavior.
func TONAddress(publicKey ed25519.PublicKey, bounceable bool, workchain int8) (string, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", errors.Errorf("invalid ton public key length: %d", len(publicKey))
	}

	hash := sha256.Sum256(publicKey)

	tag := byte(tonBounceableTag)
	if !bounceable {
		tag = tonNonBounceableTag
	}

	data := make([]byte, 0, tonAddressLen)
	data = append(data, tag, byte(workchain))
	data = append(data, hash[:]...)

	checksum := codec.CRC16(data)
	data = binary.BigEndian.AppendUint16(data, checksum)

	return codec.EncodeBase64URL(data), nil
}

// DecodeTONAddress decodes a user-friendly TON address, verifying the CRC16
// checksum. It returns the workchain, the 32-byte account hash and whether the
// address is bounceable.
func DecodeTONAddress(address string) (int8, [32]byte, bool, error) {
	var hash [32]byte

	decoded, err := codec.DecodeBase64URL(address)
	if err != nil {
		return 0, hash, false, errors.Wrap(err, "failed to decode ton address")
	}

	if len(decoded) != tonAddressLen {
		return 0, hash, false, errors.Errorf("invalid ton address length: %d", len(decoded))
	}

	body := decoded[:tonAddressLen-2]
	checksum := binary.BigEndian.Uint16(decoded[tonAddressLen-2:])
	if codec.CRC16(body) != checksum {
		return 0, hash, false, errors.Wrap(ErrInvalidChecksum, address)
	}

	var bounceable bool
	switch body[0] {
	case tonBounceableTag:
		bounceable = true
	case tonNonBounceableTag:
		bounceable = false
	default:
		return 0, hash, false, errors.Errorf("invalid ton address tag: 0x%02x", body[0])
	}

	copy(hash[:], body[2:])

	return int8(body[1]), hash, bounceable, nil
}
