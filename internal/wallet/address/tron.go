package address

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// tronAddressPrefix is the version byte of every TRON mainnet address.
const tronAddressPrefix = 0x41

// TronAddress derives a TRON address: same Keccak-256 pipeline as EVM, but the
// 20-byte hash is wrapped in Base58Check with the 0x41 prefix.
func TronAddress(publicKey *btcec.PublicKey) string {
	uncompressed := publicKey.SerializeUncompressed()
	hash := crypto.Keccak256(uncompressed[1:])

	return codec.EncodeBase58Check(tronAddressPrefix, hash[12:])
}

// TronAddressToHex decodes a Base58Check TRON address into its 21-byte hex
// form (41-prefixed) as expected by the node HTTP API.
func TronAddressToHex(address string) (string, error) {
	version, payload, err := codec.DecodeBase58Check(address)
	if err != nil {
		if errors.Is(err, codec.ErrInvalidChecksum) {
			return "", errors.Wrap(ErrInvalidChecksum, address)
		}
		return "", err
	}

	if version != tronAddressPrefix {
		return "", errors.Errorf("invalid tron address prefix: 0x%02x", version)
	}

	if len(payload) != hash160Size {
		return "", errors.Errorf("invalid tron address payload length: %d", len(payload))
	}

	return hex.EncodeToString(append([]byte{version}, payload...)), nil
}

// TronHexToAddress encodes a 21-byte 41-prefixed hex address back into its
// Base58Check form.
func TronHexToAddress(hexAddress string) (string, error) {
	raw, err := hex.DecodeString(hexAddress)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode tron hex address")
	}

	if len(raw) != 1+hash160Size || raw[0] != tronAddressPrefix {
		return "", errors.Errorf("invalid tron hex address: %s", hexAddress)
	}

	return codec.EncodeBase58Check(raw[0], raw[1:]), nil
}
