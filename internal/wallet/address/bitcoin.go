package address

import (
	"crypto/sha256"

	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // HASH160 is defined over RIPEMD-160
)

const hash160Size = 20

// Hash160 computes RIPEMD160(SHA256(data)), the Bitcoin HASH160.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	hasher := ripemd160.New()
	hasher.Write(sha[:])

	return hasher.Sum(nil)
}

// BitcoinAddress derives a P2PKH address from a 33-byte compressed public key.
func BitcoinAddress(compressedPublicKey []byte, network chain.BitcoinNetwork) string {
	return codec.EncodeBase58Check(network.P2PKHVersion(), Hash160(compressedPublicKey))
}

// DecodeBitcoinAddress decodes a P2PKH address and verifies its checksum,
// returning the version byte and the 20-byte public key hash.
func DecodeBitcoinAddress(address string) (byte, []byte, error) {
	version, payload, err := codec.DecodeBase58Check(address)
	if err != nil {
		if errors.Is(err, codec.ErrInvalidChecksum) {
			return 0, nil, errors.Wrap(ErrInvalidChecksum, address)
		}
		return 0, nil, err
	}

	if len(payload) != hash160Size {
		return 0, nil, errors.Errorf("invalid bitcoin address payload length: %d", len(payload))
	}

	return version, payload, nil
}
