package address

import (
	"crypto/ed25519"

	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/pkg/errors"
)

// SolanaAddress encodes a 32-byte ed25519 public key as a base58 address.
func SolanaAddress(publicKey ed25519.PublicKey) (string, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", errors.Errorf("invalid solana public key length: %d", len(publicKey))
	}

	return codec.EncodeBase58(publicKey), nil
}

// DecodeSolanaAddress decodes a base58 Solana address into its 32-byte public
// key.
func DecodeSolanaAddress(address string) ([]byte, error) {
	decoded, err := codec.DecodeBase58(address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode solana address")
	}

	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid solana address length: %d", len(decoded))
	}

	return decoded, nil
}
