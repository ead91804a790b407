package address

import (
	"context"
	"crypto/ed25519"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/pkg/errors"
)

type service struct {
	bitcoinNetwork chain.BitcoinNetwork
	tonWorkchain   int8
}

// NewService creates a new address derivation service.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(bitcoinNetwork chain.BitcoinNetwork) Service {
	return &service{
		bitcoinNetwork: bitcoinNetwork,
		tonWorkchain:   0,
	}
}

// DeriveAddress derives the address for the given chain from raw private key
// bytes.
func (s *service) DeriveAddress(_ context.Context, chainType chain.Type, privateKey []byte) (string, error) {
	switch chainType {
	case chain.TypeEVM, chain.TypeBitcoin, chain.TypeTron:
		publicKey, err := Secp256k1PublicKey(privateKey)
		if err != nil {
			return "", err
		}

		switch chainType {
		case chain.TypeEVM:
			return EVMAddress(publicKey), nil
		case chain.TypeBitcoin:
			return BitcoinAddress(publicKey.SerializeCompressed(), s.bitcoinNetwork), nil
		default:
			return TronAddress(publicKey), nil
		}

	case chain.TypeSolana, chain.TypeTON:
		key, err := Ed25519PrivateKey(privateKey)
		if err != nil {
			return "", err
		}

		publicKey, ok := key.Public().(ed25519.PublicKey)
		if !ok {
			return "", errors.New("failed to extract ed25519 public key")
		}

		if chainType == chain.TypeSolana {
			return SolanaAddress(publicKey)
		}

		return TONAddress(publicKey, true, s.tonWorkchain)

	default:
		return "", errors.Wrapf(chain.ErrUnsupportedChain, "%d", chainType)
	}
}

// Secp256k1PublicKey parses a 32-byte secp256k1 private key and returns its
// public key.
func Secp256k1PublicKey(privateKey []byte) (*btcec.PublicKey, error) {
	if len(privateKey) != 32 {
		return nil, errors.Wrapf(ErrInvalidPrivateKeyLength, "expected 32 bytes, got %d", len(privateKey))
	}

	_, publicKey := btcec.PrivKeyFromBytes(privateKey)

	return publicKey, nil
}

// Ed25519PrivateKey builds an ed25519 private key from either a 32-byte seed
// or a full 64-byte keypair whose second half is the public key.
func Ed25519PrivateKey(privateKey []byte) (ed25519.PrivateKey, error) {
	switch len(privateKey) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(privateKey), nil
	case ed25519.PrivateKeySize:
		key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
		copy(key, privateKey)
		return key, nil
	default:
		return nil, errors.Wrapf(ErrInvalidPrivateKeyLength, "expected 32 or 64 bytes, got %d", len(privateKey))
	}
}
