package vault

import (
	"context"

	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/pkg/errors"
)

// WalletData is the result of generating a wallet: the derived address and the
// encrypted private key record. The plaintext key never leaves the vault.
type WalletData struct {
	ChainType chain.Type `json:"chainType"`
	Address   string     `json:"address"`
	// EncryptedPrivateKey is hex(12-byte IV || AES-256-GCM ciphertext+tag).
	EncryptedPrivateKey string `json:"encryptedPrivateKey"`
}

// ErrDerivationFailure is returned when the device secret is empty or
// malformed and no wrapping key can be derived from it.
var ErrDerivationFailure = errors.New("failed to derive encryption key")

// ErrAuthenticationFailure is returned when an encrypted key record fails GCM
// authentication: the ciphertext was tampered with or the wrong key was used.
var ErrAuthenticationFailure = errors.New("decryption authentication failed")

// Service is the key vault: it derives the wrapping key from the device
// secret, encrypts and decrypts raw private keys, and generates wallets.
type Service interface {
	// DeriveEncryptionKey derives the 256-bit AES wrapping key from the
	// device-bound secret. The derivation is deterministic: the same secret
	// always reproduces the same key.
	DeriveEncryptionKey(secret []byte) ([]byte, error)

	// Encrypt encrypts hex-encoded plaintext under the wrapping key with a
	// fresh random 12-byte IV, returning hex(IV || ciphertext+tag).
	Encrypt(key []byte, plaintextHex string) (string, error)

	// Decrypt reverses Encrypt. Returns ErrAuthenticationFailure when the GCM
	// tag does not verify.
	Decrypt(key []byte, ivCiphertextHex string) (string, error)

	// GenerateWallet draws a fresh 32-byte private key for the chain, derives
	// its address and returns the encrypted record. The plaintext key buffer
	// is zeroed before the call returns, on every exit path.
	GenerateWallet(ctx context.Context, chainType chain.Type, key []byte) (*WalletData, error)

	// GenerateWallets generates one wallet per requested chain from the
	// device secret.
	GenerateWallets(ctx context.Context, secret []byte, chainTypes []chain.Type) ([]*WalletData, error)

	// DecryptPrivateKey decrypts an encrypted key record using the device
	// secret, returning the hex-encoded private key.
	DecryptPrivateKey(secret []byte, encryptedHex string) (string, error)
}
