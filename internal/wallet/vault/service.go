package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/chainvault/go-signer/internal/util"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// The HKDF salt and info are fixed and shared by every installation: the same
// device-bound secret must always reproduce the same wrapping key without any
// server-held parameter.
var (
	hkdfSalt = []byte("chainvault-wallet-encryption-salt-v1")
	hkdfInfo = []byte("wallet-key-wrapping")
)

const (
	aesKeySize     = 32
	gcmIVSize      = 12
	privateKeySize = 32
)

type service struct {
	addressService address.Service
}

// NewService creates a new vault service.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(addressService address.Service) (Service, error) {
	if addressService == nil {
		return nil, errors.New("address service is required")
	}

	return &service{
		addressService: addressService,
	}, nil
}

// DeriveEncryptionKey derives the 256-bit AES wrapping key from the device
// secret via HKDF-SHA256 with the fixed salt and info.
func (s *service) DeriveEncryptionKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrDerivationFailure
	}

	reader := hkdf.New(sha256.New, secret, hkdfSalt, hkdfInfo)

	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.Wrap(ErrDerivationFailure, err.Error())
	}

	return key, nil
}

// Encrypt encrypts hex-encoded plaintext with AES-256-GCM under a fresh
// random 12-byte IV, returning hex(IV || ciphertext+tag).
func (s *service) Encrypt(key []byte, plaintextHex string) (string, error) {
	plaintext, err := hex.DecodeString(plaintextHex)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode plaintext hex")
	}
	defer ZeroBytes(plaintext)

	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, gcmIVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "failed to generate IV")
	}

	ciphertext := aead.Seal(nil, iv, plaintext, nil)

	return hex.EncodeToString(append(iv, ciphertext...)), nil
}

// Decrypt splits the first 12 bytes as IV and decrypts the remainder. A GCM
// tag mismatch surfaces as ErrAuthenticationFailure.
func (s *service) Decrypt(key []byte, ivCiphertextHex string) (string, error) {
	raw, err := hex.DecodeString(ivCiphertextHex)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext hex")
	}

	if len(raw) <= gcmIVSize {
		return "", errors.Wrap(ErrAuthenticationFailure, "ciphertext too short")
	}

	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, raw[:gcmIVSize], raw[gcmIVSize:], nil)
	if err != nil {
		return "", ErrAuthenticationFailure
	}
	defer ZeroBytes(plaintext)

	return hex.EncodeToString(plaintext), nil
}

// GenerateWallet draws 32 cryptographically random bytes, derives the chain
// address and encrypts the key. The plaintext buffer is zeroed before
// returning, including on error paths.
func (s *service) GenerateWallet(ctx context.Context, chainType chain.Type, key []byte) (*WalletData, error) {
	log := util.LogFromContext(ctx)

	if !chainType.Valid() {
		return nil, errors.Wrapf(chain.ErrUnsupportedChain, "%d", chainType)
	}

	privateKey := make([]byte, privateKeySize)
	if _, err := rand.Read(privateKey); err != nil {
		return nil, errors.Wrap(err, "failed to generate private key")
	}

	material := NewKeyMaterial(privateKey)
	defer material.Destroy()

	derived, err := s.addressService.DeriveAddress(ctx, chainType, material.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive address")
	}

	encrypted, err := s.Encrypt(key, hex.EncodeToString(material.Bytes()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt private key")
	}

	log.Debug().
		Str("chain", chainType.String()).
		Str("address", derived).
		Msg("Generated wallet")

	return &WalletData{
		ChainType:           chainType,
		Address:             derived,
		EncryptedPrivateKey: encrypted,
	}, nil
}

// GenerateWallets generates one wallet per requested chain from the device
// secret. The derived wrapping key is zeroed before returning.
func (s *service) GenerateWallets(ctx context.Context, secret []byte, chainTypes []chain.Type) ([]*WalletData, error) {
	key, err := s.DeriveEncryptionKey(secret)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key)

	wallets := make([]*WalletData, 0, len(chainTypes))
	for _, chainType := range chainTypes {
		wallet, err := s.GenerateWallet(ctx, chainType, key)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to generate %s wallet", chainType)
		}
		wallets = append(wallets, wallet)
	}

	return wallets, nil
}

// DecryptPrivateKey decrypts an encrypted key record using the device secret.
func (s *service) DecryptPrivateKey(secret []byte, encryptedHex string) (string, error) {
	key, err := s.DeriveEncryptionKey(secret)
	if err != nil {
		return "", err
	}
	defer ZeroBytes(key)

	return s.Decrypt(key, encryptedHex)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != aesKeySize {
		return nil, errors.Errorf("invalid wrapping key length: %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	return aead, nil
}
