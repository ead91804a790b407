package signer

import (
	"context"
	"fmt"

	"github.com/chainvault/go-signer/internal/util"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// personalMessagePrefix is the EIP-191 personal message prefix.
const personalMessagePrefix = "\x19Ethereum Signed Message:\n"

// SignEVMMessage signs a personal message. The returned signature is the
// 65-byte r||s||v form with v = 27 + recoveryId, hex-encoded.
func (s *service) SignEVMMessage(_ context.Context, secret []byte, encryptedKey string, message []byte) (string, error) {
	prefixed := append([]byte(fmt.Sprintf("%s%d", personalMessagePrefix, len(message))), message...)
	digest := crypto.Keccak256(prefixed)

	return s.signRecoverableDigest(secret, encryptedKey, digest)
}

// SignEVMTypedData signs keccak256(0x19 0x01 || domainSeparator || structHash)
// where both hashes are keccak256 over the raw JSON serialization. This is a
// deliberate simplification of EIP-712 struct encoding kept byte-compatible
// with the deployed wallets.
func (s *service) SignEVMTypedData(_ context.Context, secret []byte, encryptedKey string, domainJSON, messageJSON []byte) (string, error) {
	if len(domainJSON) == 0 || len(messageJSON) == 0 {
		return "", errors.New("typed data domain and message are required")
	}

	domainSeparator := crypto.Keccak256(domainJSON)
	structHash := crypto.Keccak256(messageJSON)

	digest := crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash)

	return s.signRecoverableDigest(secret, encryptedKey, digest)
}

// signRecoverableDigest signs a 32-byte digest with the decrypted key and
// encodes the signature as hex r||s||(27+recId).
func (s *service) signRecoverableDigest(secret []byte, encryptedKey string, digest []byte) (string, error) {
	var signatureHex string

	err := s.withPrivateKey(secret, encryptedKey, func(privateKey []byte) error {
		ecdsaKey, err := crypto.ToECDSA(privateKey)
		if err != nil {
			return errors.Wrap(err, "failed to parse private key")
		}

		signature, err := crypto.Sign(digest, ecdsaKey)
		if err != nil {
			return errors.Wrap(err, "failed to sign message")
		}

		signature[64] += 27
		signatureHex = util.EncodeHexPrefixed(signature)

		return nil
	})
	if err != nil {
		return "", err
	}

	return signatureHex, nil
}
