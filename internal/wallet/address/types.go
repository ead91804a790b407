package address

import (
	"context"

	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/pkg/errors"
)

// WalletAddress pairs a chain type with the address derived for it. Derivation
// is deterministic: the same key always yields the same address.
type WalletAddress struct {
	ChainType chain.Type `json:"chainType"`
	Address   string     `json:"address"`
}

// ErrInvalidChecksum is returned when decoding an address whose checksum does
// not verify. A mismatch is a hard error, never silently corrected.
var ErrInvalidChecksum = errors.New("invalid address checksum")

// ErrInvalidPrivateKeyLength is returned when key material has an unexpected
// length for the target curve.
var ErrInvalidPrivateKeyLength = errors.New("invalid private key length")

// Service derives chain addresses from private keys.
type Service interface {
	// DeriveAddress derives the address for the given chain from raw private
	// key bytes. The key is not retained and not modified.
	DeriveAddress(ctx context.Context, chainType chain.Type, privateKey []byte) (string, error)
}
