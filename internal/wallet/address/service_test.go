package address_test

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// privKeyOne is the well-known secp256k1 test key with scalar value 1, whose
// public key is the curve generator point.
var privKeyOne = append(make([]byte, 31), 0x01)

func TestDeriveEVMAddressKnownVector(t *testing.T) {
	svc := address.NewService(chain.BitcoinMainnet)

	derived, err := svc.DeriveAddress(context.Background(), chain.TypeEVM, privKeyOne)
	require.NoError(t, err)
	assert.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", derived)
}

func TestDeriveBitcoinAddressKnownVector(t *testing.T) {
	svc := address.NewService(chain.BitcoinMainnet)

	derived, err := svc.DeriveAddress(context.Background(), chain.TypeBitcoin, privKeyOne)
	require.NoError(t, err)
	// P2PKH address of the generator point's compressed public key
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", derived)

	version, hash, err := address.DecodeBitcoinAddress(derived)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), version)
	assert.Len(t, hash, 20)
}

func TestDeriveAddressIsDeterministic(t *testing.T) {
	svc := address.NewService(chain.BitcoinMainnet)
	ctx := context.Background()

	secpSeed := make([]byte, 32)
	secpSeed[31] = 0x2a
	edSeed := make([]byte, ed25519.SeedSize)
	edSeed[0] = 0x2a

	for _, chainType := range chain.All() {
		seed := secpSeed
		if chainType == chain.TypeSolana || chainType == chain.TypeTON {
			seed = edSeed
		}

		first, err := svc.DeriveAddress(ctx, chainType, seed)
		require.NoError(t, err, chainType.String())

		second, err := svc.DeriveAddress(ctx, chainType, seed)
		require.NoError(t, err, chainType.String())
		assert.Equal(t, first, second, chainType.String())
		assert.NotEmpty(t, first, chainType.String())
	}
}

func TestDeriveAddressRejectsBadKeyLengths(t *testing.T) {
	svc := address.NewService(chain.BitcoinMainnet)
	ctx := context.Background()

	_, err := svc.DeriveAddress(ctx, chain.TypeEVM, make([]byte, 31))
	assert.ErrorIs(t, err, address.ErrInvalidPrivateKeyLength)

	_, err = svc.DeriveAddress(ctx, chain.TypeSolana, make([]byte, 33))
	assert.ErrorIs(t, err, address.ErrInvalidPrivateKeyLength)

	// 64-byte ed25519 keypairs are accepted
	key := ed25519.NewKeyFromSeed(make([]byte, 32))
	derived, err := svc.DeriveAddress(ctx, chain.TypeSolana, key)
	require.NoError(t, err)
	assert.NotEmpty(t, derived)
}

func TestDeriveAddressUnsupportedChain(t *testing.T) {
	svc := address.NewService(chain.BitcoinMainnet)

	_, err := svc.DeriveAddress(context.Background(), chain.Type(99), privKeyOne)
	assert.ErrorIs(t, err, chain.ErrUnsupportedChain)
}
