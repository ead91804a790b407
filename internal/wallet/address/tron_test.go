package address_test

import (
	"testing"

	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTronAddressHexRoundTrip(t *testing.T) {
	payloads := []string{
		"417e5f4552091a69125d5dfcb7b8c2659029395bdf",
		"410000000000000000000000000000000000000000",
		"41ffffffffffffffffffffffffffffffffffffffff",
	}

	for _, hexAddr := range payloads {
		encoded, err := address.TronHexToAddress(hexAddr)
		require.NoError(t, err)

		decoded, err := address.TronAddressToHex(encoded)
		require.NoError(t, err)
		assert.Equal(t, hexAddr, decoded)
	}
}

func TestTronAddressToHexRejectsBadChecksum(t *testing.T) {
	encoded, err := address.TronHexToAddress("417e5f4552091a69125d5dfcb7b8c2659029395bdf")
	require.NoError(t, err)

	// Flip one character in the base58 body
	replacement := byte('1')
	if encoded[4] == replacement {
		replacement = '2'
	}
	mutated := encoded[:4] + string(replacement) + encoded[5:]

	_, err = address.TronAddressToHex(mutated)
	assert.Error(t, err)
}

func TestTronHexToAddressRejectsBadPrefix(t *testing.T) {
	_, err := address.TronHexToAddress("007e5f4552091a69125d5dfcb7b8c2659029395bdf")
	assert.Error(t, err)

	_, err = address.TronHexToAddress("41deadbeef")
	assert.Error(t, err)
}

func TestBitcoinAddressChecksumRejectsMutation(t *testing.T) {
	addr := codec.EncodeBase58Check(0x00, make([]byte, 20))

	_, _, err := address.DecodeBitcoinAddress(addr)
	require.NoError(t, err)

	mutated := addr[:len(addr)-1] + "1"
	if mutated == addr {
		mutated = addr[:len(addr)-1] + "2"
	}

	_, _, err = address.DecodeBitcoinAddress(mutated)
	assert.Error(t, err)
}
