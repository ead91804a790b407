package signer_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyOneEVMAddress = "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"

func uint64Ptr(v uint64) *uint64 { return &v }

// decodeRLPStrings parses a top-level RLP list whose items are all byte
// strings, as in a legacy transaction.
func decodeRLPStrings(t *testing.T, raw []byte) [][]byte {
	t.Helper()

	require.NotEmpty(t, raw)
	require.GreaterOrEqual(t, raw[0], byte(0xc0), "expected an RLP list")

	offset := 1
	if raw[0] > 0xf7 {
		offset += int(raw[0] - 0xf7)
	}

	var items [][]byte
	for offset < len(raw) {
		prefix := raw[offset]
		switch {
		case prefix < 0x80:
			items = append(items, raw[offset:offset+1])
			offset++
		case prefix <= 0xb7:
			length := int(prefix - 0x80)
			items = append(items, raw[offset+1:offset+1+length])
			offset += 1 + length
		default:
			require.LessOrEqual(t, prefix, byte(0xbf), "unexpected nested list")
			lengthSize := int(prefix - 0xb7)
			length := 0
			for _, b := range raw[offset+1 : offset+1+lengthSize] {
				length = length<<8 | int(b)
			}
			items = append(items, raw[offset+1+lengthSize:offset+1+lengthSize+length])
			offset += 1 + lengthSize + length
		}
	}

	return items
}

// assertLegacySignature decodes a signed legacy transaction, checks
// v = chainId*2 + 35 + recoveryId and recovers the signer address from the
// EIP-155 digest.
func assertLegacySignature(t *testing.T, raw []byte, chainID int64) {
	t.Helper()

	items := decodeRLPStrings(t, raw)
	require.Len(t, items, 9)

	v := new(big.Int).SetBytes(items[6]).Int64()
	recoveryID := v - chainID*2 - 35
	require.Contains(t, []int64{0, 1}, recoveryID, "v must equal chainId*2 + 35 + recoveryId")

	unsigned := codec.EncodeRLPList(
		codec.EncodeRLPBytes(items[0]), // nonce
		codec.EncodeRLPBytes(items[1]), // gas price
		codec.EncodeRLPBytes(items[2]), // gas limit
		codec.EncodeRLPBytes(items[3]), // to
		codec.EncodeRLPBytes(items[4]), // value
		codec.EncodeRLPBytes(items[5]), // data
		codec.EncodeRLPUint64(uint64(chainID)),
		codec.EncodeRLPUint64(0),
		codec.EncodeRLPUint64(0),
	)

	signature := make([]byte, 65)
	copy(signature[32-len(items[7]):32], items[7])
	copy(signature[64-len(items[8]):64], items[8])
	signature[64] = byte(recoveryID)

	publicKey, err := crypto.SigToPub(crypto.Keccak256(unsigned), signature)
	require.NoError(t, err)
	assert.Equal(t, keyOneEVMAddress, strings.ToLower(crypto.PubkeyToAddress(*publicKey).Hex()))
}

func TestSignEVMTransactionFullySpecified(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, secpKeyOne)

	// A fully specified request must never touch chain state.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected RPC call for a fully specified request")
	}))
	defer server.Close()

	service := env.newService(t, &signer.Transports{EVM: evmTransport(t, server.URL)})

	req := &signer.SignEVMRequest{
		ChainID:     1,
		To:          "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		ValueWei:    big.NewInt(1_000_000_000_000_000),
		Nonce:       uint64Ptr(5),
		GasLimit:    21000,
		GasPriceWei: big.NewInt(20_000_000_000),
	}

	response, err := service.SignEVMTransaction(context.Background(), testSecret, encryptedKey, req)
	require.NoError(t, err)

	require.NotEmpty(t, response.RawTransaction)
	assert.GreaterOrEqual(t, response.RawTransaction[0], byte(0xc0), "legacy transaction must be a bare RLP list")
	assert.True(t, strings.HasPrefix(response.TxHash, "0x"))
	assert.Len(t, response.TxHash, 66)

	assertLegacySignature(t, response.RawTransaction, 1)

	// Deterministic signing: same request, same bytes.
	again, err := service.SignEVMTransaction(context.Background(), testSecret, encryptedKey, req)
	require.NoError(t, err)
	assert.Equal(t, response.RawTransaction, again.RawTransaction)
}

func TestSignEVMTransactionDynamicFees(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, secpKeyOne)

	server := newJSONRPCServer(t, map[string]any{
		"eth_getTransactionCount":  "0x1",
		"eth_estimateGas":          "0x5208",
		"eth_maxPriorityFeePerGas": "0x59682f00",
		"eth_getBlockByNumber":     map[string]any{"baseFeePerGas": "0x3b9aca00"},
	})
	defer server.Close()

	service := env.newService(t, &signer.Transports{EVM: evmTransport(t, server.URL)})

	response, err := service.SignEVMTransaction(context.Background(), testSecret, encryptedKey, &signer.SignEVMRequest{
		ChainID:  1,
		To:       "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		ValueWei: big.NewInt(1),
	})
	require.NoError(t, err)

	require.NotEmpty(t, response.RawTransaction)
	assert.Equal(t, byte(0x02), response.RawTransaction[0], "fee-market transaction must carry the type prefix")
}

func TestSignEVMTransactionLegacyOnlyNetwork(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, secpKeyOne)

	server := newJSONRPCServer(t, map[string]any{
		"eth_getTransactionCount": "0x0",
		"eth_estimateGas":         "0x5208",
		"eth_gasPrice":            "0x12a05f200",
	})
	defer server.Close()

	service := env.newService(t, &signer.Transports{EVM: evmTransport(t, server.URL, 56)})

	response, err := service.SignEVMTransaction(context.Background(), testSecret, encryptedKey, &signer.SignEVMRequest{
		ChainID:  56,
		To:       "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		ValueWei: big.NewInt(1),
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, response.RawTransaction[0], byte(0xc0))
	assertLegacySignature(t, response.RawTransaction, 56)
}

func TestSignEVMTransactionUnsupportedChain(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, secpKeyOne)
	service := env.newService(t, &signer.Transports{})

	_, err := service.SignEVMTransaction(context.Background(), testSecret, encryptedKey, &signer.SignEVMRequest{
		ChainID: 424242,
		To:      "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
	})
	assert.ErrorIs(t, err, config.ErrUnsupportedChainID)
}

func TestSignAndSendEVMTransaction(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, secpKeyOne)

	broadcastHash := "0x" + strings.Repeat("ab", 32)
	server := newJSONRPCServer(t, map[string]any{
		"eth_sendRawTransaction": broadcastHash,
	})
	defer server.Close()

	service := env.newService(t, &signer.Transports{EVM: evmTransport(t, server.URL)})

	response, err := service.SignAndSendEVMTransaction(context.Background(), testSecret, encryptedKey, &signer.SignEVMRequest{
		ChainID:     1,
		To:          "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		ValueWei:    big.NewInt(1),
		Nonce:       uint64Ptr(0),
		GasLimit:    21000,
		GasPriceWei: big.NewInt(1_000_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, broadcastHash, response.TxHash)
}

func TestERC20TransferData(t *testing.T) {
	data, err := signer.ERC20TransferData("0x70997970c51812dc3a010c7d01b50e0d17dc79c8", big.NewInt(1_000_000))
	require.NoError(t, err)

	require.Len(t, data, 68)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	assert.Equal(t, "00000000000000000000000070997970c51812dc3a010c7d01b50e0d17dc79c8",
		hex.EncodeToString(data[4:36]))
	assert.Equal(t, int64(1_000_000), new(big.Int).SetBytes(data[36:]).Int64())

	_, err = signer.ERC20TransferData("0x1234", big.NewInt(1))
	assert.Error(t, err)
}

func TestSignEVMMessage(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, secpKeyOne)
	service := env.newService(t, &signer.Transports{})

	message := []byte("hello")

	signatureHex, err := service.SignEVMMessage(context.Background(), testSecret, encryptedKey, message)
	require.NoError(t, err)

	signature := mustDecodeHex(t, signatureHex)
	require.Len(t, signature, 65)
	assert.Contains(t, []byte{27, 28}, signature[64])

	// The signer address must be recoverable from the prefixed digest.
	digest := crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n5hello"))
	signature[64] -= 27
	publicKey, err := crypto.SigToPub(digest, signature)
	require.NoError(t, err)
	assert.Equal(t, keyOneEVMAddress, strings.ToLower(crypto.PubkeyToAddress(*publicKey).Hex()))
}

func TestSignEVMTypedData(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, secpKeyOne)
	service := env.newService(t, &signer.Transports{})

	domain := []byte(`{"name":"Vault","chainId":1}`)
	payload := []byte(`{"amount":"100"}`)

	signatureHex, err := service.SignEVMTypedData(context.Background(), testSecret, encryptedKey, domain, payload)
	require.NoError(t, err)

	signature := mustDecodeHex(t, signatureHex)
	require.Len(t, signature, 65)

	digest := crypto.Keccak256([]byte{0x19, 0x01}, crypto.Keccak256(domain), crypto.Keccak256(payload))
	signature[64] -= 27
	publicKey, err := crypto.SigToPub(digest, signature)
	require.NoError(t, err)
	assert.Equal(t, keyOneEVMAddress, strings.ToLower(crypto.PubkeyToAddress(*publicKey).Hex()))

	_, err = service.SignEVMTypedData(context.Background(), testSecret, encryptedKey, nil, payload)
	assert.Error(t, err)
}
