package signer_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/chainvault/go-signer/internal/wallet/rpc"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/chainvault/go-signer/internal/wallet/vault"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("device-secret-for-signer-tests")

	// Well-known secp256k1 key with scalar 1.
	secpKeyOne = append(make([]byte, 31), 0x01)
	secpKeyTwo = append(make([]byte, 31), 0x02)

	ed25519Seed = bytes.Repeat([]byte{0x42}, 32)
)

type testEnv struct {
	cfg            config.Config
	vaultService   vault.Service
	addressService address.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	addressService := address.NewService(chain.BitcoinMainnet)
	vaultService, err := vault.NewService(addressService)
	require.NoError(t, err)

	return &testEnv{
		cfg: config.Config{
			EVMNetworks: map[int64]config.EVMNetwork{
				1:  {Name: "ethereum", ChainID: 1},
				56: {Name: "bsc", ChainID: 56, LegacyOnly: true},
			},
			Bitcoin: config.BitcoinConfig{
				Network:           chain.BitcoinMainnet,
				DefaultFeeSats:    1000,
				DustThresholdSats: 546,
			},
			Tron: config.TronConfig{FeeLimitSun: 100_000_000},
		},
		vaultService:   vaultService,
		addressService: addressService,
	}
}

func (e *testEnv) newService(t *testing.T, transports *signer.Transports) signer.Service {
	t.Helper()

	service, err := signer.NewService(e.cfg, e.vaultService, e.addressService, transports)
	require.NoError(t, err)

	return service
}

// encryptKey wraps a raw private key the way the vault stores it.
func (e *testEnv) encryptKey(t *testing.T, privateKey []byte) string {
	t.Helper()

	key, err := e.vaultService.DeriveEncryptionKey(testSecret)
	require.NoError(t, err)

	encrypted, err := e.vaultService.Encrypt(key, hex.EncodeToString(privateKey))
	require.NoError(t, err)

	return encrypted
}

func newCaller(t *testing.T, url string) *rpc.Client {
	t.Helper()

	client, err := rpc.NewClient([]string{url})
	require.NoError(t, err)

	return client
}

// evmTransport maps the given chain ids (default 1) onto one test endpoint.
func evmTransport(t *testing.T, url string, chainIDs ...int64) map[int64]rpc.Caller {
	t.Helper()

	if len(chainIDs) == 0 {
		chainIDs = []int64{1}
	}

	client := newCaller(t, url)

	callers := make(map[int64]rpc.Caller, len(chainIDs))
	for _, chainID := range chainIDs {
		callers[chainID] = client
	}

	return callers
}

func mustDecodeHex(t *testing.T, value string) []byte {
	t.Helper()

	decoded, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	require.NoError(t, err)

	return decoded
}

// newJSONRPCServer serves canned per-method results and fails the test on any
// method it has no answer for.
func newJSONRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		result, ok := results[request.Method]
		require.True(t, ok, "unexpected RPC method %s", request.Method)

		response := map[string]any{"jsonrpc": "2.0", "id": request.ID, "result": result}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
}
