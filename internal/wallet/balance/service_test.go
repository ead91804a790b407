package balance_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/balance"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/chainvault/go-signer/internal/wallet/rpc"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEVMAddress = "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"

func testTronAddress(t *testing.T) string {
	t.Helper()

	addr, err := address.TronHexToAddress("41" + strings.Repeat("2a", 20))
	require.NoError(t, err)

	return addr
}

func newCaller(t *testing.T, url string) *rpc.Client {
	t.Helper()

	client, err := rpc.NewClient([]string{url})
	require.NoError(t, err)

	return client
}

func newService(t *testing.T, transports *signer.Transports) balance.Service {
	t.Helper()

	cfg := config.Config{
		EVMNetworks: map[int64]config.EVMNetwork{1: {Name: "ethereum", ChainID: 1}},
	}

	service, err := balance.NewService(cfg, transports)
	require.NoError(t, err)

	return service
}

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

func TestEVMBalance(t *testing.T) {
	server := newJSONRPCServer(t, map[string]any{"eth_getBalance": "0xde0b6b3a7640000"})
	defer server.Close()

	service := newService(t, &signer.Transports{
		EVM: map[int64]rpc.Caller{1: newCaller(t, server.URL)},
	})

	amount, err := service.EVMBalance(context.Background(), 1, testEVMAddress)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", amount.String())

	_, err = service.EVMBalance(context.Background(), 999, testEVMAddress)
	assert.ErrorIs(t, err, config.ErrUnsupportedChainID)
}

func TestEVMTokenBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			ID     string `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, "eth_call", request.Method)

		msg := request.Params[0].(map[string]any)
		data := msg["data"].(string)
		assert.True(t, strings.HasPrefix(data, "0x70a08231"), "balanceOf selector")
		assert.True(t, strings.HasSuffix(data, strings.TrimPrefix(testEVMAddress, "0x")))
		assert.Len(t, data, 2+8+64)

		response := map[string]any{
			"jsonrpc": "2.0",
			"id":      request.ID,
			"result":  "0x" + strings.Repeat("0", 60) + "2710",
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	service := newService(t, &signer.Transports{
		EVM: map[int64]rpc.Caller{1: newCaller(t, server.URL)},
	})

	amount, err := service.EVMTokenBalance(context.Background(), 1, testEVMAddress, "0x"+strings.Repeat("aa", 20))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), amount.Int64())
}

func TestBitcoinBalance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/address/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode([]signer.UTXO{
			{TxID: strings.Repeat("11", 32), Vout: 0, ValueSats: 30_000},
			{TxID: strings.Repeat("22", 32), Vout: 1, ValueSats: 12_345},
		}))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	service := newService(t, &signer.Transports{Bitcoin: newCaller(t, server.URL)})

	amount, err := service.BitcoinBalance(context.Background(), "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
	require.NoError(t, err)
	assert.Equal(t, int64(42_345), amount.Int64())
}

func TestSolanaBalance(t *testing.T) {
	server := newJSONRPCServer(t, map[string]any{
		"getBalance": map[string]any{"value": 987654321},
	})
	defer server.Close()

	service := newService(t, &signer.Transports{Solana: newCaller(t, server.URL)})

	amount, err := service.SolanaBalance(context.Background(), "11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, int64(987654321), amount.Int64())
}

func TestSolanaTokenBalance(t *testing.T) {
	tokenMint := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			ID     string `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, "getTokenAccountsByOwner", request.Method)

		require.Len(t, request.Params, 3)
		filter := request.Params[1].(map[string]any)
		assert.Equal(t, tokenMint, filter["mint"])

		tokenAccount := func(amount string) map[string]any {
			return map[string]any{
				"account": map[string]any{
					"data": map[string]any{
						"parsed": map[string]any{
							"info": map[string]any{
								"tokenAmount": map[string]any{"amount": amount},
							},
						},
					},
				},
			}
		}

		response := map[string]any{
			"jsonrpc": "2.0",
			"id":      request.ID,
			"result": map[string]any{
				"value": []any{tokenAccount("1000000"), tokenAccount("234567")},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	service := newService(t, &signer.Transports{Solana: newCaller(t, server.URL)})

	amount, err := service.SolanaTokenBalance(context.Background(), "11111111111111111111111111111111", tokenMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1_234_567), amount.Int64(), "balances sum across token accounts")
}

func TestSnapshotRoutesSolanaTokenQueries(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		methods = append(methods, request.Method)

		response := map[string]any{
			"jsonrpc": "2.0",
			"id":      request.ID,
			"result":  map[string]any{"value": []any{}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	service := newService(t, &signer.Transports{Solana: newCaller(t, server.URL)})

	results := service.Snapshot(context.Background(), []balance.Query{{
		ChainType:     chain.TypeSolana,
		Address:       "11111111111111111111111111111111",
		TokenContract: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	}})

	require.Len(t, results, 1)
	assert.Equal(t, int64(0), results[0].Amount.Int64())
	assert.Equal(t, []string{"getTokenAccountsByOwner"}, methods,
		"a token-mint query must not fall back to the native balance")
}

func TestTronBalances(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet/getaccount", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"balance": 5_000_000}))
	})
	mux.HandleFunc("/wallet/triggerconstantcontract", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "balanceOf(address)", body["function_selector"])

		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"constant_result": []string{strings.Repeat("0", 60) + "03e8"},
		}))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	service := newService(t, &signer.Transports{Tron: newCaller(t, server.URL)})

	tronAddr := testTronAddress(t)

	native, err := service.TronBalance(context.Background(), tronAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), native.Int64())

	token, err := service.TronTokenBalance(context.Background(), tronAddr, tronAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), token.Int64())
}

func TestTONBalance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/getAddressBalance", func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("address"))
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": "1500000000",
		}))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	service := newService(t, &signer.Transports{TON: newCaller(t, server.URL)})

	amount, err := service.TONBalance(context.Background(), "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9c")
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000_000), amount.Int64())
}

func TestSnapshotDegradesToZero(t *testing.T) {
	evmServer := newJSONRPCServer(t, map[string]any{"eth_getBalance": "0x64"})
	defer evmServer.Close()

	// Bitcoin endpoint that always fails
	bitcoinServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bitcoinServer.Close()

	service := newService(t, &signer.Transports{
		EVM:     map[int64]rpc.Caller{1: newCaller(t, evmServer.URL)},
		Bitcoin: newCaller(t, bitcoinServer.URL),
	})

	results := service.Snapshot(context.Background(), []balance.Query{
		{ChainType: chain.TypeEVM, ChainID: 1, Address: testEVMAddress},
		{ChainType: chain.TypeBitcoin, Address: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, big.NewInt(100), results[0].Amount)
	assert.Equal(t, int64(0), results[1].Amount.Int64(), "failed lookup degrades to zero")
}
