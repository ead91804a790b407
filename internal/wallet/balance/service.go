package balance

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/util"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/pkg/errors"
)

// 4-byte selector of balanceOf(address), shared by ERC20 and TRC20.
const balanceOfSelector = "70a08231"

type service struct {
	cfg        config.Config
	transports *signer.Transports
}

// NewService creates a balance service over the shared chain transports.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg config.Config, transports *signer.Transports) (Service, error) {
	if transports == nil {
		return nil, errors.New("transports are required")
	}

	return &service{
		cfg:        cfg,
		transports: transports,
	}, nil
}

// EVMBalance returns the native balance in wei.
func (s *service) EVMBalance(ctx context.Context, chainID int64, addr string) (*big.Int, error) {
	caller, ok := s.transports.EVM[chainID]
	if !ok {
		return nil, errors.Wrapf(config.ErrUnsupportedChainID, "%d", chainID)
	}

	var balanceHex string
	if err := caller.Call(ctx, "eth_getBalance", []any{addr, "latest"}, &balanceHex); err != nil {
		return nil, errors.Wrap(err, "failed to fetch balance")
	}

	return parseHexQuantity(balanceHex)
}

// EVMTokenBalance returns an ERC20 balance via eth_call balanceOf(address).
func (s *service) EVMTokenBalance(ctx context.Context, chainID int64, addr, tokenContract string) (*big.Int, error) {
	caller, ok := s.transports.EVM[chainID]
	if !ok {
		return nil, errors.Wrapf(config.ErrUnsupportedChainID, "%d", chainID)
	}

	holder, err := util.DecodeHex(addr)
	if err != nil || len(holder) != 20 {
		return nil, errors.Errorf("invalid holder address: %s", addr)
	}

	data := make([]byte, 4+32)
	selector, _ := hex.DecodeString(balanceOfSelector)
	copy(data, selector)
	copy(data[4+12:], holder)

	msg := map[string]any{
		"to":   tokenContract,
		"data": util.EncodeHexPrefixed(data),
	}

	var resultHex string
	if err := caller.Call(ctx, "eth_call", []any{msg, "latest"}, &resultHex); err != nil {
		return nil, errors.Wrap(err, "failed to call balanceOf")
	}

	return parseHexQuantity(resultHex)
}

// BitcoinBalance sums the address's unspent outputs.
func (s *service) BitcoinBalance(ctx context.Context, addr string) (*big.Int, error) {
	var utxos []signer.UTXO
	if err := s.transports.Bitcoin.GetJSON(ctx, fmt.Sprintf("/address/%s/utxo", addr), &utxos); err != nil {
		return nil, errors.Wrap(err, "failed to fetch UTXOs")
	}

	total := new(big.Int)
	for _, utxo := range utxos {
		total.Add(total, big.NewInt(utxo.ValueSats))
	}

	return total, nil
}

// SolanaBalance returns the lamport balance.
func (s *service) SolanaBalance(ctx context.Context, addr string) (*big.Int, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := s.transports.Solana.Call(ctx, "getBalance", []any{addr}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to fetch balance")
	}

	return new(big.Int).SetUint64(result.Value), nil
}

// SolanaTokenBalance sums the owner's SPL token accounts for the given mint.
func (s *service) SolanaTokenBalance(ctx context.Context, addr, tokenMint string) (*big.Int, error) {
	params := []any{
		addr,
		map[string]any{"mint": tokenMint},
		map[string]any{"encoding": "jsonParsed"},
	}

	var result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								Amount string `json:"amount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := s.transports.Solana.Call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, errors.Wrap(err, "failed to fetch token accounts")
	}

	total := new(big.Int)
	for _, entry := range result.Value {
		raw := entry.Account.Data.Parsed.Info.TokenAmount.Amount
		amount, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, errors.Errorf("invalid token amount: %s", raw)
		}

		total.Add(total, amount)
	}

	return total, nil
}

// TronBalance returns the native TRX balance in sun. An account the node does
// not know yet reports a zero balance.
func (s *service) TronBalance(ctx context.Context, addr string) (*big.Int, error) {
	hexAddr, err := address.TronAddressToHex(addr)
	if err != nil {
		return nil, err
	}

	var account struct {
		Balance int64 `json:"balance"`
	}
	body := map[string]any{"address": hexAddr}
	if err := s.transports.Tron.PostJSON(ctx, "/wallet/getaccount", body, &account); err != nil {
		return nil, errors.Wrap(err, "failed to fetch account")
	}

	return big.NewInt(account.Balance), nil
}

// TronTokenBalance returns a TRC20 balance via a constant balanceOf call.
func (s *service) TronTokenBalance(ctx context.Context, addr, tokenContract string) (*big.Int, error) {
	ownerHex, err := address.TronAddressToHex(addr)
	if err != nil {
		return nil, err
	}

	contractHex, err := address.TronAddressToHex(tokenContract)
	if err != nil {
		return nil, err
	}

	// Bare 20-byte address, left-padded to 32 bytes
	parameter := strings.Repeat("0", 24) + ownerHex[2:]

	body := map[string]any{
		"owner_address":     ownerHex,
		"contract_address":  contractHex,
		"function_selector": "balanceOf(address)",
		"parameter":         parameter,
	}

	var result struct {
		ConstantResult []string `json:"constant_result"`
	}
	if err := s.transports.Tron.PostJSON(ctx, "/wallet/triggerconstantcontract", body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to call balanceOf")
	}

	if len(result.ConstantResult) == 0 {
		return nil, errors.New("constant call returned no result")
	}

	return parseHexQuantity(result.ConstantResult[0])
}

// TONBalance returns the nanoton balance.
func (s *service) TONBalance(ctx context.Context, addr string) (*big.Int, error) {
	var result struct {
		OK     bool   `json:"ok"`
		Result string `json:"result"`
	}

	path := "/getAddressBalance?address=" + url.QueryEscape(addr)
	if err := s.transports.TON.GetJSON(ctx, path, &result); err != nil {
		return nil, errors.Wrap(err, "failed to fetch balance")
	}

	if !result.OK {
		return nil, errors.New("balance lookup failed")
	}

	amount, ok := new(big.Int).SetString(result.Result, 10)
	if !ok {
		return nil, errors.Errorf("invalid balance value: %s", result.Result)
	}

	return amount, nil
}

// Snapshot resolves every query best-effort. A failed lookup degrades to zero
// with a warning so one dead endpoint cannot blank the whole overview.
func (s *service) Snapshot(ctx context.Context, queries []Query) []Result {
	log := util.LogFromContext(ctx)

	results := make([]Result, 0, len(queries))
	for _, query := range queries {
		amount, err := s.resolve(ctx, query)
		if err != nil {
			log.Warn().
				Str("chain", query.ChainType.String()).
				Str("address", query.Address).
				Err(err).
				Msg("Balance lookup failed, reporting zero")
			amount = new(big.Int)
		}

		results = append(results, Result{Query: query, Amount: amount})
	}

	return results
}

func (s *service) resolve(ctx context.Context, query Query) (*big.Int, error) {
	switch query.ChainType {
	case chain.TypeEVM:
		if query.TokenContract != "" {
			return s.EVMTokenBalance(ctx, query.ChainID, query.Address, query.TokenContract)
		}
		return s.EVMBalance(ctx, query.ChainID, query.Address)

	case chain.TypeBitcoin:
		return s.BitcoinBalance(ctx, query.Address)

	case chain.TypeSolana:
		if query.TokenContract != "" {
			return s.SolanaTokenBalance(ctx, query.Address, query.TokenContract)
		}
		return s.SolanaBalance(ctx, query.Address)

	case chain.TypeTron:
		if query.TokenContract != "" {
			return s.TronTokenBalance(ctx, query.Address, query.TokenContract)
		}
		return s.TronBalance(ctx, query.Address)

	case chain.TypeTON:
		return s.TONBalance(ctx, query.Address)

	default:
		return nil, errors.Wrapf(chain.ErrUnsupportedChain, "%d", query.ChainType)
	}
}

func parseHexQuantity(value string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(value, "0x")
	if trimmed == "" {
		return new(big.Int), nil
	}

	parsed, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, errors.Errorf("invalid hex quantity: %s", value)
	}

	return parsed, nil
}
