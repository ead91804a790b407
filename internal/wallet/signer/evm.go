package signer

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/chainvault/go-signer/internal/util"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/chainvault/go-signer/internal/wallet/rpc"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	evmAddressSize         = 20
	defaultGasLimit        = 21000
	eip1559TxType          = 0x02
	fallbackPriorityFeeWei = 1_500_000_000 // 1.5 gwei
)

// SignEVMTransaction assembles, signs and RLP-encodes an EVM transaction.
func (s *service) SignEVMTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignEVMRequest) (*SignEVMResponse, error) {
	network, err := s.cfg.EVMNetwork(req.ChainID)
	if err != nil {
		return nil, err
	}

	caller, err := s.evmCaller(req.ChainID)
	if err != nil {
		return nil, err
	}

	var response *SignEVMResponse
	err = s.withPrivateKey(secret, encryptedKey, func(privateKey []byte) error {
		response, err = s.signEVM(ctx, caller, network.LegacyOnly, req, privateKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// SignAndSendEVMTransaction signs and broadcasts via eth_sendRawTransaction.
func (s *service) SignAndSendEVMTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignEVMRequest) (*SignEVMResponse, error) {
	response, err := s.SignEVMTransaction(ctx, secret, encryptedKey, req)
	if err != nil {
		return nil, err
	}

	caller, err := s.evmCaller(req.ChainID)
	if err != nil {
		return nil, err
	}

	var txHash string
	rawHex := util.EncodeHexPrefixed(response.RawTransaction)
	if err := caller.Call(ctx, "eth_sendRawTransaction", []any{rawHex}, &txHash); err != nil {
		return nil, errors.Wrap(err, "failed to broadcast transaction")
	}

	util.LogFromContext(ctx).Info().
		Int64("chain_id", req.ChainID).
		Str("tx_hash", txHash).
		Msg("Broadcast EVM transaction")

	response.TxHash = txHash

	return response, nil
}

// signEVM runs the signing pipeline: resolve nonce, fees and gas limit, then
// RLP-encode, hash and sign.
func (s *service) signEVM(ctx context.Context, caller rpc.Caller, legacyOnly bool, req *SignEVMRequest, privateKey []byte) (*SignEVMResponse, error) {
	publicKey, err := address.Secp256k1PublicKey(privateKey)
	if err != nil {
		return nil, err
	}
	from := address.EVMAddress(publicKey)

	to, err := util.DecodeHex(req.To)
	if err != nil || len(to) != evmAddressSize {
		return nil, errors.Errorf("invalid recipient address: %s", req.To)
	}

	value := req.ValueWei
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := s.resolveNonce(ctx, caller, from, req.Nonce)
	if err != nil {
		return nil, err
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = s.estimateGas(ctx, caller, from, req.To, value, req.Data)
	}

	ecdsaKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	// EIP-1559 unless the request forces a legacy gas price or the network
	// has no fee market.
	useDynamicFees := req.GasPriceWei == nil && (!legacyOnly || req.MaxFeePerGasWei != nil)

	var raw []byte
	if useDynamicFees {
		maxFee, tip, err := s.resolveDynamicFees(ctx, caller, req)
		if err != nil {
			return nil, err
		}

		raw, err = signDynamicFeeTx(ecdsaKey, req.ChainID, nonce, tip, maxFee, gasLimit, to, value, req.Data)
		if err != nil {
			return nil, err
		}
	} else {
		gasPrice, err := s.resolveGasPrice(ctx, caller, req.GasPriceWei)
		if err != nil {
			return nil, err
		}

		raw, err = signLegacyTx(ecdsaKey, req.ChainID, nonce, gasPrice, gasLimit, to, value, req.Data)
		if err != nil {
			return nil, err
		}
	}

	return &SignEVMResponse{
		RawTransaction: raw,
		TxHash:         util.EncodeHexPrefixed(crypto.Keccak256(raw)),
	}, nil
}

func (s *service) resolveNonce(ctx context.Context, caller rpc.Caller, from string, override *uint64) (uint64, error) {
	if override != nil {
		return *override, nil
	}

	var nonceHex string
	if err := caller.Call(ctx, "eth_getTransactionCount", []any{from, "pending"}, &nonceHex); err != nil {
		return 0, errors.Wrap(err, "failed to fetch nonce")
	}

	nonce, err := hexToBig(nonceHex)
	if err != nil {
		return 0, err
	}

	return nonce.Uint64(), nil
}

// estimateGas estimates with a 20% buffer and falls back to the plain
// transfer cost when estimation fails.
func (s *service) estimateGas(ctx context.Context, caller rpc.Caller, from, to string, value *big.Int, data []byte) uint64 {
	msg := map[string]any{
		"from":  from,
		"to":    to,
		"value": bigToHex(value),
	}
	if len(data) > 0 {
		msg["data"] = util.EncodeHexPrefixed(data)
	}

	var gasHex string
	if err := caller.Call(ctx, "eth_estimateGas", []any{msg}, &gasHex); err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Msg("Gas estimation failed, using default gas limit")
		return defaultGasLimit
	}

	estimated, err := hexToBig(gasHex)
	if err != nil {
		return defaultGasLimit
	}

	return estimated.Uint64() * 12 / 10
}

func (s *service) resolveGasPrice(ctx context.Context, caller rpc.Caller, override *big.Int) (*big.Int, error) {
	if override != nil {
		return override, nil
	}

	var priceHex string
	if err := caller.Call(ctx, "eth_gasPrice", nil, &priceHex); err != nil {
		return nil, errors.Wrap(err, "failed to fetch gas price")
	}

	return hexToBig(priceHex)
}

// resolveDynamicFees returns (maxFeePerGas, maxPriorityFeePerGas), fetching
// whatever the request left unspecified.
func (s *service) resolveDynamicFees(ctx context.Context, caller rpc.Caller, req *SignEVMRequest) (*big.Int, *big.Int, error) {
	tip := req.MaxPriorityFeePerGasWei
	if tip == nil {
		var tipHex string
		if err := caller.Call(ctx, "eth_maxPriorityFeePerGas", nil, &tipHex); err != nil {
			util.LogFromContext(ctx).Warn().Err(err).Msg("Priority fee lookup failed, using fallback")
			tip = big.NewInt(fallbackPriorityFeeWei)
		} else {
			parsed, err := hexToBig(tipHex)
			if err != nil {
				return nil, nil, err
			}
			tip = parsed
		}
	}

	maxFee := req.MaxFeePerGasWei
	if maxFee == nil {
		var block struct {
			BaseFeePerGas string `json:"baseFeePerGas"`
		}
		if err := caller.Call(ctx, "eth_getBlockByNumber", []any{"latest", false}, &block); err != nil {
			return nil, nil, errors.Wrap(err, "failed to fetch latest block")
		}

		baseFee, err := hexToBig(block.BaseFeePerGas)
		if err != nil {
			return nil, nil, err
		}

		// maxFee = 2*baseFee + tip leaves headroom for base-fee growth
		maxFee = new(big.Int).Lsh(baseFee, 1)
		maxFee.Add(maxFee, tip)
	}

	return maxFee, tip, nil
}

// signLegacyTx signs an EIP-155 legacy transaction:
// v = chainId*2 + 35 + recoveryId.
func signLegacyTx(key *ecdsa.PrivateKey, chainID int64, nonce uint64, gasPrice *big.Int, gasLimit uint64, to []byte, value *big.Int, data []byte) ([]byte, error) {
	unsigned := codec.EncodeRLPList(
		codec.EncodeRLPUint64(nonce),
		codec.EncodeRLPBigInt(gasPrice),
		codec.EncodeRLPUint64(gasLimit),
		codec.EncodeRLPBytes(to),
		codec.EncodeRLPBigInt(value),
		codec.EncodeRLPBytes(data),
		codec.EncodeRLPUint64(uint64(chainID)),
		codec.EncodeRLPUint64(0),
		codec.EncodeRLPUint64(0),
	)

	r, sVal, recID, err := signDigest(crypto.Keccak256(unsigned), key)
	if err != nil {
		return nil, err
	}

	v := new(big.Int).SetInt64(chainID*2 + 35 + int64(recID))

	return codec.EncodeRLPList(
		codec.EncodeRLPUint64(nonce),
		codec.EncodeRLPBigInt(gasPrice),
		codec.EncodeRLPUint64(gasLimit),
		codec.EncodeRLPBytes(to),
		codec.EncodeRLPBigInt(value),
		codec.EncodeRLPBytes(data),
		codec.EncodeRLPBigInt(v),
		codec.EncodeRLPBigInt(r),
		codec.EncodeRLPBigInt(sVal),
	), nil
}

// signDynamicFeeTx signs a type-0x02 EIP-1559 transaction with an empty
// access list. The signature v is the bare recovery id.
func signDynamicFeeTx(key *ecdsa.PrivateKey, chainID int64, nonce uint64, tip, maxFee *big.Int, gasLimit uint64, to []byte, value *big.Int, data []byte) ([]byte, error) {
	fields := [][]byte{
		codec.EncodeRLPUint64(uint64(chainID)),
		codec.EncodeRLPUint64(nonce),
		codec.EncodeRLPBigInt(tip),
		codec.EncodeRLPBigInt(maxFee),
		codec.EncodeRLPUint64(gasLimit),
		codec.EncodeRLPBytes(to),
		codec.EncodeRLPBigInt(value),
		codec.EncodeRLPBytes(data),
		codec.EncodeRLPList(), // access list
	}

	unsigned := append([]byte{eip1559TxType}, codec.EncodeRLPList(fields...)...)

	r, sVal, recID, err := signDigest(crypto.Keccak256(unsigned), key)
	if err != nil {
		return nil, err
	}

	signed := append(fields,
		codec.EncodeRLPUint64(uint64(recID)),
		codec.EncodeRLPBigInt(r),
		codec.EncodeRLPBigInt(sVal),
	)

	return append([]byte{eip1559TxType}, codec.EncodeRLPList(signed...)...), nil
}

// signDigest produces a recoverable secp256k1 signature over a 32-byte digest
// and splits it into (r, s, recoveryId).
func signDigest(digest []byte, key *ecdsa.PrivateKey) (*big.Int, *big.Int, byte, error) {
	signature, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "failed to sign digest")
	}

	r := new(big.Int).SetBytes(signature[:32])
	sVal := new(big.Int).SetBytes(signature[32:64])

	return r, sVal, signature[64], nil
}

// ERC20TransferData builds the calldata for transfer(address,uint256): the
// 4-byte selector followed by the recipient and amount, each padded to 32
// bytes.
func ERC20TransferData(to string, amount *big.Int) ([]byte, error) {
	recipient, err := util.DecodeHex(to)
	if err != nil || len(recipient) != evmAddressSize {
		return nil, errors.Errorf("invalid recipient address: %s", to)
	}

	data := make([]byte, 4+32+32)
	copy(data, []byte{0xa9, 0x05, 0x9c, 0xbb}) // transfer(address,uint256)
	copy(data[4+12:4+32], recipient)
	amount.FillBytes(data[4+32:])

	return data, nil
}

func hexToBig(hexValue string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(hexValue, "0x")
	if trimmed == "" {
		return new(big.Int), nil
	}

	value, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, errors.Errorf("invalid hex quantity: %s", hexValue)
	}

	return value, nil
}

func bigToHex(value *big.Int) string {
	if value == nil || value.Sign() == 0 {
		return "0x0"
	}

	return "0x" + value.Text(16)
}
