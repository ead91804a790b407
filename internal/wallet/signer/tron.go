package signer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/chainvault/go-signer/internal/util"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const trc20TransferSelector = "transfer(address,uint256)"

// SignTronTransaction delegates transaction construction to the node, signs
// the returned txID digest and reattaches the signature to the envelope.
func (s *service) SignTronTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTronRequest) (*SignTronResponse, error) {
	var response *SignTronResponse

	err := s.withPrivateKey(secret, encryptedKey, func(privateKey []byte) error {
		signed, err := s.signTron(ctx, req, privateKey)
		if err != nil {
			return err
		}
		response = signed

		return nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// SignAndSendTronTransaction signs and broadcasts the signed envelope.
func (s *service) SignAndSendTronTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTronRequest) (*SignTronResponse, error) {
	response, err := s.SignTronTransaction(ctx, secret, encryptedKey, req)
	if err != nil {
		return nil, err
	}

	var envelope map[string]any
	if err := json.Unmarshal(response.Transaction, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction envelope")
	}

	var result struct {
		Result  bool   `json:"result"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := s.transports.Tron.PostJSON(ctx, "/wallet/broadcasttransaction", envelope, &result); err != nil {
		return nil, errors.Wrap(err, "failed to broadcast transaction")
	}

	if !result.Result {
		return nil, errors.Wrapf(ErrBroadcastRejected, "%s: %s", result.Code, result.Message)
	}

	util.LogFromContext(ctx).Info().
		Str("txid", response.TxID).
		Msg("Broadcast TRON transaction")

	return response, nil
}

func (s *service) signTron(ctx context.Context, req *SignTronRequest, privateKey []byte) (*SignTronResponse, error) {
	publicKey, err := address.Secp256k1PublicKey(privateKey)
	if err != nil {
		return nil, err
	}

	owner, err := address.TronAddressToHex(address.TronAddress(publicKey))
	if err != nil {
		return nil, err
	}

	var envelope map[string]any
	if req.TokenContract == "" {
		envelope, err = s.createTronTransfer(ctx, owner, req)
	} else {
		envelope, err = s.createTRC20Transfer(ctx, owner, req)
	}
	if err != nil {
		return nil, err
	}

	txID, ok := envelope["txID"].(string)
	if !ok || txID == "" {
		return nil, errors.Wrap(ErrTransactionCreationFailed, "node response has no txID")
	}

	digest, err := hex.DecodeString(txID)
	if err != nil || len(digest) != 32 {
		return nil, errors.Errorf("invalid txID: %s", txID)
	}

	ecdsaKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	signature, err := crypto.Sign(digest, ecdsaKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign txID")
	}

	// TRON expects r || s || v with v = 27 + recoveryId
	signature[64] += 27
	signatureHex := hex.EncodeToString(signature)

	envelope["signature"] = []string{signatureHex}

	signed, err := json.Marshal(envelope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode signed envelope")
	}

	return &SignTronResponse{
		Transaction: signed,
		TxID:        txID,
		Signature:   signatureHex,
	}, nil
}

// createTronTransfer asks the node to build a native TRX transfer.
func (s *service) createTronTransfer(ctx context.Context, owner string, req *SignTronRequest) (map[string]any, error) {
	to, err := address.TronAddressToHex(req.To)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"owner_address": owner,
		"to_address":    to,
		"amount":        req.AmountSun,
	}

	var envelope map[string]any
	if err := s.transports.Tron.PostJSON(ctx, "/wallet/createtransaction", body, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to create transaction")
	}

	if nodeError, ok := envelope["Error"].(string); ok {
		return nil, errors.Wrap(ErrTransactionCreationFailed, nodeError)
	}

	return envelope, nil
}

// createTRC20Transfer asks the node to build a TRC20 transfer call.
func (s *service) createTRC20Transfer(ctx context.Context, owner string, req *SignTronRequest) (map[string]any, error) {
	contract, err := address.TronAddressToHex(req.TokenContract)
	if err != nil {
		return nil, err
	}

	parameter, err := trc20TransferParameter(req.To, big.NewInt(req.AmountSun))
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"owner_address":     owner,
		"contract_address":  contract,
		"function_selector": trc20TransferSelector,
		"parameter":         parameter,
		"fee_limit":         s.cfg.Tron.FeeLimitSun,
		"call_value":        0,
	}

	var result struct {
		Result struct {
			Result  bool   `json:"result"`
			Message string `json:"message"`
		} `json:"result"`
		Transaction map[string]any `json:"transaction"`
	}
	if err := s.transports.Tron.PostJSON(ctx, "/wallet/triggersmartcontract", body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to create TRC20 transfer")
	}

	if !result.Result.Result || result.Transaction == nil {
		return nil, errors.Wrap(ErrTransactionCreationFailed, result.Result.Message)
	}

	return result.Transaction, nil
}

// trc20TransferParameter ABI-encodes the transfer arguments: the recipient's
// bare 20-byte address and the amount, each left-padded to 32 bytes.
func trc20TransferParameter(to string, amount *big.Int) (string, error) {
	toHex, err := address.TronAddressToHex(to)
	if err != nil {
		return "", err
	}

	// Strip the 0x41 prefix byte, keep the 20-byte EVM-style address
	bareAddress, err := hex.DecodeString(toHex[2:])
	if err != nil {
		return "", errors.Wrap(err, "failed to decode address hex")
	}

	parameter := make([]byte, 64)
	copy(parameter[32-len(bareAddress):32], bareAddress)
	amount.FillBytes(parameter[32:])

	return hex.EncodeToString(parameter), nil
}
