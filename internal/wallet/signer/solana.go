package signer

import (
	"context"
	"crypto/ed25519"

	"github.com/chainvault/go-signer/internal/util"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/pkg/errors"
)

const (
	solanaAccountSize = 32
	solanaSignerCount = 1

	// System Program transfer instruction discriminant.
	systemProgramTransfer = 2
)

// solanaSystemProgram is the all-zero System Program id.
var solanaSystemProgram = make([]byte, solanaAccountSize)

// SignSolanaTransaction builds a legacy System Program transfer over a freshly
// fetched blockhash and signs it.
func (s *service) SignSolanaTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignSolanaRequest) (*SignSolanaResponse, error) {
	var response *SignSolanaResponse

	err := s.withPrivateKey(secret, encryptedKey, func(privateKey []byte) error {
		signed, err := s.signSolana(ctx, req, privateKey)
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

// SignAndSendSolanaTransaction signs and broadcasts via sendTransaction with
// base64 encoding.
func (s *service) SignAndSendSolanaTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignSolanaRequest) (*SignSolanaResponse, error) {
	response, err := s.SignSolanaTransaction(ctx, secret, encryptedKey, req)
	if err != nil {
		return nil, err
	}

	var signature string
	params := []any{response.SignedTransaction, map[string]any{"encoding": "base64"}}
	if err := s.transports.Solana.Call(ctx, "sendTransaction", params, &signature); err != nil {
		return nil, errors.Wrap(err, "failed to broadcast transaction")
	}

	util.LogFromContext(ctx).Info().
		Str("signature", signature).
		Msg("Broadcast Solana transaction")

	return response, nil
}

func (s *service) signSolana(ctx context.Context, req *SignSolanaRequest, privateKey []byte) (*SignSolanaResponse, error) {
	key, err := address.Ed25519PrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	publicKey, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("failed to extract ed25519 public key")
	}

	recipient, err := address.DecodeSolanaAddress(req.To)
	if err != nil {
		return nil, err
	}

	blockhash, err := s.fetchLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	message := buildSolanaTransferMessage(publicKey, recipient, blockhash, req.Lamports)
	signature := ed25519.Sign(key, message)

	// Wire form: signature count, signatures, then the message
	var tx []byte
	tx = codec.AppendCompactU16(tx, solanaSignerCount)
	tx = append(tx, signature...)
	tx = append(tx, message...)

	return &SignSolanaResponse{
		SignedTransaction: codec.EncodeBase64(tx),
		Signature:         codec.EncodeBase58(signature),
	}, nil
}

// fetchLatestBlockhash returns the raw 32-byte recent blockhash.
func (s *service) fetchLatestBlockhash(ctx context.Context) ([]byte, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	params := []any{map[string]any{"commitment": "finalized"}}
	if err := s.transports.Solana.Call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return nil, errors.Wrap(err, "failed to fetch latest blockhash")
	}

	blockhash, err := codec.DecodeBase58(result.Value.Blockhash)
	if err != nil || len(blockhash) != solanaAccountSize {
		return nil, errors.Errorf("invalid blockhash: %s", result.Value.Blockhash)
	}

	return blockhash, nil
}

// buildSolanaTransferMessage assembles a legacy message with three static
// accounts (sender, recipient, System Program) and a single transfer
// instruction.
func buildSolanaTransferMessage(sender, recipient, blockhash []byte, lamports uint64) []byte {
	var message []byte

	// Header: 1 required signature, 0 read-only signed, 1 read-only unsigned
	// (the System Program).
	message = append(message, 1, 0, 1)

	message = codec.AppendCompactU16(message, 3)
	message = append(message, sender...)
	message = append(message, recipient...)
	message = append(message, solanaSystemProgram...)

	message = append(message, blockhash...)

	message = codec.AppendCompactU16(message, 1) // instruction count
	message = append(message, 2)                 // program id index
	message = codec.AppendCompactU16(message, 2) // account count
	message = append(message, 0, 1)              // sender, recipient

	data := SolanaTransferInstructionData(lamports)
	message = codec.AppendCompactU16(message, uint16(len(data)))
	message = append(message, data...)

	return message
}

// SolanaTransferInstructionData encodes the 12-byte System Program transfer
// payload: u32 LE discriminant followed by the u64 LE lamport amount.
func SolanaTransferInstructionData(lamports uint64) []byte {
	data := codec.AppendUint32LE(nil, systemProgramTransfer)

	return codec.AppendUint64LE(data, lamports)
}
