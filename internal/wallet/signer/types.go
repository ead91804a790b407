package signer

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// Service signs transactions for all supported chain families. Every method
// takes the device secret and the encrypted key record: the private key is
// decrypted into transient memory, used for exactly one signing call and
// zeroed before the method returns, on every exit path.
type Service interface {
	// SignEVMTransaction assembles, signs and RLP-encodes an EVM transaction
	// (legacy or EIP-1559 depending on the request and network).
	SignEVMTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignEVMRequest) (*SignEVMResponse, error)

	// SignAndSendEVMTransaction signs and broadcasts via eth_sendRawTransaction.
	SignAndSendEVMTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignEVMRequest) (*SignEVMResponse, error)

	// SignEVMMessage signs a personal message ("\x19Ethereum Signed Message:\n"
	// prefix), returning the 65-byte r||s||v signature hex-encoded.
	SignEVMMessage(ctx context.Context, secret []byte, encryptedKey string, message []byte) (string, error)

	// SignEVMTypedData signs keccak256(0x19 0x01 || keccak(domainJSON) ||
	// keccak(messageJSON)). The struct hashing is intentionally simplified to
	// raw JSON hashing for compatibility with the deployed wallets.
	SignEVMTypedData(ctx context.Context, secret []byte, encryptedKey string, domainJSON, messageJSON []byte) (string, error)

	// SignBitcoinTransaction selects UTXOs, builds and signs a classic P2PKH
	// transaction.
	SignBitcoinTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignBitcoinRequest) (*SignBitcoinResponse, error)

	// SignAndSendBitcoinTransaction signs and broadcasts the raw transaction.
	SignAndSendBitcoinTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignBitcoinRequest) (*SignBitcoinResponse, error)

	// SignSolanaTransaction builds and signs a legacy Solana transfer
	// transaction over a freshly fetched blockhash.
	SignSolanaTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignSolanaRequest) (*SignSolanaResponse, error)

	// SignAndSendSolanaTransaction signs and broadcasts via sendTransaction.
	SignAndSendSolanaTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignSolanaRequest) (*SignSolanaResponse, error)

	// SignTronTransaction delegates construction to the node, signs the
	// returned txID and reattaches the signature to the node envelope.
	SignTronTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTronRequest) (*SignTronResponse, error)

	// SignAndSendTronTransaction signs and broadcasts the signed envelope.
	SignAndSendTronTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTronRequest) (*SignTronResponse, error)

	// SignTONTransaction builds, signs and BOC-encodes a wallet transfer.
	SignTONTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTONRequest) (*SignTONResponse, error)

	// SignAndSendTONTransaction signs and broadcasts the BOC.
	SignAndSendTONTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTONRequest) (*SignTONResponse, error)
}

// SignEVMRequest describes an EVM transfer or contract call. Optional fields
// left at their zero value are resolved against chain state just in time.
type SignEVMRequest struct {
	ChainID int64
	To      string
	// ValueWei is the native amount; nil means zero.
	ValueWei *big.Int
	// Data is the calldata for contract calls.
	Data []byte
	// Nonce overrides the pending-nonce lookup when non-nil.
	Nonce *uint64
	// GasLimit of 0 triggers estimation with a 20% buffer (21000 fallback).
	GasLimit uint64
	// GasPriceWei forces a legacy transaction when set.
	GasPriceWei *big.Int
	// MaxFeePerGasWei / MaxPriorityFeePerGasWei select EIP-1559 pricing.
	MaxFeePerGasWei         *big.Int
	MaxPriorityFeePerGasWei *big.Int
}

// SignEVMResponse is the signed, wire-ready EVM transaction.
type SignEVMResponse struct {
	// RawTransaction is the RLP-encoded signed payload, type-prefixed for
	// EIP-1559.
	RawTransaction []byte
	// TxHash is keccak256 of the raw bytes, hex with 0x prefix.
	TxHash string
}

// UTXO is one unspent output of the sender address.
type UTXO struct {
	TxID         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	ValueSats    int64  `json:"value"`
	ScriptPubKey string `json:"scriptpubkey,omitempty"`
}

// SignBitcoinRequest describes a Bitcoin-style P2PKH transfer.
type SignBitcoinRequest struct {
	To         string
	AmountSats int64
	// FeeSats of 0 uses the configured default fee.
	FeeSats int64
	// ChangeAddress defaults to the sender address when empty.
	ChangeAddress string
}

// SignBitcoinResponse is the signed raw transaction and its display-order id.
type SignBitcoinResponse struct {
	RawTransaction []byte
	TxID           string
}

// SignSolanaRequest describes a System Program lamport transfer.
type SignSolanaRequest struct {
	To       string
	Lamports uint64
}

// SignSolanaResponse is the base64 wire transaction and its base58 signature.
type SignSolanaResponse struct {
	SignedTransaction string
	Signature         string
}

// SignTronRequest describes a TRX or TRC20 transfer. A non-empty TokenContract
// switches to a triggersmartcontract TRC20 transfer.
type SignTronRequest struct {
	To            string
	AmountSun     int64
	TokenContract string
}

// SignTronResponse is the node transaction envelope with the signature
// attached.
type SignTronResponse struct {
	Transaction json.RawMessage
	TxID        string
	Signature   string
}

// SignTONRequest describes an internal TON transfer with an optional text
// comment.
type SignTONRequest struct {
	To            string
	AmountNanoton uint64
	Comment       string
	Bounce        bool
}

// SignTONResponse is the base64 BOC and its reported hash.
type SignTONResponse struct {
	BOC  string
	Hash string
}

// Error taxonomy shared by the signers.
var (
	// ErrInsufficientFunds is returned when the UTXO set cannot cover
	// amount + fee.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoUTXOsAvailable is returned when the sender address has no
	// spendable outputs.
	ErrNoUTXOsAvailable = errors.New("no UTXOs available")
	// ErrTransactionCreationFailed is returned when the TRON node rejects
	// transaction construction.
	ErrTransactionCreationFailed = errors.New("transaction creation failed")
	// ErrBroadcastRejected is returned when the TRON node rejects the signed
	// envelope.
	ErrBroadcastRejected = errors.New("broadcast rejected")
)
