package balance

import (
	"context"
	"math/big"

	"github.com/chainvault/go-signer/internal/wallet/chain"
)

// Query identifies one balance to fetch.
type Query struct {
	ChainType chain.Type
	Address   string
	// ChainID selects the EVM network; ignored for other chains.
	ChainID int64
	// TokenContract switches to a token balance (ERC20/TRC20 contract or SPL
	// mint) instead of the native one.
	TokenContract string
}

// Result is the resolved balance in the chain's smallest unit (wei, satoshi,
// lamport, sun, nanoton).
type Result struct {
	Query
	Amount *big.Int
}

// Service reads native and token balances from chain state.
type Service interface {
	// EVMBalance returns the native balance in wei.
	EVMBalance(ctx context.Context, chainID int64, address string) (*big.Int, error)

	// EVMTokenBalance returns an ERC20 balance via eth_call balanceOf.
	EVMTokenBalance(ctx context.Context, chainID int64, address, tokenContract string) (*big.Int, error)

	// BitcoinBalance sums the address's unspent outputs, in satoshis.
	BitcoinBalance(ctx context.Context, address string) (*big.Int, error)

	// SolanaBalance returns the lamport balance.
	SolanaBalance(ctx context.Context, address string) (*big.Int, error)

	// SolanaTokenBalance sums the owner's SPL token accounts for a mint via
	// getTokenAccountsByOwner.
	SolanaTokenBalance(ctx context.Context, address, tokenMint string) (*big.Int, error)

	// TronBalance returns the native TRX balance in sun.
	TronBalance(ctx context.Context, address string) (*big.Int, error)

	// TronTokenBalance returns a TRC20 balance via triggerconstantcontract.
	TronTokenBalance(ctx context.Context, address, tokenContract string) (*big.Int, error)

	// TONBalance returns the nanoton balance.
	TONBalance(ctx context.Context, address string) (*big.Int, error)

	// Snapshot resolves every query best-effort: a failed lookup degrades to a
	// zero amount with a warning instead of failing the whole snapshot.
	Snapshot(ctx context.Context, queries []Query) []Result
}
