package chain

import (
	"github.com/pkg/errors"
)

// Type identifies one of the supported chain families. Using a closed enum
// instead of free-form strings keeps chain dispatch exhaustive at compile
// time.
type Type uint8

const (
	// TypeEVM covers Ethereum and EVM-compatible networks.
	TypeEVM Type = iota + 1
	// TypeBitcoin covers Bitcoin-style UTXO networks.
	TypeBitcoin
	// TypeSolana is the Solana network.
	TypeSolana
	// TypeTron is the TRON network.
	TypeTron
	// TypeTON is The Open Network.
	TypeTON
)

// ErrUnsupportedChain is returned for chain types outside the supported set.
var ErrUnsupportedChain = errors.New("unsupported chain type")

// All returns every supported chain type.
func All() []Type {
	return []Type{TypeEVM, TypeBitcoin, TypeSolana, TypeTron, TypeTON}
}

// String returns the canonical lowercase name of the chain type.
func (t Type) String() string {
	switch t {
	case TypeEVM:
		return "evm"
	case TypeBitcoin:
		return "bitcoin"
	case TypeSolana:
		return "solana"
	case TypeTron:
		return "tron"
	case TypeTON:
		return "ton"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the supported chain types.
func (t Type) Valid() bool {
	switch t {
	case TypeEVM, TypeBitcoin, TypeSolana, TypeTron, TypeTON:
		return true
	default:
		return false
	}
}

// ParseType parses a chain name as used in configuration and CLI flags.
func ParseType(name string) (Type, error) {
	switch name {
	case "evm", "ethereum", "eth":
		return TypeEVM, nil
	case "bitcoin", "btc":
		return TypeBitcoin, nil
	case "solana", "sol":
		return TypeSolana, nil
	case "tron", "trx":
		return TypeTron, nil
	case "ton":
		return TypeTON, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedChain, "%q", name)
	}
}

// BitcoinNetwork selects the Bitcoin network parameters.
type BitcoinNetwork uint8

const (
	// BitcoinMainnet is the production Bitcoin network.
	BitcoinMainnet BitcoinNetwork = iota
	// BitcoinTestnet is testnet3.
	BitcoinTestnet
)

// P2PKHVersion returns the Base58Check version byte for P2PKH addresses on
// the network.
func (n BitcoinNetwork) P2PKHVersion() byte {
	if n == BitcoinTestnet {
		return 0x6f
	}

	return 0x00
}

// ParseBitcoinNetwork parses a Bitcoin network name.
func ParseBitcoinNetwork(name string) (BitcoinNetwork, error) {
	switch name {
	case "mainnet", "":
		return BitcoinMainnet, nil
	case "testnet", "testnet3":
		return BitcoinTestnet, nil
	default:
		return 0, errors.Errorf("unknown bitcoin network: %q", name)
	}
}
