package address

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
)

// EVMAddress derives the EVM address: Keccak-256 over the uncompressed public
// key (0x04 prefix dropped), last 20 bytes, hex with 0x prefix.
func EVMAddress(publicKey *btcec.PublicKey) string {
	uncompressed := publicKey.SerializeUncompressed()
	hash := crypto.Keccak256(uncompressed[1:])

	return "0x" + hex.EncodeToString(hash[12:])
}
