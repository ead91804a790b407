package signer

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/chainvault/go-signer/internal/util"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	bitcoinTxVersion = 1
	sighashAll       = 0x01
	sequenceFinal    = 0xffffffff

	opDup         = 0x76
	opHash160     = 0xa9
	opEqualVerify = 0x88
	opChecksig    = 0xac
)

// SignBitcoinTransaction selects UTXOs, assembles a version-1 P2PKH transaction
// and signs every input with SIGHASH_ALL.
func (s *service) SignBitcoinTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignBitcoinRequest) (*SignBitcoinResponse, error) {
	var response *SignBitcoinResponse

	err := s.withPrivateKey(secret, encryptedKey, func(privateKey []byte) error {
		signed, err := s.signBitcoin(ctx, req, privateKey)
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

// SignAndSendBitcoinTransaction signs and broadcasts the raw transaction hex
// to the esplora /tx endpoint.
func (s *service) SignAndSendBitcoinTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignBitcoinRequest) (*SignBitcoinResponse, error) {
	response, err := s.SignBitcoinTransaction(ctx, secret, encryptedKey, req)
	if err != nil {
		return nil, err
	}

	txID, err := s.transports.Bitcoin.PostText(ctx, "/tx", hex.EncodeToString(response.RawTransaction))
	if err != nil {
		return nil, errors.Wrap(ErrBroadcastRejected, err.Error())
	}

	util.LogFromContext(ctx).Info().
		Str("txid", txID).
		Msg("Broadcast Bitcoin transaction")

	return response, nil
}

func (s *service) signBitcoin(ctx context.Context, req *SignBitcoinRequest, privateKey []byte) (*SignBitcoinResponse, error) {
	publicKey, err := address.Secp256k1PublicKey(privateKey)
	if err != nil {
		return nil, err
	}

	compressed := publicKey.SerializeCompressed()
	sender := address.BitcoinAddress(compressed, s.cfg.Bitcoin.Network)

	utxos, err := s.fetchUTXOs(ctx, sender)
	if err != nil {
		return nil, err
	}
	if len(utxos) == 0 {
		return nil, errors.Wrap(ErrNoUTXOsAvailable, sender)
	}

	fee := req.FeeSats
	if fee == 0 {
		fee = s.cfg.Bitcoin.DefaultFeeSats
	}

	var total int64
	for _, utxo := range utxos {
		total += utxo.ValueSats
	}

	change := total - req.AmountSats - fee
	if change < 0 {
		return nil, errors.Wrapf(ErrInsufficientFunds, "have %d sats, need %d", total, req.AmountSats+fee)
	}

	outputs, err := s.buildOutputs(req, sender, change)
	if err != nil {
		return nil, err
	}

	senderScript, err := p2pkhScriptForAddress(sender)
	if err != nil {
		return nil, err
	}

	scriptSigs := make([][]byte, len(utxos))
	for i := range utxos {
		preimage, err := serializeBitcoinTx(utxos, outputs, i, senderScript)
		if err != nil {
			return nil, err
		}
		preimage = codec.AppendUint32LE(preimage, sighashAll)

		signature, err := signBitcoinInput(codec.DoubleSHA256(preimage), privateKey)
		if err != nil {
			return nil, err
		}

		scriptSigs[i] = buildScriptSig(signature, compressed)
	}

	raw, err := serializeSignedBitcoinTx(utxos, outputs, scriptSigs)
	if err != nil {
		return nil, err
	}

	return &SignBitcoinResponse{
		RawTransaction: raw,
		TxID:           displayTxID(raw),
	}, nil
}

// fetchUTXOs queries the esplora-style API for the sender's unspent outputs.
func (s *service) fetchUTXOs(ctx context.Context, sender string) ([]UTXO, error) {
	var utxos []UTXO
	if err := s.transports.Bitcoin.GetJSON(ctx, fmt.Sprintf("/address/%s/utxo", sender), &utxos); err != nil {
		return nil, errors.Wrap(err, "failed to fetch UTXOs")
	}

	return utxos, nil
}

type bitcoinOutput struct {
	valueSats int64
	script    []byte
}

// buildOutputs creates the recipient output plus a change output back to the
// change (or sender) address when the change exceeds the dust threshold.
func (s *service) buildOutputs(req *SignBitcoinRequest, sender string, change int64) ([]bitcoinOutput, error) {
	recipientScript, err := p2pkhScriptForAddress(req.To)
	if err != nil {
		return nil, err
	}

	outputs := []bitcoinOutput{{valueSats: req.AmountSats, script: recipientScript}}

	if change > s.cfg.Bitcoin.DustThresholdSats {
		changeAddress := req.ChangeAddress
		if changeAddress == "" {
			changeAddress = sender
		}

		changeScript, err := p2pkhScriptForAddress(changeAddress)
		if err != nil {
			return nil, err
		}

		outputs = append(outputs, bitcoinOutput{valueSats: change, script: changeScript})
	}

	return outputs, nil
}

// p2pkhScriptForAddress builds the standard locking script
// OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG.
func p2pkhScriptForAddress(addr string) ([]byte, error) {
	_, pubKeyHash, err := address.DecodeBitcoinAddress(addr)
	if err != nil {
		return nil, err
	}

	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, byte(len(pubKeyHash)))
	script = append(script, pubKeyHash...)
	script = append(script, opEqualVerify, opChecksig)

	return script, nil
}

// serializeBitcoinTx serializes the transaction for the signature preimage of
// input signingIndex: that input carries the sender's locking script, every
// other input has an empty script.
func serializeBitcoinTx(utxos []UTXO, outputs []bitcoinOutput, signingIndex int, senderScript []byte) ([]byte, error) {
	scriptSigs := make([][]byte, len(utxos))
	scriptSigs[signingIndex] = senderScript

	return serializeSignedBitcoinTx(utxos, outputs, scriptSigs)
}

// serializeSignedBitcoinTx writes the wire form: version, inputs with the
// given scripts, outputs, locktime.
func serializeSignedBitcoinTx(utxos []UTXO, outputs []bitcoinOutput, scriptSigs [][]byte) ([]byte, error) {
	var tx []byte
	tx = codec.AppendUint32LE(tx, bitcoinTxVersion)

	tx = codec.AppendVarint(tx, uint64(len(utxos)))
	for i, utxo := range utxos {
		txHash, err := reversedTxID(utxo.TxID)
		if err != nil {
			return nil, err
		}

		tx = append(tx, txHash...)
		tx = codec.AppendUint32LE(tx, utxo.Vout)
		tx = codec.AppendVarint(tx, uint64(len(scriptSigs[i])))
		tx = append(tx, scriptSigs[i]...)
		tx = codec.AppendUint32LE(tx, sequenceFinal)
	}

	tx = codec.AppendVarint(tx, uint64(len(outputs)))
	for _, output := range outputs {
		tx = codec.AppendUint64LE(tx, uint64(output.valueSats))
		tx = codec.AppendVarint(tx, uint64(len(output.script)))
		tx = append(tx, output.script...)
	}

	tx = codec.AppendUint32LE(tx, 0) // locktime

	return tx, nil
}

// signBitcoinInput produces a DER-encoded low-S ECDSA signature over the
// double-SHA256 digest, with the SIGHASH_ALL byte appended.
func signBitcoinInput(digest []byte, privateKey []byte) ([]byte, error) {
	ecdsaKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	signature, err := crypto.Sign(digest, ecdsaKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign input")
	}

	r := new(big.Int).SetBytes(signature[:32])
	sVal := new(big.Int).SetBytes(signature[32:64])

	// Enforce low S (BIP-62); high-S signatures are non-standard
	curveOrder := btcec.S256().N
	halfOrder := new(big.Int).Rsh(curveOrder, 1)
	if sVal.Cmp(halfOrder) > 0 {
		sVal.Sub(curveOrder, sVal)
	}

	return append(encodeDERSignature(r, sVal), sighashAll), nil
}

// encodeDERSignature encodes (r, s) as a DER SEQUENCE of two INTEGERs with
// minimal encoding.
func encodeDERSignature(r, s *big.Int) []byte {
	rBytes := derInteger(r)
	sBytes := derInteger(s)

	der := make([]byte, 0, len(rBytes)+len(sBytes)+6)
	der = append(der, 0x30, byte(len(rBytes)+len(sBytes)+4))
	der = append(der, 0x02, byte(len(rBytes)))
	der = append(der, rBytes...)
	der = append(der, 0x02, byte(len(sBytes)))
	der = append(der, sBytes...)

	return der
}

// derInteger returns the minimal big-endian encoding, prefixed with a zero
// byte when the high bit is set so the value stays positive.
func derInteger(value *big.Int) []byte {
	encoded := value.Bytes()
	if len(encoded) == 0 {
		encoded = []byte{0x00}
	}
	if encoded[0]&0x80 != 0 {
		encoded = append([]byte{0x00}, encoded...)
	}

	return encoded
}

// buildScriptSig builds the P2PKH unlocking script:
// <sig+sighash> <compressed pubkey>, each with a length push.
func buildScriptSig(signature, compressedPublicKey []byte) []byte {
	script := make([]byte, 0, len(signature)+len(compressedPublicKey)+2)
	script = append(script, byte(len(signature)))
	script = append(script, signature...)
	script = append(script, byte(len(compressedPublicKey)))
	script = append(script, compressedPublicKey...)

	return script
}

// reversedTxID converts a display-order txid hex into the little-endian wire
// byte order.
func reversedTxID(txID string) ([]byte, error) {
	decoded, err := hex.DecodeString(txID)
	if err != nil || len(decoded) != 32 {
		return nil, errors.Errorf("invalid txid: %s", txID)
	}

	reversed := make([]byte, len(decoded))
	for i, b := range decoded {
		reversed[len(decoded)-1-i] = b
	}

	return reversed, nil
}

// displayTxID computes the display-order transaction id: double-SHA256 of the
// raw transaction, byte-reversed, hex-encoded.
func displayTxID(raw []byte) string {
	hash := codec.DoubleSHA256(raw)
	reversed := make([]byte, len(hash))
	for i, b := range hash {
		reversed[len(hash)-1-i] = b
	}

	return hex.EncodeToString(reversed)
}
