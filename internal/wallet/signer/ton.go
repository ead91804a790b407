package signer

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"time"

	"github.com/chainvault/go-signer/internal/util"
	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/codec"
	"github.com/pkg/errors"
)

const (
	// tonSubwalletID is the default wallet-v4 subwallet id.
	tonSubwalletID = 698983191
	// tonMessageTTL bounds how long the signed transfer stays valid.
	tonMessageTTL = 60 * time.Second
	// tonSendMode pays fees from the sender balance and ignores errors on the
	// action phase (mode 3), the wallet-v4 default.
	tonSendMode = 3

	tonMessageHeaderBounce    = 0x18
	tonMessageHeaderNonBounce = 0x10
)

// SignTONTransaction builds a wallet-v4 style transfer cell, signs its SHA-256
// hash with ed25519 and packages the result as a base64 BOC.
func (s *service) SignTONTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTONRequest) (*SignTONResponse, error) {
	var response *SignTONResponse

	err := s.withPrivateKey(secret, encryptedKey, func(privateKey []byte) error {
		signed, err := s.signTON(ctx, req, privateKey)
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

// SignAndSendTONTransaction signs and broadcasts the BOC via /sendBoc.
func (s *service) SignAndSendTONTransaction(ctx context.Context, secret []byte, encryptedKey string, req *SignTONRequest) (*SignTONResponse, error) {
	response, err := s.SignTONTransaction(ctx, secret, encryptedKey, req)
	if err != nil {
		return nil, err
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := s.transports.TON.PostJSON(ctx, "/sendBoc", map[string]any{"boc": response.BOC}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to broadcast transaction")
	}

	if !result.OK {
		return nil, errors.Wrap(ErrBroadcastRejected, result.Error)
	}

	util.LogFromContext(ctx).Info().
		Str("hash", response.Hash).
		Msg("Broadcast TON transaction")

	return response, nil
}

func (s *service) signTON(ctx context.Context, req *SignTONRequest, privateKey []byte) (*SignTONResponse, error) {
	key, err := address.Ed25519PrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	publicKey, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("failed to extract ed25519 public key")
	}

	sender, err := address.TONAddress(publicKey, true, 0)
	if err != nil {
		return nil, err
	}

	seqno, err := s.fetchTONSeqno(ctx, sender)
	if err != nil {
		return nil, err
	}

	internal, err := buildTONInternalMessage(req)
	if err != nil {
		return nil, err
	}

	validUntil := uint64(time.Now().Add(tonMessageTTL).Unix())

	signing := NewCellBuilder()
	signing.WriteUint(tonSubwalletID, 32)
	signing.WriteUint(validUntil, 32)
	signing.WriteUint(uint64(seqno), 32)
	signing.WriteUint(0, 8) // op: simple send
	signing.WriteUint(tonSendMode, 8)
	signing.StoreRef(internal)

	payload := signing.Bytes()

	digest := sha256.Sum256(payload)
	signature := ed25519.Sign(key, digest[:])

	boc := append(signature, payload...)
	bocHash := sha256.Sum256(boc)

	return &SignTONResponse{
		BOC:  codec.EncodeBase64(boc),
		Hash: hex.EncodeToString(bocHash[:]),
	}, nil
}

// buildTONInternalMessage builds the internal transfer cell: message header,
// destination, coins, zeroed fee and timing fields, then the optional comment
// as a referenced body cell.
func buildTONInternalMessage(req *SignTONRequest) (*CellBuilder, error) {
	workchain, hash, _, err := address.DecodeTONAddress(req.To)
	if err != nil {
		return nil, err
	}

	header := uint64(tonMessageHeaderNonBounce)
	if req.Bounce {
		header = tonMessageHeaderBounce
	}

	cell := NewCellBuilder()
	cell.WriteUint(header, 6)
	cell.WriteAddress(workchain, hash)
	cell.WriteCoins(req.AmountNanoton)
	// Extra currencies, ihr_fee, fwd_fee, created_lt, created_at and the
	// state-init flag, all zero.
	cell.WriteZeroes(106)

	if req.Comment == "" {
		cell.WriteBit(false)
		return cell, nil
	}

	body := NewCellBuilder()
	body.WriteUint(0, 32) // text comment op
	body.WriteBytes([]byte(req.Comment))

	cell.WriteBit(true)
	cell.StoreRef(body)

	return cell, nil
}

// fetchTONSeqno reads the wallet's sequence number; an uninitialized wallet
// reports seqno 0.
func (s *service) fetchTONSeqno(ctx context.Context, sender string) (uint32, error) {
	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			Seqno uint32 `json:"seqno"`
		} `json:"result"`
	}

	path := "/getWalletInformation?address=" + url.QueryEscape(sender)
	if err := s.transports.TON.GetJSON(ctx, path, &result); err != nil {
		return 0, errors.Wrap(err, "failed to fetch wallet information")
	}

	if !result.OK {
		return 0, errors.New("wallet information lookup failed")
	}

	return result.Result.Seqno, nil
}
