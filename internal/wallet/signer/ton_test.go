package signer_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chainvault/go-signer/internal/wallet/address"
	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tonSubwalletID = 698983191

func tonRecipient(t *testing.T) string {
	t.Helper()

	recipientKey := ed25519.NewKeyFromSeed(append(ed25519Seed[:31:31], 0x45))
	recipient, err := address.TONAddress(recipientKey.Public().(ed25519.PublicKey), true, 0)
	require.NoError(t, err)

	return recipient
}

func newTONServer(t *testing.T, seqno uint32, sendOK bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/getWalletInformation", func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("address"))
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"seqno": seqno},
		}))
	})
	mux.HandleFunc("/sendBoc", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body["boc"])

		response := map[string]any{"ok": sendOK}
		if !sendOK {
			response["error"] = "external message rejected"
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	})

	return httptest.NewServer(mux)
}

func TestSignTONTransaction(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, ed25519Seed)

	server := newTONServer(t, 7, true)
	defer server.Close()

	service := env.newService(t, &signer.Transports{TON: newCaller(t, server.URL)})

	response, err := service.SignTONTransaction(context.Background(), testSecret, encryptedKey, &signer.SignTONRequest{
		To:            tonRecipient(t),
		AmountNanoton: 1_000_000_000,
		Bounce:        true,
	})
	require.NoError(t, err)

	boc, err := base64.StdEncoding.DecodeString(response.BOC)
	require.NoError(t, err)
	require.Greater(t, len(boc), 64)

	// BOC = 64-byte ed25519 signature over SHA-256 of the payload, then the
	// payload itself.
	signature := boc[:64]
	payload := boc[64:]

	senderKey := ed25519.NewKeyFromSeed(ed25519Seed)
	digest := sha256.Sum256(payload)
	assert.True(t, ed25519.Verify(senderKey.Public().(ed25519.PublicKey), digest[:], signature))

	bocHash := sha256.Sum256(boc)
	assert.Equal(t, hex.EncodeToString(bocHash[:]), response.Hash)

	// Signing payload header: subwallet id, valid-until, seqno
	assert.Equal(t, uint32(tonSubwalletID), binary.BigEndian.Uint32(payload[:4]))
	assert.NotZero(t, binary.BigEndian.Uint32(payload[4:8]))
	assert.Equal(t, uint32(7), binary.BigEndian.Uint32(payload[8:12]))

	// Internal message follows the 14-byte wallet header; its first bits are
	// the bounceable message header and the address tag.
	assert.Equal(t, byte(0x62), payload[14])
}

func TestSignTONTransactionNonBounceableWithComment(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, ed25519Seed)

	server := newTONServer(t, 0, true)
	defer server.Close()

	service := env.newService(t, &signer.Transports{TON: newCaller(t, server.URL)})

	response, err := service.SignTONTransaction(context.Background(), testSecret, encryptedKey, &signer.SignTONRequest{
		To:            tonRecipient(t),
		AmountNanoton: 42,
		Comment:       "invoice 1337",
		Bounce:        false,
	})
	require.NoError(t, err)

	boc, err := base64.StdEncoding.DecodeString(response.BOC)
	require.NoError(t, err)
	payload := boc[64:]

	assert.Equal(t, byte(0x42), payload[14], "non-bounceable header")

	// The comment body cell is serialized last: a 32-bit zero text op followed
	// by the comment bytes.
	expectedTail := append([]byte{0, 0, 0, 0}, []byte("invoice 1337")...)
	assert.True(t, bytes.HasSuffix(payload, expectedTail))
}

func TestSignAndSendTONTransactionRejected(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, ed25519Seed)

	server := newTONServer(t, 3, false)
	defer server.Close()

	service := env.newService(t, &signer.Transports{TON: newCaller(t, server.URL)})

	_, err := service.SignAndSendTONTransaction(context.Background(), testSecret, encryptedKey, &signer.SignTONRequest{
		To:            tonRecipient(t),
		AmountNanoton: 1,
	})
	assert.ErrorIs(t, err, signer.ErrBroadcastRejected)
}

func TestSignTONTransactionInvalidRecipient(t *testing.T) {
	env := newTestEnv(t)
	encryptedKey := env.encryptKey(t, ed25519Seed)

	server := newTONServer(t, 0, true)
	defer server.Close()

	service := env.newService(t, &signer.Transports{TON: newCaller(t, server.URL)})

	_, err := service.SignTONTransaction(context.Background(), testSecret, encryptedKey, &signer.SignTONRequest{
		To:            "not-a-ton-address",
		AmountNanoton: 1,
	})
	assert.Error(t, err)
}
