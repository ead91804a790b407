package codec

import "encoding/base64"

// EncodeBase64URL encodes data with the URL-safe base64 alphabet without
// padding, as used by TON user-friendly addresses.
func EncodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBase64URL decodes a URL-safe, unpadded base64 string.
func DecodeBase64URL(encoded string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(encoded)
}

// EncodeBase64 encodes data with the standard padded alphabet, the form
// node RPC APIs expect for wire transactions.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
