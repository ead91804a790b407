package util

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// DecodeHex decodes a hex string, tolerating an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode hex string")
	}

	return decoded, nil
}

// EncodeHexPrefixed hex-encodes data with a 0x prefix.
func EncodeHexPrefixed(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}
