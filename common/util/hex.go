package util

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHex is returned by DecodeHexString when the input is not an
// even-length string of hex digits.
var ErrMalformedHex = errors.New("malformed hex string")

// StringToHex returns the lowercase hex encoding of the bytes of s, without a
// "0x" prefix. The result is always exactly twice len(s) characters long.
func StringToHex(s string) string {
	return hex.EncodeToString([]byte(s))
}

// DecodeHexString decodes a hex string produced by StringToHex.
//
// Odd-length input and input containing non-hex characters yield
// ErrMalformedHex. An empty input decodes to an empty string without error.
func DecodeHexString(h string) (string, error) {
	if len(h)%2 != 0 {
		return "", fmt.Errorf("%w: odd length %d", ErrMalformedHex, len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedHex, err)
	}
	return string(b), nil
}

// HexToString decodes h and returns the empty string if h is malformed.
func HexToString(h string) string {
	s, err := DecodeHexString(h)
	if err != nil {
		return ""
	}
	return s
}

// HexFix removes a leading "0x" from a hex number if present.
func HexFix(h string) string {
	return strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
}
