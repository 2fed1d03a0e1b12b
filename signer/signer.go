// Package signer provides the signing collaborators used when submitting
// certificates. The SDK treats signing as opaque: a SignerProvider turns a
// payload into signature bytes, and a Func turns a message and a private key
// into a hex signature string.
package signer

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrEmptyPrivateKey is returned when no private key is supplied.
var ErrEmptyPrivateKey = errors.New("private key is empty")

// SignerProvider is the interface for the signer provider.
type SignerProvider interface {
	Sign(payload []byte) ([]byte, error)
}

// Func signs message with privateKey and returns the signature as a hex string.
type Func func(message, privateKey string) (string, error)

// SignHex signs message with p and hex-encodes the signature.
func SignHex(p SignerProvider, message string) (string, error) {
	if p == nil {
		return "", errors.New("signer provider is nil")
	}
	sig, err := p.Sign([]byte(message))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// ProviderFunc adapts a SignerProvider holding its own key (e.g. a remote
// signer) to a Func. The privateKey argument is ignored.
func ProviderFunc(p SignerProvider) Func {
	return func(message, _ string) (string, error) {
		return SignHex(p, message)
	}
}

// SignData is the default Func: secp256k1 ECDSA over the SHA-256 of the
// message, DER-encoded.
func SignData(message, privateKey string) (string, error) {
	p, err := NewSecp256k1Provider(privateKey)
	if err != nil {
		return "", err
	}
	sig, err := SignHex(p, message)
	if err != nil {
		return "", fmt.Errorf("failed to sign data: %w", err)
	}
	return sig, nil
}
