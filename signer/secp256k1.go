package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/pilacorp/go-certificate-sdk/common/util"
)

// Secp256k1Provider signs with a secp256k1 key and produces DER signatures
// over the SHA-256 digest of the payload, the format expected by the gateway.
type Secp256k1Provider struct {
	priv *secp256k1.PrivateKey
}

// NewSecp256k1Provider creates a provider from a hex private key, with or
// without a "0x" prefix.
func NewSecp256k1Provider(privHex string) (*Secp256k1Provider, error) {
	privHex = util.HexFix(privHex)
	if privHex == "" {
		return nil, ErrEmptyPrivateKey
	}
	b, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(b) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("invalid private key length: expected %d bytes, got %d", secp256k1.PrivKeyBytesLen, len(b))
	}

	priv := secp256k1.PrivKeyFromBytes(b)
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("invalid private key: zero scalar")
	}
	return &Secp256k1Provider{priv: priv}, nil
}

// Sign hashes payload with SHA-256 and returns the DER-encoded signature.
func (s *Secp256k1Provider) Sign(payload []byte) ([]byte, error) {
	digest := sha256.Sum256(payload)
	sig := ecdsa.Sign(s.priv, digest[:])
	return sig.Serialize(), nil
}

// PublicKeyHex returns the uncompressed public key in hex.
func (s *Secp256k1Provider) PublicKeyHex() string {
	return hex.EncodeToString(s.priv.PubKey().SerializeUncompressed())
}
