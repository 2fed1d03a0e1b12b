package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// EthereumProvider signs the Keccak-256 digest of the payload and returns
// the 65-byte recoverable signature r || s || v.
type EthereumProvider struct {
	priv *ecdsa.PrivateKey
}

// NewEthereumProvider creates a new Ethereum-style signer provider.
//
// privHex is the private key in hex format.
// Returns the signer provider or an error if the private key is invalid.
func NewEthereumProvider(privHex string) (*EthereumProvider, error) {
	privHex = strings.TrimPrefix(privHex, "0x")
	if privHex == "" {
		return nil, ErrEmptyPrivateKey
	}
	priv, err := crypto.HexToECDSA(privHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &EthereumProvider{priv: priv}, nil
}

// Sign signs the payload.
func (s *EthereumProvider) Sign(payload []byte) ([]byte, error) {
	signature, err := crypto.Sign(crypto.Keccak256(payload), s.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	if len(signature) != 65 {
		return nil, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(signature))
	}

	return signature, nil
}

// GetAddress returns the address of the signer.
func (s *EthereumProvider) GetAddress() string {
	return strings.ToLower(crypto.PubkeyToAddress(s.priv.PublicKey).Hex())
}
