package config

import (
	"os"
	"time"
)

// Default values
const (
	DefaultLibVersion  = "1.0.13"
	DefaultNetworkURL  = "https://circularlabs.io/network/getNAG?network="
	DefaultNAGURL      = "https://nag.circularlabs.io/NAG.php?cep="
	DefaultBlockchain  = "0x8a20baa40c45dc5055aeb26197c203e576ef389d9acb171bd62da11dc5ad72b2"
	DefaultHTTPTimeout = 10 * time.Second
)

// Environment variable names
const (
	EnvNAGURL     = "CIRCULAR_NAG_URL"
	EnvNetworkURL = "CIRCULAR_NETWORK_URL"
	EnvBlockchain = "CIRCULAR_BLOCKCHAIN"
)

// Config holds the settings shared by the certificate codec, the gateway
// client and the confirmation poller.
//
// A Config is treated as an immutable value: components copy the fields they
// need when they are constructed, so changing a Config afterwards has no
// effect on components built from it.
type Config struct {
	// LibVersion is written into every certificate and every gateway request.
	LibVersion string
	// NetworkURL is the discovery endpoint used to resolve a network name
	// (e.g. "testnet") to a gateway URL. The network name is appended.
	NetworkURL string
	// NAGURL is the gateway base URL. Endpoint names are appended.
	NAGURL string
	// Blockchain is the hex identifier of the target chain.
	Blockchain string
	// HTTPTimeout bounds a single HTTP request to the gateway.
	HTTPTimeout time.Duration
}

// New creates a new Config instance with the provided values.
// If a value is empty/zero, it will use the default value.
// Pass an empty Config{} to use all defaults.
func New(cfg Config) *Config {
	result := &Config{
		LibVersion:  DefaultLibVersion,
		NetworkURL:  DefaultNetworkURL,
		NAGURL:      DefaultNAGURL,
		Blockchain:  DefaultBlockchain,
		HTTPTimeout: DefaultHTTPTimeout,
	}

	if cfg.LibVersion != "" {
		result.LibVersion = cfg.LibVersion
	}
	if cfg.NetworkURL != "" {
		result.NetworkURL = cfg.NetworkURL
	}
	if cfg.NAGURL != "" {
		result.NAGURL = cfg.NAGURL
	}
	if cfg.Blockchain != "" {
		result.Blockchain = cfg.Blockchain
	}
	if cfg.HTTPTimeout > 0 {
		result.HTTPTimeout = cfg.HTTPTimeout
	}

	return result
}

// Default returns a Config populated entirely with default values.
func Default() *Config {
	return New(Config{})
}

// FromEnv returns a Config whose URLs and chain are taken from environment
// variables when set, falling back to defaults otherwise.
func FromEnv() *Config {
	return New(Config{
		NAGURL:     os.Getenv(EnvNAGURL),
		NetworkURL: os.Getenv(EnvNetworkURL),
		Blockchain: os.Getenv(EnvBlockchain),
	})
}
