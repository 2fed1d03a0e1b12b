package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pilacorp/go-certificate-sdk/common/config"
)

const (
	envPrefix = "CERTCTL"

	ConfigFileKey = "config"
	NAGURLKey     = "nag-url"
	NetworkURLKey = "network-url"
	BlockchainKey = "blockchain"
	NetworkKey    = "network"
	VerboseKey    = "verbose"

	AddressKey      = "address"
	KeyKey          = "key"
	RemoteSignerKey = "remote-signer"
	SignerAPIKeyKey = "remote-signer-api-key"
	WaitKey         = "wait"
	TimeoutKey      = "timeout"
	IntervalKey     = "interval"
	MetricsFileKey  = "metrics-file"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultInterval = 2 * time.Second
)

const metricsNamespace = "certctl"

var errMissingKey = errors.New("private key is required (--key, CERTCTL_KEY or --remote-signer)")

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Path to a config file (yaml, json or toml)")
	fs.String(NAGURLKey, config.DefaultNAGURL, "Gateway base URL")
	fs.String(NetworkURLKey, config.DefaultNetworkURL, "Network discovery URL")
	fs.String(BlockchainKey, config.DefaultBlockchain, "Target blockchain")
	fs.String(NetworkKey, "", "Network name to resolve (e.g. testnet); overrides --nag-url")
	fs.Bool(VerboseKey, false, "Enable debug logging")
}

func addPollFlags(fs *pflag.FlagSet) {
	fs.Duration(TimeoutKey, defaultTimeout, "Maximum time to wait for the outcome")
	fs.Duration(IntervalKey, defaultInterval, "Time between two outcome queries")
	fs.String(MetricsFileKey, "", "Write poll metrics in Prometheus text format to this file")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfigFile reads the file named by --config, if any.
func loadConfigFile(v *viper.Viper) error {
	path := v.GetString(ConfigFileKey)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	return v.ReadInConfig()
}

func sdkConfig(v *viper.Viper) *config.Config {
	return config.New(config.Config{
		NAGURL:     v.GetString(NAGURLKey),
		NetworkURL: v.GetString(NetworkURLKey),
		Blockchain: v.GetString(BlockchainKey),
	})
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	if v.GetBool(VerboseKey) {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
