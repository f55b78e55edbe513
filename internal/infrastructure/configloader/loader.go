package configloader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// OperatorKeyEnv overrides chain.operatorPrivateKey when set.
const OperatorKeyEnv = "OPERATOR_PRIVATE_KEY"

// ServerConfig holds server-specific configurations. Timeouts are in seconds;
// zero disables them, which keeps long chain confirmations from being cut off.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChainConfig describes the node and the settlement contract.
type ChainConfig struct {
	PrimaryRPCURL             string   `yaml:"primaryRpcUrl"`
	FallbackRPCURLs           []string `yaml:"fallbackRpcUrls"`
	ChainID                   uint64   `yaml:"chainId"`
	NativeSymbol              string   `yaml:"nativeSymbol"`
	ContractAddress           string   `yaml:"contractAddress"`
	OperatorAddress           string   `yaml:"operatorAddress"`
	OperatorPrivateKey        string   `yaml:"operatorPrivateKey"`
	ConnectTimeoutSeconds     int      `yaml:"connectTimeoutSeconds"`
	ReceiptPollIntervalMillis int64    `yaml:"receiptPollIntervalMillis"`
}

// RPCClientConfig throttles outgoing JSON-RPC calls. A zero rate disables throttling.
type RPCClientConfig struct {
	RateLimit    float64 `yaml:"rateLimit"`
	BurstLimit   int     `yaml:"burstLimit"`
	MaxBatchSize int     `yaml:"maxBatchSize"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentReads int `yaml:"max_concurrent_reads"`
}

// CacheConfig holds configuration for the token metadata cache.
type CacheConfig struct {
	DefaultExpirationMinutes int `yaml:"defaultExpirationMinutes"`
	CleanupIntervalMinutes   int `yaml:"cleanupIntervalMinutes"`
}

// TokensConfig points at the token registry.
type TokensConfig struct {
	RegistryFile string `yaml:"registryFile"`
}

// CORSConfig lists the origins allowed to call the API. Empty allows all.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SpecFile string `yaml:"specFile"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Chain       ChainConfig       `yaml:"chain"`
	RPCClient   RPCClientConfig   `yaml:"rpcClient"`
	Performance PerformanceConfig `yaml:"performance"`
	Cache       CacheConfig       `yaml:"cache"`
	Tokens      TokensConfig      `yaml:"tokens"`
	CORS        CORSConfig        `yaml:"cors"`
	Swagger     SwaggerConfig     `yaml:"swagger"`
}

// ContractAddress returns the parsed settlement contract address.
func (c *Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Chain.ContractAddress)
}

// OperatorAddress returns the parsed operator address, zero when unset.
func (c *Config) OperatorAddress() common.Address {
	return common.HexToAddress(c.Chain.OperatorAddress)
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals raw YAML, applies defaults and environment overrides, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	applyDefaults(&cfg)

	if key := os.Getenv(OperatorKeyEnv); key != "" {
		cfg.Chain.OperatorPrivateKey = key
		logrus.Infof("Operator private key taken from %s", OperatorKeyEnv)
	}
	cfg.Chain.OperatorPrivateKey = strings.TrimPrefix(strings.TrimSpace(cfg.Chain.OperatorPrivateKey), "0x")

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "3030"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Chain.NativeSymbol == "" {
		cfg.Chain.NativeSymbol = "ETH"
	}
	if cfg.Chain.ConnectTimeoutSeconds <= 0 {
		cfg.Chain.ConnectTimeoutSeconds = 10
		logrus.Infof("Chain.ConnectTimeoutSeconds not set, defaulting to %d", cfg.Chain.ConnectTimeoutSeconds)
	}
	if cfg.Chain.ReceiptPollIntervalMillis <= 0 {
		cfg.Chain.ReceiptPollIntervalMillis = 500
		logrus.Infof("Chain.ReceiptPollIntervalMillis not set, defaulting to %d ms", cfg.Chain.ReceiptPollIntervalMillis)
	}
	if cfg.RPCClient.RateLimit > 0 && cfg.RPCClient.BurstLimit <= 0 {
		cfg.RPCClient.BurstLimit = 1
	}
	if cfg.RPCClient.MaxBatchSize <= 0 {
		cfg.RPCClient.MaxBatchSize = 100
	}
	if cfg.Performance.MaxConcurrentReads <= 0 {
		cfg.Performance.MaxConcurrentReads = 8
	}
	if cfg.Cache.DefaultExpirationMinutes <= 0 {
		cfg.Cache.DefaultExpirationMinutes = 60
	}
	if cfg.Cache.CleanupIntervalMinutes <= 0 {
		cfg.Cache.CleanupIntervalMinutes = 120
	}
	if cfg.Swagger.SpecFile == "" {
		cfg.Swagger.SpecFile = "docs/swagger.yaml"
	}
}

func validate(cfg *Config) error {
	var errs []error
	if cfg.Chain.PrimaryRPCURL == "" && len(cfg.Chain.FallbackRPCURLs) == 0 {
		errs = append(errs, errors.New("chain.primaryRpcUrl is required"))
	}
	if !common.IsHexAddress(cfg.Chain.ContractAddress) {
		errs = append(errs, fmt.Errorf("chain.contractAddress %q is not a hex address", cfg.Chain.ContractAddress))
	}
	if cfg.Chain.OperatorAddress != "" && !common.IsHexAddress(cfg.Chain.OperatorAddress) {
		errs = append(errs, fmt.Errorf("chain.operatorAddress %q is not a hex address", cfg.Chain.OperatorAddress))
	}
	if cfg.Chain.OperatorAddress == "" && cfg.Chain.OperatorPrivateKey == "" {
		logrus.Warn("Neither chain.operatorAddress nor an operator key is set; settlement will be sent from the node's first account")
	}
	return errors.Join(errs...)
}
