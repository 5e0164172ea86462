// Package config loads the federation peer process's configuration: the
// environment-variable process settings every peer starts with (Load), and
// the YAML peer-set description shared by every peer in the federation
// (see peerset_config.go) naming who the other peers are and what PeerId
// each one answers to.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the environment-derived configuration for one mintfed
// federation peer process.
type Config struct {
	// Identity
	ChainID string // CometBFT chain id this federation's peers share
	DataDir string // base directory for this peer's KV store

	// Server
	ListenAddr  string // client-facing HTTP API address
	MetricsAddr string // Prometheus /metrics address
	HealthAddr  string // liveness-probe address

	// CometBFT
	P2PPort int
	RPCPort int

	// Peer set
	PeerSetPath string // path to the YAML peer-set file (see peerset_config.go)

	LogLevel string

	EpochInterval time.Duration

	// DevnetPegInValueSats is the fixed value wallet.FixedVerifier reports
	// for every peg-in proof, until a real SPV verifier is wired in (out
	// of scope for this specification). Never meaningful in production.
	DevnetPegInValueSats uint64
}

// Load reads configuration from environment variables, matching the
// env-var naming and getEnv*/default conventions the rest of this
// codebase's tooling uses.
func Load() (*Config, error) {
	cfg := &Config{
		ChainID: getEnv("MINTFED_CHAIN_ID", "mintfed-devnet"),
		DataDir: getEnv("MINTFED_DATA_DIR", "./data"),

		ListenAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("API_PORT", "8080"),
		MetricsAddr: getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),
		HealthAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("HEALTH_CHECK_PORT", "8081"),

		P2PPort: getEnvInt("COMETBFT_P2P_PORT", 26656),
		RPCPort: getEnvInt("COMETBFT_RPC_PORT", 26657),

		PeerSetPath: getEnv("MINTFED_PEERSET_PATH", "./peerset.yaml"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		EpochInterval: getEnvDuration("MINTFED_EPOCH_INTERVAL", 2*time.Second),

		DevnetPegInValueSats: uint64(getEnvInt("MINTFED_DEVNET_PEGIN_VALUE_SATS", 1_000_000)),
	}
	return cfg, nil
}

// Validate checks that the configuration is usable for a production peer.
func (c *Config) Validate() error {
	var problems []string
	if c.ChainID == "" {
		problems = append(problems, "MINTFED_CHAIN_ID is required but not set")
	}
	if c.DataDir == "" {
		problems = append(problems, "MINTFED_DATA_DIR is required but not set")
	}
	if c.PeerSetPath == "" {
		problems = append(problems, "MINTFED_PEERSET_PATH is required but not set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
