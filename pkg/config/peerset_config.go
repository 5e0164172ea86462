// Peer-set configuration loader.
//
// Every peer in a federation needs the same view of who the other peers
// are: their PeerId, their client-facing and CometBFT P2P addresses, and
// the public key they sign consensus traffic with. This is read from one
// shared YAML file (ops hands the same file to every peer), with
// environment-variable substitution so the file can stay identical across
// environments while addresses differ per deployment.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mintfed/federation/pkg/types"
)

// PeerEntry describes one federation member.
type PeerEntry struct {
	Id      types.PeerId `yaml:"id"`
	APIAddr string       `yaml:"api_addr"`
	P2PAddr string       `yaml:"p2p_addr"`
	PubKey  string       `yaml:"pub_key"` // hex-encoded secp256k1 compressed key
}

// PeerSetConfig is the full federation membership list plus the epoch
// timing parameters every peer must agree on.
type PeerSetConfig struct {
	ChainID       string      `yaml:"chain_id"`
	Peers         []PeerEntry `yaml:"peers"`
	EpochTimeout  Duration    `yaml:"epoch_timeout"`
	ProposeTimeout Duration   `yaml:"propose_timeout"`
}

// Duration wraps time.Duration for YAML unmarshaling as a Go duration
// string ("2s", "500ms"), rather than YAML's native (and less readable)
// integer-nanoseconds representation.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} (or ${VAR_NAME:-default}) with
// the named environment variable's value, falling back to default if the
// variable is unset or empty.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadPeerSetConfig reads and parses a peer-set YAML file, expanding
// ${VAR} references against the process environment first.
func LoadPeerSetConfig(path string) (*PeerSetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read peer-set file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg PeerSetConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse peer-set file %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *PeerSetConfig) applyDefaults() {
	if c.EpochTimeout == 0 {
		c.EpochTimeout = Duration(2 * time.Second)
	}
	if c.ProposeTimeout == 0 {
		c.ProposeTimeout = Duration(1 * time.Second)
	}
}

// QuorumSize returns the minimum peer count needed for Byzantine
// agreement across len(c.Peers) members: 2f+1 out of 3f+1.
func (c *PeerSetConfig) QuorumSize() int {
	n := len(c.Peers)
	f := (n - 1) / 3
	return 2*f + 1
}

// Self returns the PeerEntry matching id, or an error if the peer set
// doesn't include it.
func (c *PeerSetConfig) Self(id types.PeerId) (PeerEntry, error) {
	for _, p := range c.Peers {
		if p.Id == id {
			return p, nil
		}
	}
	return PeerEntry{}, fmt.Errorf("config: peer id %s not present in peer set", id)
}
