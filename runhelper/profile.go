package runhelper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName  = ".movement"
	ConfigFileName = "config.yaml"
	DefaultProfile = "default"
	addressPrefix  = "0x"
)

// Profile is one entry of the CLI's config.yaml.
type Profile struct {
	Network    string `yaml:"network,omitempty"`
	PrivateKey string `yaml:"private_key,omitempty"`
	PublicKey  string `yaml:"public_key,omitempty"`
	Account    string `yaml:"account,omitempty"`
	RestURL    string `yaml:"rest_url,omitempty"`
	FaucetURL  string `yaml:"faucet_url,omitempty"`
}

type cliConfig struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// AccountInfo is the account the CLI created during init.
type AccountInfo struct {
	Address    string
	PublicKey  string
	PrivateKey string
}

// ConfigPath is the profile file written by the CLI's init command.
func (h *RunHelper) ConfigPath() string {
	return filepath.Join(h.cfg.WorkDir, ConfigDirName, ConfigFileName)
}

// AccountInfo reads the default profile from the CLI config file.
func (h *RunHelper) AccountInfo() (AccountInfo, error) {
	return ReadAccountInfo(h.ConfigPath(), DefaultProfile)
}

// ReadAccountInfo reads the named profile from a CLI config file.
func ReadAccountInfo(path, profile string) (AccountInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AccountInfo{}, fmt.Errorf("failed to read CLI config: %w", err)
	}
	var cfg cliConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AccountInfo{}, fmt.Errorf("failed to parse CLI config %s: %w", path, err)
	}
	p, ok := cfg.Profiles[profile]
	if !ok {
		return AccountInfo{}, fmt.Errorf("profile %q not found in %s", profile, path)
	}
	if p.Account == "" {
		return AccountInfo{}, fmt.Errorf("profile %q in %s has no account", profile, path)
	}
	return AccountInfo{
		Address:    NormalizeAddress(p.Account),
		PublicKey:  p.PublicKey,
		PrivateKey: p.PrivateKey,
	}, nil
}

// NormalizeAddress returns addr in lower case with a 0x prefix.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if !strings.HasPrefix(addr, addressPrefix) {
		addr = addressPrefix + addr
	}
	return addr
}
