package e2e

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/movemntdev/movement-cli-e2e/flags"
	"github.com/movemntdev/movement-cli-e2e/types"
)

func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		cfg    *Config
		cfgErr error
	)
	app := &cli.App{
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.New())
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"movement-cli-e2e"}, args...)))
	return cfg, cfgErr
}

func TestNewConfigWithTag(t *testing.T) {
	workDir := t.TempDir()
	cfg, err := parseConfig(t,
		"--base-network", "testnet",
		"--test-cli-tag", "nightly",
		"--base-startup-timeout", "12",
		"--working-directory", workDir,
	)
	require.NoError(t, err)

	assert.Equal(t, types.NetworkTestnet, cfg.Network)
	assert.Equal(t, "aptoslabs", cfg.ImageRepo)
	assert.Equal(t, 12*time.Second, cfg.StartupTimeout)
	tag, ok := cfg.Identity.Tag()
	require.True(t, ok)
	assert.Equal(t, "nightly", tag)
	assert.Equal(t, workDir, cfg.WorkDir)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.NodeURL)
	assert.False(t, cfg.MetricsConfig.Enabled)
	assert.False(t, cfg.Debug)
}

func TestNewConfigDebug(t *testing.T) {
	cfg, err := parseConfig(t, "--base-network", "devnet", "--test-cli-tag", "nightly", "-d")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestNewConfigResolvesRelativePaths(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := parseConfig(t,
		"--base-network", "devnet",
		"--test-cli-path", "./bin/movement",
		"--working-directory", "work",
	)
	require.NoError(t, err)

	path, ok := cfg.Identity.Path()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(wd, "bin", "movement"), path)
	assert.Equal(t, filepath.Join(wd, "work"), cfg.WorkDir)
}

func TestNewConfigKeepsBareCLIName(t *testing.T) {
	cfg, err := parseConfig(t, "--base-network", "devnet", "--test-cli-path", "movement")
	require.NoError(t, err)
	path, _ := cfg.Identity.Path()
	assert.Equal(t, "movement", path, "bare names are looked up in PATH later")
}

func TestNewConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"unknown network", []string{"--base-network", "localnet", "--test-cli-tag", "x"}},
		{"both identities", []string{"--base-network", "devnet", "--test-cli-tag", "x", "--test-cli-path", "/bin/movement"}},
		{"no identity", []string{"--base-network", "devnet"}},
		{"zero timeout", []string{"--base-network", "devnet", "--test-cli-tag", "x", "--base-startup-timeout", "0"}},
		{"root workdir", []string{"--base-network", "devnet", "--test-cli-tag", "x", "--working-directory", "/"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parseConfig(t, tc.args...)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, types.IsConfigurationError(err), "got %v", err)
		})
	}
}
