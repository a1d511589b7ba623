package e2e

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/movemntdev/movement-cli-e2e/flags"
	"github.com/movemntdev/movement-cli-e2e/types"
)

// Config holds the application configuration
type Config struct {
	Network        types.Network     // Base network the local testnet is built from
	ImageRepo      string            // Image repo (+ project) for the tools images
	StartupTimeout time.Duration     // How long to wait for the node and faucet
	Identity       types.CLIIdentity // The CLI under test
	WorkDir        string            // Where CLI commands run and artifacts are kept
	Debug          bool
	NodeURL        string
	FaucetURL      string
	MetricsConfig  opmetrics.CLIConfig
	Log            log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, types.NewConfigurationError(fmt.Sprintf("missing required flags: %v", err))
	}

	network, err := types.ParseNetwork(ctx.String(flags.BaseNetwork.Name))
	if err != nil {
		return nil, err
	}

	timeoutSecs := ctx.Int(flags.StartupTimeout.Name)
	if timeoutSecs <= 0 {
		return nil, types.NewConfigurationError(fmt.Sprintf("startup timeout must be positive, got %d", timeoutSecs))
	}

	cliPath := ctx.String(flags.TestCLIPath.Name)
	if cliPath != "" && filepath.Base(cliPath) != cliPath {
		cliPath, err = filepath.Abs(cliPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for test CLI '%s': %w", ctx.String(flags.TestCLIPath.Name), err)
		}
	}
	identity, err := types.NewCLIIdentity(ctx.String(flags.TestCLITag.Name), cliPath)
	if err != nil {
		return nil, err
	}

	workDir, err := resolveWorkDir(ctx.String(flags.WorkingDirectory.Name))
	if err != nil {
		return nil, err
	}

	return &Config{
		Network:        network,
		ImageRepo:      ctx.String(flags.ImageRepo.Name),
		StartupTimeout: time.Duration(timeoutSecs) * time.Second,
		Identity:       identity,
		WorkDir:        workDir,
		Debug:          ctx.Bool(flags.Debug.Name),
		NodeURL:        ctx.String(flags.NodeURL.Name),
		FaucetURL:      ctx.String(flags.FaucetURL.Name),
		MetricsConfig:  opmetrics.ReadCLIConfig(ctx),
		Log:            log,
	}, nil
}

// resolveWorkDir makes dir absolute. The directory is wiped at the start of
// every run, so the filesystem root is refused.
func resolveWorkDir(dir string) (string, error) {
	if dir == "" {
		return "", types.NewConfigurationError("working directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for working directory '%s': %w", dir, err)
	}
	if abs == filepath.Dir(abs) {
		return "", types.NewConfigurationError(fmt.Sprintf("refusing to use %s as the working directory", abs))
	}
	return abs, nil
}
