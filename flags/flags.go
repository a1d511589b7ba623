package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/movemntdev/movement-cli-e2e/types"
)

const EnvVarPrefix = "MOVEMENT_CLI_E2E"

var (
	BaseNetwork = &cli.StringFlag{
		Name:     "base-network",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "BASE_NETWORK"),
		Usage:    fmt.Sprintf("Base network the local testnet is built from (one of: %s)", types.NetworkNames()),
	}
	ImageRepo = &cli.StringFlag{
		Name:    "image-repo-with-project",
		Value:   "aptoslabs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "IMAGE_REPO_WITH_PROJECT"),
		Usage:   "Docker image repo (+ project) for the local testnet and CLI images, e.g. 'docker.pkg.github.com/movementlabs/aptos-core'",
	}
	StartupTimeout = &cli.IntFlag{
		Name:    "base-startup-timeout",
		Value:   30,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BASE_STARTUP_TIMEOUT"),
		Usage:   "Timeout in seconds for waiting for the node and faucet to start up",
	}
	TestCLITag = &cli.StringFlag{
		Name:    "test-cli-tag",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEST_CLI_TAG"),
		Usage:   "Image tag of the CLI under test. Mutually exclusive with --test-cli-path",
	}
	TestCLIPath = &cli.StringFlag{
		Name:    "test-cli-path",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEST_CLI_PATH"),
		Usage:   "Path to the CLI binary under test. Mutually exclusive with --test-cli-tag",
	}
	WorkingDirectory = &cli.StringFlag{
		Name:    "working-directory",
		Value:   "/tmp/movement-cli-tests",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORKING_DIRECTORY"),
		Usage:   "Host directory CLI commands run from. Reset at start and kept afterwards for debugging",
	}
	Debug = &cli.BoolFlag{
		Name:    "debug",
		Aliases: []string{"d"},
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DEBUG"),
		Usage:   "Enable debug logging",
	}
	NodeURL = &cli.StringFlag{
		Name:    "node-url",
		Value:   "http://127.0.0.1:8080",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NODE_URL"),
		Usage:   "URL of the local testnet node API",
	}
	FaucetURL = &cli.StringFlag{
		Name:    "faucet-url",
		Value:   "http://127.0.0.1:8081",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAUCET_URL"),
		Usage:   "URL of the local testnet faucet",
	}
)

var requiredFlags = []cli.Flag{
	BaseNetwork,
}

var optionalFlags = []cli.Flag{
	ImageRepo,
	StartupTimeout,
	TestCLITag,
	TestCLIPath,
	WorkingDirectory,
	Debug,
	NodeURL,
	FaucetURL,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	tagSet, pathSet := ctx.String(TestCLITag.Name) != "", ctx.String(TestCLIPath.Name) != ""
	if tagSet == pathSet {
		return fmt.Errorf("exactly one of flags %s or %s is required", TestCLITag.Name, TestCLIPath.Name)
	}
	return opflags.CheckRequiredXor(ctx)
}
