package cases

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/movemntdev/movement-cli-e2e/runhelper"
)

const (
	localNodeURL   = "http://127.0.0.1:8080"
	localFaucetURL = "http://127.0.0.1:8081"
)

// Init creates a CLI profile against the local network. The faucet is not
// skipped, so the account is also created and funded on chain.
var Init = TestCase{
	Name: "init",
	Fn: func(ctx context.Context, log log.Logger, h *runhelper.RunHelper) error {
		args := []string{runhelper.CLIName, "init", "--assume-yes", "--network", "local"}
		if !sameURL(h.NodeURL(), localNodeURL) {
			args = append(args, "--rest-url", h.NodeURL())
		}
		if !sameURL(h.FaucetURL(), localFaucetURL) {
			args = append(args, "--faucet-url", h.FaucetURL())
		}

		// init prompts for a private key. An empty line generates one.
		res, err := run(ctx, h, "init", args, runhelper.WithInput("\n"))
		if err != nil {
			return err
		}

		if _, err := os.Stat(h.ConfigPath()); err != nil {
			return assertionFailure(res, fmt.Sprintf("%s not found in the working directory after init", h.ConfigPath()))
		}

		info, err := h.AccountInfo()
		if err != nil {
			return assertionFailure(res, fmt.Sprintf("failed to read account info from the new config file: %v", err))
		}
		log.Debug("Created CLI profile", "account", info.Address)

		if _, err := h.API().Account(ctx, info.Address); err != nil {
			return assertionFailure(res, fmt.Sprintf("failed to query local testnet for account %s: %v", info.Address, err))
		}
		return nil
	},
}

// sameURL treats localhost and 127.0.0.1 as the same host.
func sameURL(a, b string) bool {
	norm := func(s string) string {
		s = strings.TrimRight(strings.TrimSpace(s), "/")
		return strings.Replace(s, "://localhost", "://127.0.0.1", 1)
	}
	return norm(a) == norm(b)
}
