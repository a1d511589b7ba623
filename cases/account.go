package cases

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/log"

	"github.com/movemntdev/movement-cli-e2e/runhelper"
)

const fundAmountOcta = 100000000000

// OtherAccountOne is a fixed account, unknown to the chain until
// account_create creates it.
var OtherAccountOne = runhelper.AccountInfo{
	Address:    "0x585fc9f0f0c54183b039ffc770ca282ebd87307916c215a3e692f2f8e4305e82",
	PublicKey:  "0x25caf00522e4d4664ec0a27166a69e8a32b5078959d0fc398da70d40d2893e8f",
	PrivateKey: "0x37368b46ce665362562c6d1d4ec01a08c8644c488690df5a17e13ba163e20221",
}

// AccountFundWithFaucet funds the profile account and checks the balance
// covers the requested amount. init already funded the account, so the
// balance ends up above the amount, not equal to it.
var AccountFundWithFaucet = TestCase{
	Name: "account_fund_with_faucet",
	Fn: func(ctx context.Context, log log.Logger, h *runhelper.RunHelper) error {
		info, err := h.AccountInfo()
		if err != nil {
			return fmt.Errorf("failed to read account info: %w", err)
		}

		res, err := run(ctx, h, "account_fund_with_faucet", []string{
			runhelper.CLIName, "account", "fund-with-faucet",
			"--account", info.Address,
			"--amount", fmt.Sprint(fundAmountOcta),
		})
		if err != nil {
			return err
		}
		if _, err := requireResult(res); err != nil {
			return err
		}

		balance, err := h.API().AccountBalance(ctx, info.Address)
		if err != nil {
			return assertionFailure(res, fmt.Sprintf("failed to query balance of %s: %v", info.Address, err))
		}
		log.Debug("Funded account", "account", info.Address, "balance", balance)
		if balance.Cmp(big.NewInt(fundAmountOcta)) < 0 {
			return assertionFailure(res, fmt.Sprintf("account %s has balance %s, expected at least %d", info.Address, balance, fundAmountOcta))
		}
		return nil
	},
}

// AccountCreate creates OtherAccountOne and checks it starts with nothing.
var AccountCreate = TestCase{
	Name: "account_create",
	Fn: func(ctx context.Context, log log.Logger, h *runhelper.RunHelper) error {
		res, err := run(ctx, h, "account_create", []string{
			runhelper.CLIName, "account", "create",
			"--account", OtherAccountOne.Address,
			"--assume-yes",
		})
		if err != nil {
			return err
		}
		if _, err := requireResult(res); err != nil {
			return err
		}

		balance, err := h.API().AccountBalance(ctx, OtherAccountOne.Address)
		if err != nil {
			return assertionFailure(res, fmt.Sprintf("failed to query balance of %s: %v", OtherAccountOne.Address, err))
		}
		if balance.Sign() != 0 {
			return assertionFailure(res, fmt.Sprintf("account %s has balance %s, expected 0", OtherAccountOne.Address, balance))
		}
		return nil
	},
}
