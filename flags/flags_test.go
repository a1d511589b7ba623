package flags

import (
	"testing"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestOptionalFlagsDontSetRequired asserts that all flags deemed optional set
// the Required field to false.
func TestOptionalFlagsDontSetRequired(t *testing.T) {
	for _, flag := range optionalFlags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired())
	}
}

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		for _, name := range flag.Names() {
			if _, ok := seenCLI[name]; ok {
				t.Errorf("duplicate flag %s", name)
				continue
			}
			seenCLI[name] = struct{}{}
		}
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")

			expectedEnvVar := opservice.FlagNameToEnvVarName(flagName, EnvVarPrefix)
			require.Equal(t, expectedEnvVar, envFlags[0])
		})
	}
}

func TestCheckRequired(t *testing.T) {
	testCases := []struct {
		name      string
		args      []string
		expectErr string
	}{
		{"tag", []string{"app", "--base-network", "devnet", "--test-cli-tag", "nightly"}, ""},
		{"path", []string{"app", "--base-network", "devnet", "--test-cli-path", "/bin/movement"}, ""},
		{"missing network", []string{"app", "--test-cli-tag", "nightly"}, "base-network is required"},
		{"both identities", []string{"app", "--base-network", "devnet", "--test-cli-tag", "x", "--test-cli-path", "/bin/movement"}, "exactly one of"},
		{"no identity", []string{"app", "--base-network", "devnet"}, "exactly one of"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var checkErr error
			app := &cli.App{
				// Required is enforced by CheckRequired here, not by urfave.
				Flags: []cli.Flag{
					&cli.StringFlag{Name: BaseNetwork.Name},
					TestCLITag,
					TestCLIPath,
				},
				Action: func(ctx *cli.Context) error {
					checkErr = CheckRequired(ctx)
					return nil
				},
			}

			require.NoError(t, app.Run(tc.args))
			if tc.expectErr == "" {
				assert.NoError(t, checkErr)
			} else {
				require.Error(t, checkErr)
				assert.Contains(t, checkErr.Error(), tc.expectErr)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, "aptoslabs", ctx.String(ImageRepo.Name))
			assert.Equal(t, 30, ctx.Int(StartupTimeout.Name))
			assert.Equal(t, "/tmp/movement-cli-tests", ctx.String(WorkingDirectory.Name))
			assert.Equal(t, "http://127.0.0.1:8080", ctx.String(NodeURL.Name))
			assert.Equal(t, "http://127.0.0.1:8081", ctx.String(FaucetURL.Name))
			assert.True(t, ctx.Bool(Debug.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"app", "--base-network", "devnet", "-d"}))
}
