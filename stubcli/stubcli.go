// Package stubcli provides a scripted stand-in for the CLI under test and a
// fake node API, for running the test cases without a real testnet.
package stubcli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	// Account is the address the stub writes into the default profile.
	Account = "0xa11ce"

	// FundedBalance is what the fake node reports for Account.
	FundedBalance = "100100000000"

	coinStorePath = "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>"
)

// Subcommands the stub answers.
const (
	Init           = "init"
	FundWithFaucet = "account fund-with-faucet"
	CreateAccount  = "account create"
)

// Response is what the stub prints for a subcommand.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// DefaultResponses is a CLI where every subcommand succeeds.
func DefaultResponses() map[string]Response {
	return map[string]Response{
		Init:           {Stdout: `{"Result": "Success"}`, Stderr: "Configuring for profile default"},
		FundWithFaucet: {Stdout: `{"Result": "Added 100000000000 Octas to account a11ce"}`},
		CreateAccount:  {Stdout: `{"Result": "Success"}`},
	}
}

// WriteScript writes an executable shell script that behaves like the CLI
// for the subcommands in responses. init also writes .movement/config.yaml
// into the current directory, unless its exit code is non-zero.
func WriteScript(t *testing.T, responses map[string]Response) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("cmd=\"$1\"\n")
	b.WriteString("[ \"$1\" = \"account\" ] && cmd=\"$1 $2\"\n")
	b.WriteString("case \"$cmd\" in\n")
	for name, resp := range responses {
		fmt.Fprintf(&b, "%s)\n", quote(name))
		if name == Init {
			b.WriteString("  read -r _ || true\n")
			if resp.ExitCode == 0 {
				b.WriteString("  mkdir -p .movement\n")
				fmt.Fprintf(&b, "  printf '%%s\\n' %s > .movement/config.yaml\n", quote(profileYAML))
			}
		}
		if resp.Stdout != "" {
			fmt.Fprintf(&b, "  printf '%%s\\n' %s\n", quote(resp.Stdout))
		}
		if resp.Stderr != "" {
			fmt.Fprintf(&b, "  printf '%%s\\n' %s >&2\n", quote(resp.Stderr))
		}
		fmt.Fprintf(&b, "  exit %d\n  ;;\n", resp.ExitCode)
	}
	b.WriteString("*)\n  echo \"unknown command: $*\" >&2\n  exit 2\n  ;;\nesac\n")

	path := filepath.Join(t.TempDir(), "movement")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0755))
	return path
}

var profileYAML = strings.Join([]string{
	"---",
	"profiles:",
	"  default:",
	"    network: Local",
	`    private_key: "0x1111111111111111111111111111111111111111111111111111111111111111"`,
	`    public_key: "0x2222222222222222222222222222222222222222222222222222222222222222"`,
	"    account: " + strings.TrimPrefix(Account, "0x"),
	`    rest_url: "http://localhost:8080"`,
	`    faucet_url: "http://localhost:8081"`,
}, "\n")

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Node is a fake node API and faucet served from one address. Every account
// exists. Account holds FundedBalance, all others hold nothing.
type Node struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	ready    bool
}

// NewNode starts a fake node. When ready is false every request fails with
// 503, like a node that never finishes starting.
func NewNode(t *testing.T, ready bool) *Node {
	t.Helper()
	n := &Node{ready: ready}
	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.Close)
	return n
}

// Requests returns the paths requested so far.
func (n *Node) Requests() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.requests...)
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	n.requests = append(n.requests, r.URL.Path)
	n.mu.Unlock()

	if !n.ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/v1" || path == "/health":
		fmt.Fprint(w, `{"chain_id":4}`)
	case strings.HasSuffix(path, "/resource/"+coinStorePath):
		addr := strings.TrimSuffix(strings.TrimPrefix(path, "/v1/accounts/"), "/resource/"+coinStorePath)
		balance := "0"
		if addr == Account {
			balance = FundedBalance
		}
		fmt.Fprintf(w, `{"type":%q,"data":{"coin":{"value":%q}}}`, coinStorePath, balance)
	case strings.HasPrefix(path, "/v1/accounts/"):
		fmt.Fprint(w, `{"sequence_number":"0","authentication_key":"0x00"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
