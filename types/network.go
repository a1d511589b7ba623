// Package types contains shared types used across the CLI e2e testing tool
package types

import (
	"fmt"
	"strings"
)

// Network is the base network a local testnet is built from. It selects the
// tools image tag used to run the node and faucet.
type Network string

const (
	NetworkDevnet  Network = "devnet"
	NetworkTestnet Network = "testnet"
	NetworkMainnet Network = "mainnet"
)

// Networks lists every supported base network, in display order.
var Networks = []Network{NetworkDevnet, NetworkTestnet, NetworkMainnet}

// String returns the string representation of the network
func (n Network) String() string {
	return string(n)
}

// IsValid checks if the network is one of the supported values
func (n Network) IsValid() bool {
	for _, known := range Networks {
		if n == known {
			return true
		}
	}
	return false
}

// ParseNetwork resolves a user supplied network name.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if !n.IsValid() {
		return "", NewConfigurationError(fmt.Sprintf("invalid base network %q, must be one of: %s", s, NetworkNames()))
	}
	return n, nil
}

// NetworkNames returns the supported networks as a comma separated list.
func NetworkNames() string {
	names := make([]string, len(Networks))
	for i, n := range Networks {
		names[i] = n.String()
	}
	return strings.Join(names, ", ")
}
