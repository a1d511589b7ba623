// Package node manages the local testnet container the CLI is tested against.
package node

import (
	"context"
	"fmt"
)

const (
	ToolsImageName      = "tools"
	ContainerNamePrefix = "movement-tools-"

	APIPort     = 8080
	FaucetPort  = 8081
	MetricsPort = 9101
)

// LocalTestnetCmd runs a node and faucet inside the tools image.
var LocalTestnetCmd = []string{"aptos", "node", "run-local-testnet", "--with-faucet", "--force-restart", "--assume-yes"}

// ImageName returns the tools image reference for a repository and tag.
func ImageName(repo, tag string) string {
	return fmt.Sprintf("%s/%s:%s", repo, ToolsImageName, tag)
}

// ContainerName returns the name of the testnet container for a base network.
func ContainerName(network string) string {
	return ContainerNamePrefix + network
}

// ContainerSpec describes a container to create and start.
type ContainerSpec struct {
	Name   string
	Image  string
	Cmd    []string
	Ports  []int
	Labels map[string]string
}

// Runtime is the container runtime the node and the CLI image run on.
type Runtime interface {
	// Ping checks that the runtime daemon is reachable.
	Ping(ctx context.Context) error
	// PullImage fetches an image and waits for the pull to finish.
	PullImage(ctx context.Context, image string) error
	// RunContainer creates and starts a container, returning its ID.
	RunContainer(ctx context.Context, spec ContainerSpec) (string, error)
	// StopContainer stops a container by ID or name.
	StopContainer(ctx context.Context, ref string) error
	// RemoveContainer force-removes a container by ID or name. A missing
	// container is not an error.
	RemoveContainer(ctx context.Context, ref string) error
}
