package node

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/retry"
	"github.com/ethereum/go-ethereum/log"

	"github.com/movemntdev/movement-cli-e2e/types"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	ManagedByLabel      = "dev.movement.cli-e2e"
)

// Handle identifies a launched testnet container. Name is always set, even
// when Start fails part way, so the container can still be torn down.
type Handle struct {
	ContainerID string
	Name        string
	Image       string
}

// ref is what the runtime is addressed with. Docker accepts either form.
func (h Handle) ref() string {
	if h.ContainerID != "" {
		return h.ContainerID
	}
	return h.Name
}

// Lifecycle starts, waits on, and stops the local testnet.
type Lifecycle interface {
	Start(ctx context.Context, network types.Network, imageRepo string) (Handle, error)
	WaitForStartup(ctx context.Context, h Handle, timeout time.Duration) error
	// Stop is best effort. Failures are logged, never returned.
	Stop(ctx context.Context, h Handle)
}

type Config struct {
	Runtime      Runtime
	Prober       Prober
	PollInterval time.Duration
	Log          log.Logger
}

// LocalTestnet runs the node and faucet from the tools image of a base network.
type LocalTestnet struct {
	runtime  Runtime
	prober   Prober
	interval time.Duration
	log      log.Logger
}

var _ Lifecycle = (*LocalTestnet)(nil)

func New(cfg Config) (*LocalTestnet, error) {
	if cfg.Runtime == nil {
		return nil, fmt.Errorf("runtime is required")
	}
	if cfg.Prober == nil {
		return nil, fmt.Errorf("prober is required")
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New()
	}
	return &LocalTestnet{
		runtime:  cfg.Runtime,
		prober:   cfg.Prober,
		interval: interval,
		log:      logger,
	}, nil
}

func (l *LocalTestnet) Start(ctx context.Context, network types.Network, imageRepo string) (Handle, error) {
	h := Handle{
		Name:  ContainerName(network.String()),
		Image: ImageName(imageRepo, network.String()),
	}
	l.log.Info("Starting local testnet", "network", network, "image", h.Image, "container", h.Name)

	if err := l.runtime.Ping(ctx); err != nil {
		return h, &types.LaunchError{Image: h.Image, Err: err}
	}

	// A container left over from an earlier run would hold the name and ports.
	if err := l.runtime.RemoveContainer(ctx, h.Name); err != nil {
		l.log.Warn("Failed to remove stale container", "container", h.Name, "err", err)
	}

	if err := l.runtime.PullImage(ctx, h.Image); err != nil {
		return h, &types.LaunchError{Image: h.Image, Err: err}
	}

	id, err := l.runtime.RunContainer(ctx, ContainerSpec{
		Name:   h.Name,
		Image:  h.Image,
		Cmd:    LocalTestnetCmd,
		Ports:  []int{APIPort, FaucetPort, MetricsPort},
		Labels: map[string]string{ManagedByLabel: "true"},
	})
	h.ContainerID = id
	if err != nil {
		return h, &types.LaunchError{Image: h.Image, Err: err}
	}
	return h, nil
}

func (l *LocalTestnet) WaitForStartup(ctx context.Context, h Handle, timeout time.Duration) error {
	l.log.Info("Waiting for node and faucet to start up", "container", h.Name, "timeout", timeout)
	start := time.Now()

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempts := int(timeout/l.interval) + 1
	var lastErr error
	err := retry.Do0(pollCtx, attempts, retry.Fixed(l.interval), func() error {
		lastErr = l.prober.Probe(pollCtx)
		if lastErr != nil {
			l.log.Debug("Local testnet not ready yet", "err", lastErr)
		}
		return lastErr
	})
	if err == nil {
		l.log.Info("Local testnet is ready", "container", h.Name, "elapsed", time.Since(start).Round(time.Millisecond))
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("interrupted while waiting for %s: %w", h.Name, ctx.Err())
	}
	if lastErr == nil {
		lastErr = err
	}
	return &types.StartupTimeoutError{Container: h.Name, Timeout: timeout, LastErr: lastErr}
}

func (l *LocalTestnet) Stop(ctx context.Context, h Handle) {
	ref := h.ref()
	if ref == "" {
		return
	}
	l.log.Info("Stopping local testnet", "container", h.Name)
	if err := l.runtime.StopContainer(ctx, ref); err != nil {
		l.log.Warn("Failed to stop container", "container", h.Name, "err", err)
	}
	if err := l.runtime.RemoveContainer(ctx, ref); err != nil {
		l.log.Warn("Failed to remove container", "container", h.Name, "err", err)
		return
	}
	l.log.Info("Stopped local testnet", "container", h.Name)
}
