package node

import (
	"context"
	"io"
	"strconv"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-connections/nat"
	"github.com/ethereum/go-ethereum/log"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
)

const defaultStopTimeout = 10 * time.Second

// dockerAPI abstracts Docker API operations for testability.
type dockerAPI interface {
	Ping(ctx context.Context) (dockertypes.Ping, error)
	ImagePull(ctx context.Context, ref string, opts image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config,
		hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig,
		platform *specs.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, opts container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, opts container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, opts container.RemoveOptions) error
	Close() error
}

// DockerRuntime implements Runtime on the Docker Engine API.
type DockerRuntime struct {
	client      dockerAPI
	stopTimeout time.Duration
	log         log.Logger
}

var _ Runtime = (*DockerRuntime)(nil)

// DockerConfig configures the Docker runtime.
type DockerConfig struct {
	// StopTimeout is how long the daemon waits before killing a container.
	StopTimeout time.Duration
	Log         log.Logger
}

// NewDockerRuntime connects to the daemon named by the DOCKER_* environment.
func NewDockerRuntime(cfg DockerConfig) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}
	return newDockerRuntime(cli, cfg), nil
}

func newDockerRuntime(api dockerAPI, cfg DockerConfig) *DockerRuntime {
	logger := cfg.Log
	if logger == nil {
		logger = log.New()
	}
	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &DockerRuntime{client: api, stopTimeout: stopTimeout, log: logger}
}

func (r *DockerRuntime) Ping(ctx context.Context) error {
	if _, err := r.client.Ping(ctx); err != nil {
		return errors.Wrap(err, "docker daemon is not reachable")
	}
	return nil
}

func (r *DockerRuntime) PullImage(ctx context.Context, ref string) error {
	r.log.Info("Pulling image", "image", ref)
	rc, err := r.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to pull image %s", ref)
	}
	defer rc.Close()

	// The pull only completes once the progress stream is drained. Errors
	// reported by the daemon mid-stream surface here.
	if err := jsonmessage.DisplayJSONMessagesStream(rc, io.Discard, 0, false, nil); err != nil {
		return errors.Wrapf(err, "failed to pull image %s", ref)
	}
	r.log.Debug("Pulled image", "image", ref)
	return nil
}

func (r *DockerRuntime) RunContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	exposed, bindings, err := portBindings(spec.Ports)
	if err != nil {
		return "", errors.Wrapf(err, "invalid ports for container %s", spec.Name)
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		ExposedPorts: exposed,
		Labels:       spec.Labels,
	}
	hostCfg := &container.HostConfig{
		PortBindings: bindings,
	}

	resp, err := r.client.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create container %s", spec.Name)
	}
	for _, w := range resp.Warnings {
		r.log.Warn("Container create warning", "container", spec.Name, "warning", w)
	}

	if err := r.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return resp.ID, errors.Wrapf(err, "failed to start container %s", spec.Name)
	}
	r.log.Info("Started container", "container", spec.Name, "id", shortID(resp.ID), "image", spec.Image)
	return resp.ID, nil
}

func (r *DockerRuntime) StopContainer(ctx context.Context, ref string) error {
	secs := int(r.stopTimeout.Seconds())
	if err := r.client.ContainerStop(ctx, ref, container.StopOptions{Timeout: &secs}); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to stop container %s", ref)
	}
	return nil
}

func (r *DockerRuntime) RemoveContainer(ctx context.Context, ref string) error {
	err := r.client.ContainerRemove(ctx, ref, container.RemoveOptions{Force: true})
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to remove container %s", ref)
	}
	return nil
}

// Close releases the docker client.
func (r *DockerRuntime) Close() error {
	return r.client.Close()
}

// portBindings publishes each port on the same host port.
func portBindings(ports []int) (nat.PortSet, nat.PortMap, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range ports {
		port, err := nat.NewPort("tcp", strconv.Itoa(p))
		if err != nil {
			return nil, nil, err
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: port.Port()}}
	}
	return exposed, bindings, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
