// Package runhelper invokes the CLI under test and keeps the evidence of
// every invocation.
package runhelper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum/go-ethereum/log"

	"github.com/movemntdev/movement-cli-e2e/logging"
	"github.com/movemntdev/movement-cli-e2e/node"
	"github.com/movemntdev/movement-cli-e2e/restclient"
	"github.com/movemntdev/movement-cli-e2e/types"
)

const (
	CLIName = "movement"

	// ContainerWorkDir is where the working directory is mounted when the
	// CLI runs from an image.
	ContainerWorkDir = "/tmp/movement-cli"

	DefaultCommandTimeout = 2 * time.Minute
	DefaultDockerBinary   = "docker"

	waitDelay = time.Second
)

type Config struct {
	WorkDir   string
	ImageRepo string
	Identity  types.CLIIdentity
	NodeURL   string
	FaucetURL string
	// Runtime pulls the CLI image. Only needed for image tag identities.
	Runtime        node.Runtime
	DockerBinary   string
	CommandTimeout time.Duration
	Log            log.Logger
}

// CommandResult is the observed outcome of one CLI invocation. A non-zero
// exit is reported through ExitCode, never through Err.
type CommandResult struct {
	Command        string
	Stdout         string
	Stderr         string
	ExitCode       int
	Err            error
	Duration       time.Duration
	TranscriptPath string
}

// Succeeded reports whether the process ran and exited zero.
func (r CommandResult) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

type runOptions struct {
	input   string
	dir     string
	timeout time.Duration
}

type RunOption func(*runOptions)

// WithInput feeds s to the command's stdin.
func WithInput(s string) RunOption {
	return func(o *runOptions) { o.input = s }
}

// WithDir runs the command in dir instead of the working directory.
func WithDir(dir string) RunOption {
	return func(o *runOptions) { o.dir = dir }
}

func WithTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// RunHelper is the per-run context test cases use to drive the CLI.
type RunHelper struct {
	cfg         Config
	transcripts *logging.TranscriptLogger
	api         *restclient.Client
	cliPath     string
	log         log.Logger
}

func New(cfg Config) (*RunHelper, error) {
	if err := cfg.Identity.Validate(); err != nil {
		return nil, err
	}
	if cfg.WorkDir == "" {
		return nil, types.NewConfigurationError("working directory is required")
	}
	if _, isTag := cfg.Identity.Tag(); isTag {
		if cfg.ImageRepo == "" {
			return nil, types.NewConfigurationError("image repository is required to run the CLI from an image")
		}
		if cfg.Runtime == nil {
			return nil, types.NewConfigurationError("container runtime is required to run the CLI from an image")
		}
	}
	if cfg.DockerBinary == "" {
		cfg.DockerBinary = DefaultDockerBinary
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New()
	}

	api, err := restclient.New(restclient.Config{BaseURL: cfg.NodeURL, Log: logger})
	if err != nil {
		return nil, types.NewConfigurationError(fmt.Sprintf("invalid node URL: %v", err))
	}
	transcripts, err := logging.NewTranscriptLogger(cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	return &RunHelper{
		cfg:         cfg,
		transcripts: transcripts,
		api:         api,
		log:         logger,
	}, nil
}

// Prepare makes sure the CLI under test can be invoked.
func (h *RunHelper) Prepare(ctx context.Context) error {
	if tag, ok := h.cfg.Identity.Tag(); ok {
		ref := node.ImageName(h.cfg.ImageRepo, tag)
		h.log.Info("Preparing test CLI image", "image", ref)
		if err := h.cfg.Runtime.PullImage(ctx, ref); err != nil {
			return &types.PrepareError{Identity: h.cfg.Identity, Err: err}
		}
		return nil
	}

	path, _ := h.cfg.Identity.Path()
	h.log.Info("Preparing test CLI binary", "path", path)
	resolved, err := resolveExecutable(path)
	if err != nil {
		return &types.PrepareError{Identity: h.cfg.Identity, Err: err}
	}
	h.cliPath = resolved
	return nil
}

func resolveExecutable(path string) (string, error) {
	if !strings.ContainsRune(path, filepath.Separator) {
		found, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%s not found in PATH: %w", path, err)
		}
		path = found
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("test CLI binary %s is missing: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("test CLI binary %s is not a regular file", abs)
	}
	if info.Mode().Perm()&0111 == 0 {
		return "", fmt.Errorf("test CLI binary %s is not executable", abs)
	}
	return abs, nil
}

// RunCommand invokes the CLI with args, where args[0] is the program name.
// The invocation is always written to a transcript.
func (h *RunHelper) RunCommand(ctx context.Context, testName string, args []string, opts ...RunOption) CommandResult {
	o := runOptions{timeout: h.cfg.CommandTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	res := CommandResult{Command: types.JoinCommand(args)}
	argv, dir, err := h.commandLine(args, o.dir)
	if err != nil {
		res.ExitCode = -1
		res.Err = &types.InvocationError{Command: res.Command, Err: err}
		h.writeTranscript(testName, dir, o.input, &res)
		return res
	}

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	// Trace context of the calling test reaches the CLI through its env.
	cmd.Env = telemetry.InstrumentEnvironment(ctx, os.Environ())
	// Children that inherit stdout must not hold up a killed command.
	cmd.WaitDelay = waitDelay
	if o.input != "" {
		cmd.Stdin = strings.NewReader(o.input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	h.log.Debug("Running CLI command", "test", testName, "command", types.JoinCommand(argv), "dir", dir)
	start := time.Now()
	err = cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stripansi.Strip(stdout.String())
	res.Stderr = stripansi.Strip(stderr.String())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Err = fmt.Errorf("command interrupted after %s: %w", res.Duration.Round(time.Millisecond), ctx.Err())
	case runCtx.Err() != nil:
		res.ExitCode = -1
		res.Err = fmt.Errorf("command did not finish within %s: %w", o.timeout, runCtx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = &types.InvocationError{Command: res.Command, Err: err}
	}

	h.log.Debug("CLI command finished", "test", testName, "exitCode", res.ExitCode, "duration", res.Duration)
	h.writeTranscript(testName, dir, o.input, &res)
	return res
}

// commandLine returns the argv and host directory for an invocation.
func (h *RunHelper) commandLine(args []string, dir string) ([]string, string, error) {
	if len(args) == 0 {
		return nil, h.cfg.WorkDir, errors.New("empty command")
	}
	if dir == "" {
		dir = h.cfg.WorkDir
	}

	if tag, ok := h.cfg.Identity.Tag(); ok {
		// Only the working directory is mounted into the container.
		rel, err := filepath.Rel(h.cfg.WorkDir, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, dir, fmt.Errorf("directory %s is outside the working directory %s", dir, h.cfg.WorkDir)
		}
		containerDir := filepath.ToSlash(filepath.Join(ContainerWorkDir, rel))
		argv := []string{
			h.cfg.DockerBinary, "run", "--rm",
			"--network", "host",
			"-i",
			"--user", fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
			"-v", fmt.Sprintf("%s:%s", h.cfg.WorkDir, ContainerWorkDir),
			"--workdir", containerDir,
			node.ImageName(h.cfg.ImageRepo, tag),
		}
		return append(argv, args...), h.cfg.WorkDir, nil
	}

	if h.cliPath == "" {
		return nil, dir, errors.New("test CLI has not been prepared")
	}
	return append([]string{h.cliPath}, args[1:]...), dir, nil
}

func (h *RunHelper) writeTranscript(testName, dir, input string, res *CommandResult) {
	path, err := h.transcripts.Write(logging.Transcript{
		TestName: testName,
		Command:  res.Command,
		Dir:      dir,
		Stdin:    input,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      res.Err,
		Duration: res.Duration,
	})
	if err != nil {
		h.log.Warn("Failed to write transcript", "test", testName, "err", err)
		return
	}
	res.TranscriptPath = path
}

// WriteFailure stores the failure detail of a test case next to its
// transcripts.
func (h *RunHelper) WriteFailure(testName string, detail types.FailureDetail) (string, error) {
	return h.transcripts.WriteFailure(testName, detail)
}

func (h *RunHelper) API() *restclient.Client {
	return h.api
}

func (h *RunHelper) WorkDir() string {
	return h.cfg.WorkDir
}

func (h *RunHelper) NodeURL() string {
	return h.cfg.NodeURL
}

func (h *RunHelper) FaucetURL() string {
	return h.cfg.FaucetURL
}

func (h *RunHelper) Identity() types.CLIIdentity {
	return h.cfg.Identity
}

// TranscriptDir is where invocation transcripts are written.
func (h *RunHelper) TranscriptDir() string {
	return h.transcripts.Dir()
}
