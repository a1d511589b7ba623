package runhelper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movemntdev/movement-cli-e2e/node"
	"github.com/movemntdev/movement-cli-e2e/types"
)

type pullRecorder struct {
	pulled []string
	err    error
}

func (p *pullRecorder) Ping(context.Context) error { return nil }
func (p *pullRecorder) PullImage(_ context.Context, image string) error {
	p.pulled = append(p.pulled, image)
	return p.err
}
func (p *pullRecorder) RunContainer(context.Context, node.ContainerSpec) (string, error) {
	return "", nil
}
func (p *pullRecorder) StopContainer(context.Context, string) error   { return nil }
func (p *pullRecorder) RemoveContainer(context.Context, string) error { return nil }

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func newLocalHelper(t *testing.T, script string) *RunHelper {
	t.Helper()
	scriptDir := t.TempDir()
	path := writeScript(t, scriptDir, "movement", script)
	h, err := New(Config{
		WorkDir:   t.TempDir(),
		Identity:  types.LocalPath(path),
		NodeURL:   "http://127.0.0.1:8080",
		FaucetURL: "http://127.0.0.1:8081",
	})
	require.NoError(t, err)
	require.NoError(t, h.Prepare(context.Background()))
	return h
}

func TestNewRejectsZeroIdentity(t *testing.T) {
	_, err := New(Config{WorkDir: t.TempDir(), NodeURL: "http://127.0.0.1:8080"})
	require.Error(t, err)
	assert.True(t, types.IsConfigurationError(err))
}

func TestNewImageIdentityNeedsRuntime(t *testing.T) {
	_, err := New(Config{
		WorkDir:   t.TempDir(),
		ImageRepo: "aptoslabs",
		Identity:  types.RemoteTag("nightly"),
		NodeURL:   "http://127.0.0.1:8080",
	})
	require.Error(t, err)
	assert.True(t, types.IsConfigurationError(err))
}

func TestPrepareLocalPath(t *testing.T) {
	dir := t.TempDir()
	notExec := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(notExec, []byte("x"), 0644))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "missing", path: filepath.Join(dir, "nope"), wantErr: "missing"},
		{name: "directory", path: dir, wantErr: "not a regular file"},
		{name: "not executable", path: notExec, wantErr: "not executable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(Config{WorkDir: t.TempDir(), Identity: types.LocalPath(tt.path), NodeURL: "http://127.0.0.1:8080"})
			require.NoError(t, err)
			err = h.Prepare(context.Background())
			require.Error(t, err)
			assert.True(t, types.IsPrepareError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPrepareImageTag(t *testing.T) {
	rt := &pullRecorder{}
	h, err := New(Config{
		WorkDir:   t.TempDir(),
		ImageRepo: "aptoslabs",
		Identity:  types.RemoteTag("nightly"),
		NodeURL:   "http://127.0.0.1:8080",
		Runtime:   rt,
	})
	require.NoError(t, err)
	require.NoError(t, h.Prepare(context.Background()))
	assert.Equal(t, []string{"aptoslabs/tools:nightly"}, rt.pulled)

	rt.err = errors.New("manifest unknown")
	err = h.Prepare(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsPrepareError(err))
	assert.Contains(t, err.Error(), "manifest unknown")
}

func TestRunCommandCapturesOutput(t *testing.T) {
	h := newLocalHelper(t, `read line
printf '\033[32mgreen\033[0m %s %s\n' "$1" "$2"
echo "stdin=[$line]" >&2
pwd >&2
exit 0
`)

	res := h.RunCommand(context.Background(), "init", []string{CLIName, "init", "--assume-yes"}, WithInput("hello\n"))
	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "green init --assume-yes\n", res.Stdout)
	assert.Contains(t, res.Stderr, "stdin=[hello]")
	assert.Contains(t, res.Stderr, h.WorkDir())
	assert.Equal(t, "movement init --assume-yes", res.Command)

	require.NotEmpty(t, res.TranscriptPath)
	assert.Equal(t, "001_init.log", filepath.Base(res.TranscriptPath))
	data, err := os.ReadFile(res.TranscriptPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "green init --assume-yes")
}

func TestRunCommandNonZeroExitIsNotAnError(t *testing.T) {
	h := newLocalHelper(t, "echo nope >&2\nexit 3\n")

	res := h.RunCommand(context.Background(), "account_create", []string{CLIName, "account", "create"})
	assert.NoError(t, res.Err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "nope\n", res.Stderr)
}

func TestRunCommandTimeout(t *testing.T) {
	h := newLocalHelper(t, "exec sleep 5\n")

	res := h.RunCommand(context.Background(), "slow", []string{CLIName}, WithTimeout(100*time.Millisecond))
	require.Error(t, res.Err)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Err.Error(), "did not finish")
}

func TestRunCommandInterrupted(t *testing.T) {
	h := newLocalHelper(t, "exec sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res := h.RunCommand(ctx, "slow", []string{CLIName})
	require.Error(t, res.Err)
	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Contains(t, res.Err.Error(), "interrupted")
	assert.NotContains(t, res.Err.Error(), "did not finish")

	transcript, err := os.ReadFile(res.TranscriptPath)
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "command interrupted")
}

func TestRunCommandWithDir(t *testing.T) {
	h := newLocalHelper(t, "pwd\n")
	sub := filepath.Join(h.WorkDir(), "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))

	res := h.RunCommand(context.Background(), "pwd", []string{CLIName}, WithDir(sub))
	require.True(t, res.Succeeded())
	resolved, err := filepath.EvalSymlinks(sub)
	require.NoError(t, err)
	assert.Equal(t, resolved, strings.TrimSpace(res.Stdout))
}

func TestRunCommandUnpreparedIsInvocationError(t *testing.T) {
	h, err := New(Config{WorkDir: t.TempDir(), Identity: types.LocalPath("/bin/true"), NodeURL: "http://127.0.0.1:8080"})
	require.NoError(t, err)

	res := h.RunCommand(context.Background(), "init", []string{CLIName, "init"})
	require.Error(t, res.Err)
	assert.True(t, types.IsInvocationError(res.Err))
	assert.FileExists(t, res.TranscriptPath)
}

func TestRunCommandThroughDocker(t *testing.T) {
	scriptDir := t.TempDir()
	docker := writeScript(t, scriptDir, "docker", `echo "$@"`+"\n")
	workDir := t.TempDir()

	h, err := New(Config{
		WorkDir:      workDir,
		ImageRepo:    "aptoslabs",
		Identity:     types.RemoteTag("nightly"),
		NodeURL:      "http://127.0.0.1:8080",
		Runtime:      &pullRecorder{},
		DockerBinary: docker,
	})
	require.NoError(t, err)
	require.NoError(t, h.Prepare(context.Background()))

	res := h.RunCommand(context.Background(), "init", []string{CLIName, "init"})
	require.True(t, res.Succeeded())
	out := strings.TrimSpace(res.Stdout)
	assert.True(t, strings.HasPrefix(out, "run --rm --network host -i --user "))
	assert.Contains(t, out, "-v "+workDir+":"+ContainerWorkDir)
	assert.Contains(t, out, "--workdir "+ContainerWorkDir+" aptoslabs/tools:nightly movement init")
}

func TestRunCommandThroughDockerRejectsOutsideDir(t *testing.T) {
	scriptDir := t.TempDir()
	marker := filepath.Join(scriptDir, "ran")
	docker := writeScript(t, scriptDir, "docker", "touch "+marker+"\n")

	h, err := New(Config{
		WorkDir:      t.TempDir(),
		ImageRepo:    "aptoslabs",
		Identity:     types.RemoteTag("nightly"),
		NodeURL:      "http://127.0.0.1:8080",
		Runtime:      &pullRecorder{},
		DockerBinary: docker,
	})
	require.NoError(t, err)
	require.NoError(t, h.Prepare(context.Background()))

	res := h.RunCommand(context.Background(), "init", []string{CLIName, "init"}, WithDir(t.TempDir()))
	require.Error(t, res.Err)
	assert.True(t, types.IsInvocationError(res.Err))
	assert.Contains(t, res.Err.Error(), "outside the working directory")
	assert.NoFileExists(t, marker, "docker must not be invoked")
	assert.FileExists(t, res.TranscriptPath)
}

func TestRunCommandThroughDockerMapsSubdir(t *testing.T) {
	scriptDir := t.TempDir()
	docker := writeScript(t, scriptDir, "docker", `echo "$@"`+"\n")
	workDir := t.TempDir()
	sub := filepath.Join(workDir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))

	h, err := New(Config{
		WorkDir:      workDir,
		ImageRepo:    "aptoslabs",
		Identity:     types.RemoteTag("nightly"),
		NodeURL:      "http://127.0.0.1:8080",
		Runtime:      &pullRecorder{},
		DockerBinary: docker,
	})
	require.NoError(t, err)
	require.NoError(t, h.Prepare(context.Background()))

	res := h.RunCommand(context.Background(), "init", []string{CLIName, "init"}, WithDir(sub))
	require.True(t, res.Succeeded())
	assert.Contains(t, res.Stdout, "--workdir "+ContainerWorkDir+"/sub ")
}

func TestRepeatedInvocationsKeepSeparateTranscripts(t *testing.T) {
	h := newLocalHelper(t, "echo run\n")

	first := h.RunCommand(context.Background(), "init", []string{CLIName})
	second := h.RunCommand(context.Background(), "init", []string{CLIName})
	assert.NotEqual(t, first.TranscriptPath, second.TranscriptPath)
	assert.FileExists(t, first.TranscriptPath)
	assert.FileExists(t, second.TranscriptPath)
}

func TestAccountInfo(t *testing.T) {
	h := newLocalHelper(t, "exit 0\n")

	_, err := h.AccountInfo()
	require.Error(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(h.WorkDir(), ConfigDirName), 0755))
	require.NoError(t, os.WriteFile(h.ConfigPath(), []byte(`---
profiles:
  default:
    network: Local
    private_key: "0xaaa"
    public_key: "0xbbb"
    account: ABC123
    rest_url: "http://localhost:8080"
    faucet_url: "http://localhost:8081"
`), 0644))

	info, err := h.AccountInfo()
	require.NoError(t, err)
	assert.Equal(t, "0xabc123", info.Address)
	assert.Equal(t, "0xbbb", info.PublicKey)
	assert.Equal(t, "0xaaa", info.PrivateKey)
}

func TestReadAccountInfoMissingProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  other:\n    account: \"0x1\"\n"), 0644))

	_, err := ReadAccountInfo(path, DefaultProfile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile "default" not found`)
}
