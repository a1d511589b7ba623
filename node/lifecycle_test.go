package node

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movemntdev/movement-cli-e2e/types"
)

// fakeRuntime records every call in order.
type fakeRuntime struct {
	mu       sync.Mutex
	calls    []string
	pingErr  error
	pullErr  error
	runErr   error
	stopErr  error
	runID    string
	lastSpec ContainerSpec
}

func (f *fakeRuntime) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRuntime) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRuntime) Ping(ctx context.Context) error {
	f.record("ping")
	return f.pingErr
}

func (f *fakeRuntime) PullImage(ctx context.Context, image string) error {
	f.record("pull " + image)
	return f.pullErr
}

func (f *fakeRuntime) RunContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	f.record("run " + spec.Name)
	f.lastSpec = spec
	return f.runID, f.runErr
}

func (f *fakeRuntime) StopContainer(ctx context.Context, ref string) error {
	f.record("stop " + ref)
	return f.stopErr
}

func (f *fakeRuntime) RemoveContainer(ctx context.Context, ref string) error {
	f.record("remove " + ref)
	return nil
}

type proberFunc func(ctx context.Context) error

func (f proberFunc) Probe(ctx context.Context) error { return f(ctx) }

func newTestLifecycle(t *testing.T, rt Runtime, p Prober) *LocalTestnet {
	t.Helper()
	l, err := New(Config{Runtime: rt, Prober: p, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	return l
}

func TestStartLaunchesContainer(t *testing.T) {
	rt := &fakeRuntime{runID: "cid"}
	l := newTestLifecycle(t, rt, proberFunc(func(context.Context) error { return nil }))

	h, err := l.Start(context.Background(), types.NetworkDevnet, "aptoslabs")
	require.NoError(t, err)
	assert.Equal(t, Handle{ContainerID: "cid", Name: "movement-tools-devnet", Image: "aptoslabs/tools:devnet"}, h)
	assert.Equal(t, []string{
		"ping",
		"remove movement-tools-devnet",
		"pull aptoslabs/tools:devnet",
		"run movement-tools-devnet",
	}, rt.Calls())
	assert.Equal(t, LocalTestnetCmd, rt.lastSpec.Cmd)
	assert.ElementsMatch(t, []int{APIPort, FaucetPort, MetricsPort}, rt.lastSpec.Ports)
}

func TestStartFailuresAreLaunchErrors(t *testing.T) {
	tests := []struct {
		name string
		rt   *fakeRuntime
	}{
		{name: "daemon unreachable", rt: &fakeRuntime{pingErr: errors.New("no daemon")}},
		{name: "pull fails", rt: &fakeRuntime{pullErr: errors.New("manifest unknown")}},
		{name: "run fails", rt: &fakeRuntime{runErr: errors.New("port in use")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLifecycle(t, tt.rt, proberFunc(func(context.Context) error { return nil }))
			h, err := l.Start(context.Background(), types.NetworkTestnet, "repo")
			require.Error(t, err)
			assert.True(t, types.IsLaunchError(err))
			assert.Equal(t, "movement-tools-testnet", h.Name)
		})
	}
}

func TestWaitForStartupBecomesReady(t *testing.T) {
	var probes int
	l := newTestLifecycle(t, &fakeRuntime{}, proberFunc(func(context.Context) error {
		probes++
		if probes < 3 {
			return errors.New("connection refused")
		}
		return nil
	}))

	err := l.WaitForStartup(context.Background(), Handle{Name: "c"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, probes)
}

func TestWaitForStartupTimeout(t *testing.T) {
	l := newTestLifecycle(t, &fakeRuntime{}, proberFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	start := time.Now()
	err := l.WaitForStartup(context.Background(), Handle{Name: "c"}, 100*time.Millisecond)
	require.Error(t, err)
	assert.True(t, types.IsStartupTimeoutError(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitForStartupInterrupted(t *testing.T) {
	l := newTestLifecycle(t, &fakeRuntime{}, proberFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.WaitForStartup(ctx, Handle{Name: "c"}, time.Second)
	require.Error(t, err)
	assert.False(t, types.IsStartupTimeoutError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStopIsBestEffort(t *testing.T) {
	rt := &fakeRuntime{stopErr: errors.New("already stopped")}
	l := newTestLifecycle(t, rt, proberFunc(func(context.Context) error { return nil }))

	l.Stop(context.Background(), Handle{ContainerID: "cid", Name: "c"})
	assert.Equal(t, []string{"stop cid", "remove cid"}, rt.Calls())
}

func TestStopByNameWithoutContainerID(t *testing.T) {
	rt := &fakeRuntime{}
	l := newTestLifecycle(t, rt, proberFunc(func(context.Context) error { return nil }))

	l.Stop(context.Background(), Handle{Name: "movement-tools-devnet"})
	assert.Equal(t, []string{"stop movement-tools-devnet", "remove movement-tools-devnet"}, rt.Calls())

	l.Stop(context.Background(), Handle{})
	assert.Len(t, rt.Calls(), 2)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Prober: proberFunc(func(context.Context) error { return nil })})
	assert.Error(t, err)
	_, err = New(Config{Runtime: &fakeRuntime{}})
	assert.Error(t, err)
}
