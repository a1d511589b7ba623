package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultProbeTimeout = 2 * time.Second

// errProbeNotFound marks a 404 so the faucet probe can fall back to its root.
var errProbeNotFound = errors.New("not found")

// Prober reports whether the node and faucet are ready to serve requests.
type Prober interface {
	// Probe returns nil once both services are ready.
	Probe(ctx context.Context) error
}

// HTTPProber checks GET <node>/v1 and GET <faucet>/health. Faucets without a
// health route are checked at their root instead. Only 2xx counts as ready.
type HTTPProber struct {
	NodeURL   string
	FaucetURL string
	Client    *http.Client
}

var _ Prober = (*HTTPProber)(nil)

func NewHTTPProber(nodeURL, faucetURL string) *HTTPProber {
	return &HTTPProber{
		NodeURL:   strings.TrimRight(nodeURL, "/"),
		FaucetURL: strings.TrimRight(faucetURL, "/"),
		Client:    &http.Client{Timeout: defaultProbeTimeout},
	}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	if err := p.get(ctx, p.NodeURL+"/v1"); err != nil {
		return fmt.Errorf("node API not ready: %w", err)
	}
	err := p.get(ctx, p.FaucetURL+"/health")
	if errors.Is(err, errProbeNotFound) {
		err = p.get(ctx, p.FaucetURL+"/")
	}
	if err != nil {
		return fmt.Errorf("faucet not ready: %w", err)
	}
	return nil
}

func (p *HTTPProber) get(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		// Convert errors into failures to catch timeouts.
		return err
	}
	defer res.Body.Close()
	if _, err = io.Copy(io.Discard, res.Body); err != nil {
		return err
	}
	switch {
	case res.StatusCode >= http.StatusOK && res.StatusCode < http.StatusMultipleChoices:
		return nil
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", url, errProbeNotFound)
	case res.StatusCode >= http.StatusMultipleChoices && res.StatusCode < http.StatusBadRequest:
		return fmt.Errorf("%s: probe result is a redirect: %s", url, res.Status)
	default:
		return fmt.Errorf("%s: probe failed with status code %d", url, res.StatusCode)
	}
}
