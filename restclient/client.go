// Package restclient is a minimal client for the node REST API, used by the
// test cases to check chain state after a CLI invocation.
package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const (
	CoinType      = "0x1::aptos_coin::AptosCoin"
	CoinStoreType = "0x1::coin::CoinStore<" + CoinType + ">"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// APIError is returned for any non-2xx response.
type APIError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("node API request %s failed with status %d: %s", e.URL, e.StatusCode, strings.TrimSpace(e.Body))
}

// IsNotFound reports whether err is an APIError with a 404 status.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Account is the subset of account data the tests look at.
type Account struct {
	SequenceNumber    string `json:"sequence_number"`
	AuthenticationKey string `json:"authentication_key"`
}

type coinStoreResource struct {
	Type string `json:"type"`
	Data struct {
		Coin struct {
			Value string `json:"value"`
		} `json:"coin"`
	} `json:"data"`
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Log        log.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	log     log.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		log:     logger,
	}, nil
}

// Account fetches GET /v1/accounts/{addr}.
func (c *Client) Account(ctx context.Context, addr string) (*Account, error) {
	var acct Account
	if err := c.get(ctx, "/v1/accounts/"+url.PathEscape(addr), &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// AccountBalance returns the account's coin balance. Nodes that no longer
// expose the CoinStore resource are queried through the balance endpoint.
func (c *Client) AccountBalance(ctx context.Context, addr string) (*big.Int, error) {
	var res coinStoreResource
	path := fmt.Sprintf("/v1/accounts/%s/resource/%s", url.PathEscape(addr), url.PathEscape(CoinStoreType))
	err := c.get(ctx, path, &res)
	if err == nil {
		return parseAmount(res.Data.Coin.Value)
	}
	if !IsNotFound(err) {
		return nil, err
	}

	c.log.Debug("CoinStore resource not found, falling back to balance endpoint", "account", addr)
	var raw json.Number
	path = fmt.Sprintf("/v1/accounts/%s/balance/%s", url.PathEscape(addr), url.PathEscape(CoinType))
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return parseAmount(raw.String())
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{URL: target, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", target, err)
	}
	return nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid coin amount %q", s)
	}
	return v, nil
}
