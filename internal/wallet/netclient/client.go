// Package netclient talks to chain endpoints over HTTP. One Client serves one
// chain and walks its ordered endpoint list: transport errors, timeouts and
// 5xx answers advance to the next endpoint, anything else is the caller's
// answer. 4xx does not fail over — a request the first endpoint rejects would
// be rejected identically everywhere.
package netclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/helmwallet/wallet-engine/internal/metrics"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

//nolint:mnd
const (
	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 16 << 20

	// errorBodyPreviewLen bounds diagnostic bodies embedded in error messages.
	errorBodyPreviewLen = 300
)

// Client 单链 HTTP 客户端，按顺序在端点间故障转移
type Client struct {
	chainID        string
	endpoints      []string
	attemptTimeout time.Duration
	httpClient     *http.Client
	metrics        *metrics.Service
}

// New creates a client for one chain. The metrics service may be nil.
func New(chainID string, endpoints []string, attemptTimeout time.Duration, m *metrics.Service) (*Client, error) {
	if chainID == "" {
		return nil, errors.New("chain id is required")
	}
	if len(endpoints) == 0 {
		return nil, errors.Errorf("chain %s has no endpoints", chainID)
	}
	if attemptTimeout <= 0 {
		return nil, errors.New("attempt timeout must be positive")
	}

	return &Client{
		chainID:        chainID,
		endpoints:      endpoints,
		attemptTimeout: attemptTimeout,
		httpClient:     &http.Client{},
		metrics:        m,
	}, nil
}

// ChainID returns the chain this client serves.
func (c *Client) ChainID() string {
	return c.chainID
}

// Response is the terminal answer of one request after failover.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do JSON-encodes the payload (nil sends no body) and issues the request
// against the endpoint list.
func (c *Client) Do(ctx context.Context, method, path string, payload interface{}) (*Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request payload")
		}
	}

	return c.DoRaw(ctx, method, path, body, "application/json")
}

// DoRaw issues the request with a pre-encoded body. Each attempt gets its own
// timeout; the parent context aborts the whole loop.
func (c *Client) DoRaw(ctx context.Context, method, path string, body []byte, contentType string) (*Response, error) {
	var lastErr error

	for i, endpoint := range c.endpoints {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "request aborted")
		}

		if i > 0 {
			if c.metrics != nil {
				c.metrics.EndpointFailovers.WithLabelValues(c.chainID).Inc()
			}
			log.Warn().
				Str("chain_id", c.chainID).
				Str("endpoint", endpoint).
				Err(lastErr).
				Msg("Failing over to next endpoint")
		}

		resp, err := c.attempt(ctx, method, endpoint+path, body, contentType)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = errors.Errorf("endpoint returned status %d: %s", resp.StatusCode, preview(resp.Body))
			continue
		}

		return resp, nil
	}

	return nil, errors.Wrapf(walleterrors.ErrAllEndpointsFailed, "chain %s: %v", c.chainID, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte, contentType string) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	return c.decode(resp, out)
}

// PostJSON issues a POST with a JSON payload and decodes a 2xx JSON body into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	return c.decode(resp, out)
}

func (c *Client) decode(resp *Response, out interface{}) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("chain %s returned status %d: %s", c.chainID, resp.StatusCode, preview(resp.Body))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errors.Wrap(err, "failed to unmarshal response body")
	}

	return nil
}

func preview(body []byte) string {
	if len(body) > errorBodyPreviewLen {
		body = body[:errorBodyPreviewLen]
	}

	return string(body)
}
