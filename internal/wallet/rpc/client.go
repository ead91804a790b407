package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chainvault/go-signer/internal/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Caller is the narrow transport contract the signers consume: one request in,
// a decoded JSON result or an error out.
type Caller interface {
	// Call performs a JSON-RPC 2.0 request and decodes the result into
	// result (which may be nil to discard it).
	Call(ctx context.Context, method string, params any, result any) error
}

// RESTCaller is the transport contract for node HTTP APIs that are plain REST
// rather than JSON-RPC (TRON node API, esplora-style Bitcoin APIs, toncenter).
type RESTCaller interface {
	PostJSON(ctx context.Context, path string, body any, result any) error
	GetJSON(ctx context.Context, path string, result any) error
	PostText(ctx context.Context, path string, body string) (string, error)
}

// Error is an error returned by the upstream node rather than the transport.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// ErrAllEndpointsFailed is returned when no configured endpoint produced a
// response.
var ErrAllEndpointsFailed = errors.New("all RPC endpoints are unavailable")

const defaultRequestTimeout = 15 * time.Second

// Client is an HTTP transport over one or more equivalent endpoints. Requests
// fail over to the next endpoint on transport errors; the last healthy
// endpoint is remembered and tried first.
type Client struct {
	endpoints  []string
	httpClient *http.Client

	mu      sync.Mutex
	current int
}

// NewClient creates a transport over the given endpoint URLs.
func NewClient(endpoints []string) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("at least one RPC endpoint is required")
	}

	trimmed := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		trimmed = append(trimmed, strings.TrimRight(endpoint, "/"))
	}

	return &Client{
		endpoints:  trimmed,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Call performs a JSON-RPC 2.0 request with endpoint failover.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	request := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON-RPC request")
	}

	raw, err := c.do(ctx, http.MethodPost, "", body, "application/json")
	if err != nil {
		return err
	}

	var response jsonrpcResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return errors.Wrap(err, "failed to unmarshal JSON-RPC response")
	}

	// Upstream errors are surfaced, never retried against other endpoints
	if response.Error != nil {
		return errors.Wrapf(response.Error, "RPC method %s failed", method)
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(response.Result, result); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %s result", method)
	}

	return nil
}

// PostJSON posts a JSON body to path on the node REST API.
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request body")
	}

	raw, err := c.do(ctx, http.MethodPost, path, encoded, "application/json")
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %s response", path)
	}

	return nil
}

// GetJSON fetches path from the node REST API.
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	raw, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %s response", path)
	}

	return nil
}

// PostText posts a plain-text body (e.g. a raw transaction in hex) and returns
// the response body as a string.
func (c *Client) PostText(ctx context.Context, path string, body string) (string, error) {
	raw, err := c.do(ctx, http.MethodPost, path, []byte(body), "text/plain")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(raw)), nil
}

// do runs the request against the current endpoint and fails over to the next
// one on transport errors or 5xx responses.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	log := util.LogFromContext(ctx)

	start := c.currentIndex()

	var lastErr error
	for attempt := 0; attempt < len(c.endpoints); attempt++ {
		idx := (start + attempt) % len(c.endpoints)
		endpoint := c.endpoints[idx]

		raw, err := c.doOnce(ctx, endpoint, method, path, body, contentType)
		if err == nil {
			c.setCurrentIndex(idx)
			return raw, nil
		}

		// Client errors are deterministic rejections; retrying them against
		// another endpoint would only repeat the same answer.
		var upstreamErr *Error
		if errors.As(err, &upstreamErr) {
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "request cancelled")
		}

		log.Warn().
			Str("endpoint", endpoint).
			Str("path", path).
			Err(err).
			Msg("RPC endpoint failed, trying next")
		lastErr = err
	}

	return nil, errors.Wrap(ErrAllEndpointsFailed, lastErr.Error())
}

func (c *Client) doOnce(ctx context.Context, endpoint, method, path string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if response.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Errorf("endpoint returned status %d", response.StatusCode)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return nil, &Error{Code: response.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	return raw, nil
}

func (c *Client) currentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *Client) setCurrentIndex(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = idx
}
