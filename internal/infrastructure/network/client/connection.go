package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wallet_network/internal/app/port"
	"wallet_network/internal/pkg/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultRequestTimeout = 10 * time.Second

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	ID     uint64              `json:"id"`
	Result jsoniter.RawMessage `json:"result,omitempty"`
	Error  *rpcError           `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ConnectionOptions tune the shared node connection.
type ConnectionOptions struct {
	RequestTimeout time.Duration
	RatePerSecond  float64
	Burst          int
}

// Connection is the shared node handle all chain clients send JSON-RPC requests through.
type Connection struct {
	client  *fasthttp.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
	nextID  atomic.Uint64

	mu        sync.RWMutex
	baseURL   string
	networkID uint32
}

var _ port.Connection = (*Connection)(nil)

// NewConnection creates a connection with no endpoint set.
func NewConnection(opts ConnectionOptions, logger *zap.Logger) *Connection {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Connection{
		client: &fasthttp.Client{
			ReadTimeout:  opts.RequestTimeout,
			WriteTimeout: opts.RequestTimeout,
		},
		limiter: rate.NewLimiter(limit, opts.Burst),
		timeout: opts.RequestTimeout,
		logger:  logger.Named("NodeConnection"),
	}
}

func (c *Connection) SetEndpoint(host string, port int, protocol string) {
	baseURL := fmt.Sprintf("%s://%s:%d", protocol, host, port)
	c.mu.Lock()
	c.baseURL = baseURL
	c.mu.Unlock()
	c.logger.Info("Node endpoint set", zap.String("url", baseURL))
}

func (c *Connection) SetNetworkID(id uint32) {
	c.mu.Lock()
	c.networkID = id
	c.mu.Unlock()
}

// BaseURL returns the current node URL.
func (c *Connection) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// NetworkID returns the current protocol-level network id.
func (c *Connection) NetworkID() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.networkID
}

// Call sends a JSON-RPC request to path on the current node and decodes the result into out.
func (c *Connection) Call(ctx context.Context, path, method string, params any, out any) error {
	baseURL := c.BaseURL()
	if baseURL == "" {
		return fmt.Errorf("%w: node endpoint not set", apperrors.ErrInvalidInput)
	}
	if params == nil {
		params = struct{}{}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", apperrors.ErrTimeout, err)
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	requestURL := strings.TrimRight(baseURL, "/") + path

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			c.logger.Debug("Node request timed out", zap.String("url", requestURL), zap.String("method", method), zap.Error(err))
			return fmt.Errorf("%w: %s to %s: %v", apperrors.ErrTimeout, method, requestURL, err)
		}
		c.logger.Debug("Node request failed", zap.String("url", requestURL), zap.String("method", method), zap.Error(err))
		return fmt.Errorf("%w: %s to %s: %v", apperrors.ErrExternalServiceFailure, method, requestURL, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("Node returned non-OK status",
			zap.String("url", requestURL),
			zap.String("method", method),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()),
		)
		return fmt.Errorf("%w: %s to %s returned status %d",
			apperrors.ErrExternalServiceFailure, method, requestURL, resp.StatusCode())
	}

	var envelope rpcResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("%w: %s response: %v", apperrors.ErrDecode, method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrExternalServiceFailure, method, envelope.Error)
	}
	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 {
		return fmt.Errorf("%w: %s response has no result", apperrors.ErrDecode, method)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("%w: %s result: %v", apperrors.ErrDecode, method, err)
	}
	return nil
}
