package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/pkg/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transaction is the subset of an explorer transaction the wallet shows.
type Transaction struct {
	ID        string    `json:"id"`
	ChainID   string    `json:"chainID"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Memo      string    `json:"memo,omitempty"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

// Client talks to the block explorer API of the active network.
// An empty base URL means the network has no explorer.
type Client struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	baseURL string
}

var _ port.ExplorerAPI = (*Client)(nil)

// NewClient creates an explorer client with no base URL.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		client:  &fasthttp.Client{ReadTimeout: timeout},
		timeout: timeout,
		logger:  logger.Named("ExplorerClient"),
	}
}

func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
	c.logger.Info("Explorer base url set", zap.String("url", baseURL))
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Enabled reports whether the active network has an explorer.
func (c *Client) Enabled() bool {
	return c.BaseURL() != ""
}

// GetJSON performs a GET on path relative to the base URL and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	baseURL := c.BaseURL()
	if baseURL == "" {
		return fmt.Errorf("%w: explorer not available on this network", apperrors.ErrNotFound)
	}

	requestURL := baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return fmt.Errorf("%w: explorer request to %s: %v", apperrors.ErrTimeout, requestURL, err)
		}
		return fmt.Errorf("%w: explorer request to %s: %v", apperrors.ErrExternalServiceFailure, requestURL, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("Explorer returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()),
		)
		return fmt.Errorf("%w: explorer request to %s returned status %d",
			apperrors.ErrExternalServiceFailure, requestURL, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: explorer response from %s: %v", apperrors.ErrDecode, requestURL, err)
	}
	return nil
}

// Transactions returns the latest transactions touching address.
func (c *Client) Transactions(ctx context.Context, address string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	query := url.Values{}
	query.Set("address", address)
	query.Set("limit", fmt.Sprint(limit))
	query.Set("disableCount", "1")

	var resp transactionsResponse
	if err := c.GetJSON(ctx, "/v2/transactions", query, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}
