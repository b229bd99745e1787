package client

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/pkg/apperrors"
)

// NativeAssetSymbol is the symbol the X chain resolves to the native asset id.
const NativeAssetSymbol = "AVAX"

// ChainClient is the handle for one of the X, P or C chains of the active node.
type ChainClient struct {
	conn   *Connection
	role   entity.ChainRole
	logger *zap.Logger

	mu      sync.RWMutex
	chainID string
	alias   string
	assetID string
	baseFee *big.Int
	// gen is bumped by every RefreshChainID; lookups started under an older gen are dropped.
	gen uint64
}

var _ port.ChainClient = (*ChainClient)(nil)

// NewChainClient creates a chain client for role on the shared connection.
func NewChainClient(conn *Connection, role entity.ChainRole, logger *zap.Logger) *ChainClient {
	return &ChainClient{
		conn:    conn,
		role:    role,
		alias:   string(role),
		logger:  logger.Named("ChainClient" + string(role)),
		baseFee: new(big.Int),
	}
}

func (c *ChainClient) Role() entity.ChainRole {
	return c.role
}

// RefreshChainID installs a new blockchain id and drops the cached asset id.
// Asset id lookups still in flight from before the call are discarded.
func (c *ChainClient) RefreshChainID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID != id {
		c.assetID = ""
	}
	c.chainID = id
	c.gen++
}

func (c *ChainClient) SetChainAlias(alias string) {
	c.mu.Lock()
	c.alias = alias
	c.mu.Unlock()
}

func (c *ChainClient) SetBaseFee(amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if amount == nil {
		c.baseFee = new(big.Int)
		return
	}
	c.baseFee = new(big.Int).Set(amount)
}

// ChainID returns the installed blockchain id.
func (c *ChainClient) ChainID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainID
}

// Alias returns the alias used in request paths.
func (c *ChainClient) Alias() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alias
}

// BaseFee returns a copy of the configured fee.
func (c *ChainClient) BaseFee() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.baseFee)
}

// Path returns the chain endpoint path, e.g. /ext/bc/X.
func (c *ChainClient) Path() string {
	return "/ext/bc/" + c.Alias()
}

// Call sends a JSON-RPC request to this chain's endpoint.
func (c *ChainClient) Call(ctx context.Context, method string, params any, out any) error {
	return c.conn.Call(ctx, c.Path(), method, params, out)
}

// ResolveNativeAssetID returns the native asset id, querying the node when
// forceRefresh is set or nothing is cached. A lookup overtaken by RefreshChainID
// returns apperrors.ErrStaleEpoch and leaves the cache alone.
func (c *ChainClient) ResolveNativeAssetID(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.RLock()
	cached, gen := c.assetID, c.gen
	c.mu.RUnlock()
	if !forceRefresh && cached != "" {
		return cached, nil
	}

	var result struct {
		AssetID string `json:"assetID"`
	}
	var err error
	switch c.role {
	case entity.ChainP:
		err = c.Call(ctx, "platform.getStakingAssetID", struct{}{}, &result)
	case entity.ChainX:
		err = c.Call(ctx, "avm.getAssetDescription", map[string]string{"assetID": NativeAssetSymbol}, &result)
	default:
		// The EVM chain has no asset API of its own; its native asset is the X chain one.
		err = c.conn.Call(ctx, "/ext/bc/"+string(entity.ChainX), "avm.getAssetDescription",
			map[string]string{"assetID": NativeAssetSymbol}, &result)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve native asset id on %s chain: %w", c.role, err)
	}
	if result.AssetID == "" {
		return "", fmt.Errorf("%w: empty native asset id on %s chain", apperrors.ErrDecode, c.role)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.logger.Debug("Dropping native asset id of a replaced chain", zap.String("assetID", result.AssetID))
		return "", apperrors.ErrStaleEpoch
	}
	c.assetID = result.AssetID
	c.mu.Unlock()
	c.logger.Debug("Native asset id resolved", zap.String("assetID", result.AssetID))
	return result.AssetID, nil
}
