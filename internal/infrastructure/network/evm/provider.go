package evm

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/pkg/apperrors"
)

const defaultCallTimeout = 10 * time.Second

// BalanceResult is the native balance of one address on the EVM chain.
type BalanceResult struct {
	Address string
	Balance *big.Int
	Error   error
}

// Provider is the EVM-compatible RPC client of the C chain. Its endpoint follows the active network.
type Provider struct {
	logger      *zap.Logger
	callTimeout time.Duration

	mu     sync.RWMutex
	url    string
	client *ethclient.Client
}

var _ port.EVMProvider = (*Provider)(nil)

// NewProvider creates a provider with no endpoint.
func NewProvider(callTimeout time.Duration, logger *zap.Logger) *Provider {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Provider{
		logger:      logger.Named("EVMProvider"),
		callTimeout: callTimeout,
	}
}

// SetProvider points the client at rawURL, closing the previous one.
func (p *Provider) SetProvider(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid evm rpc url '%s'", apperrors.ErrInvalidInput, rawURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("%w: unsupported evm rpc scheme '%s'", apperrors.ErrInvalidInput, u.Scheme)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil && p.url == rawURL {
		return nil
	}

	// HTTP dials are lazy, so this does not reach the node.
	ctx, cancel := context.WithTimeout(context.Background(), p.callTimeout)
	defer cancel()
	rpcClient, err := rpc.DialOptions(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to connect to evm rpc %s: %w", rawURL, err)
	}

	if p.client != nil {
		p.client.Close()
	}
	p.client = ethclient.NewClient(rpcClient)
	p.url = rawURL
	p.logger.Info("EVM provider set", zap.String("url", rawURL))
	return nil
}

// URL returns the current provider URL.
func (p *Provider) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

func (p *Provider) current() (*ethclient.Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return nil, fmt.Errorf("%w: evm provider not set", apperrors.ErrInvalidInput)
	}
	return p.client, nil
}

// GetBalances fetches native balances of addresses in one JSON-RPC batch.
func (p *Provider) GetBalances(ctx context.Context, addresses []string) ([]BalanceResult, error) {
	if len(addresses) == 0 {
		return []BalanceResult{}, nil
	}
	client, err := p.current()
	if err != nil {
		return nil, err
	}

	batch := make([]rpc.BatchElem, len(addresses))
	results := make([]BalanceResult, len(addresses))
	for i, addr := range addresses {
		results[i].Address = addr
		if !common.IsHexAddress(addr) {
			results[i].Error = fmt.Errorf("%w: '%s' is not an evm address", apperrors.ErrInvalidInput, addr)
		}
		batch[i] = rpc.BatchElem{
			Method: "eth_getBalance",
			Args:   []interface{}{common.HexToAddress(addr), "latest"},
			Result: new(*hexutil.Big),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	if err := client.Client().BatchCallContext(callCtx, batch); err != nil {
		return results, fmt.Errorf("%w: rpc batch call failed: %v", apperrors.ErrExternalServiceFailure, err)
	}

	for i, elem := range batch {
		if results[i].Error != nil {
			continue
		}
		if elem.Error != nil {
			results[i].Error = fmt.Errorf("failed to fetch balance of %s: %w", addresses[i], elem.Error)
			continue
		}
		if result, ok := elem.Result.(**hexutil.Big); ok && result != nil && *result != nil {
			results[i].Balance = (*big.Int)(*result)
		} else {
			results[i].Balance = big.NewInt(0)
		}
	}
	return results, nil
}

// Close releases the underlying client.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
		p.url = ""
	}
}
