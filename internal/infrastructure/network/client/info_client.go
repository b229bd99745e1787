package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/pkg/apperrors"
)

const infoPath = "/ext/info"

// Amount decodes node amounts sent either as a JSON string or a bare number.
type Amount struct {
	*big.Int
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("empty amount")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	a.Int = v
	return nil
}

// InfoClient queries the node info API.
type InfoClient struct {
	conn   *Connection
	logger *zap.Logger
}

var _ port.InfoService = (*InfoClient)(nil)

// NewInfoClient creates an info client on the shared connection.
func NewInfoClient(conn *Connection, logger *zap.Logger) *InfoClient {
	return &InfoClient{
		conn:   conn,
		logger: logger.Named("InfoClient"),
	}
}

// GetChainID returns the blockchain id registered under the role alias.
func (c *InfoClient) GetChainID(ctx context.Context, role entity.ChainRole) (string, error) {
	var result struct {
		BlockchainID string `json:"blockchainID"`
	}
	params := map[string]string{"alias": string(role)}
	if err := c.conn.Call(ctx, infoPath, "info.getBlockchainID", params, &result); err != nil {
		return "", err
	}
	if result.BlockchainID == "" {
		return "", fmt.Errorf("%w: empty blockchain id for alias %s", apperrors.ErrDecode, role)
	}
	c.logger.Debug("Blockchain id resolved", zap.String("alias", string(role)), zap.String("blockchainID", result.BlockchainID))
	return result.BlockchainID, nil
}

// GetBaseFee returns the base transaction fee.
func (c *InfoClient) GetBaseFee(ctx context.Context) (*big.Int, error) {
	var result struct {
		TxFee *Amount `json:"txFee"`
	}
	if err := c.conn.Call(ctx, infoPath, "info.getTxFee", nil, &result); err != nil {
		return nil, err
	}
	if result.TxFee == nil || result.TxFee.Int == nil {
		return nil, fmt.Errorf("%w: txFee missing from info.getTxFee", apperrors.ErrDecode)
	}
	return result.TxFee.Int, nil
}

// GetNetworkID returns the network id reported by the node.
func (c *InfoClient) GetNetworkID(ctx context.Context) (uint32, error) {
	var result struct {
		NetworkID *Amount `json:"networkID"`
	}
	if err := c.conn.Call(ctx, infoPath, "info.getNetworkID", nil, &result); err != nil {
		return 0, err
	}
	if result.NetworkID == nil || result.NetworkID.Int == nil || !result.NetworkID.IsUint64() || result.NetworkID.Uint64() > 1<<32-1 {
		return 0, fmt.Errorf("%w: invalid networkID", apperrors.ErrDecode)
	}
	return uint32(result.NetworkID.Uint64()), nil
}
