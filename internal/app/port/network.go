package port

import (
	"context"
	"math/big"

	"wallet_network/internal/domain/entity"
)

// Connection is the shared handle every chain client and the info service send requests through.
type Connection interface {
	// SetEndpoint repoints all requests at a new node.
	SetEndpoint(host string, port int, protocol string)

	// SetNetworkID sets the protocol-level network id used when building requests and addresses.
	SetNetworkID(id uint32)
}

// ChainClient is the per-chain handle for one of the X, P or C chains.
type ChainClient interface {
	// Role returns the chain role this client serves.
	Role() entity.ChainRole

	// RefreshChainID installs the blockchain id discovered for the current network.
	RefreshChainID(id string)

	// SetChainAlias sets the alias used in request paths (e.g. /ext/bc/X).
	SetChainAlias(alias string)

	// ResolveNativeAssetID returns the native asset id, querying the node when forceRefresh is set
	// or nothing is cached yet.
	ResolveNativeAssetID(ctx context.Context, forceRefresh bool) (string, error)

	// SetBaseFee sets the fee used when building transactions.
	SetBaseFee(amount *big.Int)
}

// InfoService answers node-level questions about the connected network.
type InfoService interface {
	GetChainID(ctx context.Context, role entity.ChainRole) (string, error)
	GetBaseFee(ctx context.Context) (*big.Int, error)
	GetNetworkID(ctx context.Context) (uint32, error)
}

// ExplorerAPI is the block-explorer client whose base URL follows the active network.
type ExplorerAPI interface {
	SetBaseURL(baseURL string)
}

// EVMProvider is the EVM-compatible RPC client whose provider URL follows the active network.
type EVMProvider interface {
	SetProvider(rawURL string) error
}
