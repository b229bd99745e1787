package port

import (
	"context"

	"wallet_network/internal/domain/entity"
)

// NetworkSwitcher activates a network.
type NetworkSwitcher interface {
	// SwitchNetwork runs the full switch pipeline and reports whether the network is now connected.
	SwitchNetwork(ctx context.Context, target entity.Network) bool
}

// SessionController is the coordinator surface exposed to the HTTP layer.
type SessionController interface {
	NetworkSwitcher
	// Switch runs the same pipeline as SwitchNetwork and returns the reason it failed.
	Switch(ctx context.Context, target entity.Network) error
	UpdateTxFee(ctx context.Context) error
}

// NetworkCatalog is the registry surface exposed to the HTTP layer.
type NetworkCatalog interface {
	AllNetworks() []entity.Network
	AddCustom(n entity.Network)
	RemoveCustom(n entity.Network)
	Find(n entity.Network) (entity.Network, bool)
}
