package port

import (
	"wallet_network/internal/domain/entity"
)

// KeyValueStore is durable string storage keyed by name.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// NetworkStore persists the custom network list and the last selected network.
type NetworkStore interface {
	SaveCustomNetworks(networks []entity.Network) error
	LoadCustomNetworks() ([]entity.Network, error)
	SaveSelectedNetwork(network entity.Network) error
	LoadSelectedNetwork() (*entity.Network, error)
}

// SessionReader is the read-only view of the session state.
type SessionReader interface {
	Snapshot() entity.SessionSnapshot
	Status() entity.SessionStatus
	SelectedNetwork() (entity.Network, bool)
}
