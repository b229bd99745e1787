package service

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/pkg/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage keys of the two persisted records.
const (
	CustomNetworksKey  = "networks"
	SelectedNetworkKey = "network_selected"
)

// PersistenceGateway stores the custom network list and the last selected network as JSON.
type PersistenceGateway struct {
	store port.KeyValueStore
}

var _ port.NetworkStore = (*PersistenceGateway)(nil)

// NewPersistenceGateway creates a gateway over the given key-value store.
func NewPersistenceGateway(store port.KeyValueStore) *PersistenceGateway {
	return &PersistenceGateway{store: store}
}

func (g *PersistenceGateway) SaveCustomNetworks(networks []entity.Network) error {
	if networks == nil {
		networks = []entity.Network{}
	}
	data, err := json.Marshal(networks)
	if err != nil {
		return fmt.Errorf("failed to encode custom networks: %w", err)
	}
	if err := g.store.Set(CustomNetworksKey, string(data)); err != nil {
		return fmt.Errorf("failed to store custom networks: %w", err)
	}
	return nil
}

// LoadCustomNetworks returns the stored custom list. A missing key yields an empty list.
// Every loaded entry is marked as user-defined.
func (g *PersistenceGateway) LoadCustomNetworks() ([]entity.Network, error) {
	raw, ok, err := g.store.Get(CustomNetworksKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom networks: %w", err)
	}
	if !ok || raw == "" {
		return []entity.Network{}, nil
	}

	var networks []entity.Network
	if err := json.Unmarshal([]byte(raw), &networks); err != nil {
		return nil, fmt.Errorf("%w: custom networks: %v", apperrors.ErrDecode, err)
	}

	out := make([]entity.Network, 0, len(networks))
	for _, n := range networks {
		out = append(out, n.AsCustom())
	}
	return out, nil
}

func (g *PersistenceGateway) SaveSelectedNetwork(network entity.Network) error {
	data, err := json.Marshal(network)
	if err != nil {
		return fmt.Errorf("failed to encode selected network: %w", err)
	}
	if err := g.store.Set(SelectedNetworkKey, string(data)); err != nil {
		return fmt.Errorf("failed to store selected network: %w", err)
	}
	return nil
}

// LoadSelectedNetwork returns the stored descriptor, or nil when nothing was saved.
func (g *PersistenceGateway) LoadSelectedNetwork() (*entity.Network, error) {
	raw, ok, err := g.store.Get(SelectedNetworkKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read selected network: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var network entity.Network
	if err := json.Unmarshal([]byte(raw), &network); err != nil {
		return nil, fmt.Errorf("%w: selected network: %v", apperrors.ErrDecode, err)
	}
	return &network, nil
}
