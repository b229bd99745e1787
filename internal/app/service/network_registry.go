package service

import (
	"sync"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
)

// NetworkRegistry holds the built-in and user-added networks.
type NetworkRegistry struct {
	store   port.NetworkStore
	logger  port.Logger
	mu      sync.RWMutex
	builtin []entity.Network
	custom  []entity.Network
}

var _ port.NetworkCatalog = (*NetworkRegistry)(nil)

// NewNetworkRegistry creates an empty registry that persists custom networks through store.
func NewNetworkRegistry(store port.NetworkStore, logger port.Logger) *NetworkRegistry {
	return &NetworkRegistry{
		store:  store,
		logger: logger,
	}
}

// AddBuiltin appends a built-in network. Only used during bootstrap.
func (r *NetworkRegistry) AddBuiltin(n entity.Network) {
	r.mu.Lock()
	r.builtin = append(r.builtin, n)
	r.mu.Unlock()
}

// AddCustom appends a user network and persists the custom list.
// The network is always stored as writable. A storage failure is logged and
// does not undo the add.
func (r *NetworkRegistry) AddCustom(n entity.Network) {
	n = n.AsCustom()
	r.mu.Lock()
	r.custom = append(r.custom, n)
	snapshot := cloneNetworks(r.custom)
	r.mu.Unlock()

	r.logger.Info("Custom network added", "name", n.Name, "url", n.URL())
	r.persist(snapshot)
}

// RestoreCustom appends networks loaded from storage without writing them back.
func (r *NetworkRegistry) RestoreCustom(networks []entity.Network) {
	r.mu.Lock()
	for _, n := range networks {
		r.custom = append(r.custom, n.AsCustom())
	}
	r.mu.Unlock()
}

// RemoveCustom removes the first custom network structurally equal to n.
// Removing an unknown network is a no-op; the list is persisted either way.
func (r *NetworkRegistry) RemoveCustom(n entity.Network) {
	r.mu.Lock()
	removed := false
	for i := range r.custom {
		if r.custom[i].Equal(n) {
			r.custom = append(r.custom[:i], r.custom[i+1:]...)
			removed = true
			break
		}
	}
	snapshot := cloneNetworks(r.custom)
	r.mu.Unlock()

	if removed {
		r.logger.Info("Custom network removed", "name", n.Name, "url", n.URL())
	} else {
		r.logger.Debug("Custom network not found, nothing removed", "name", n.Name)
	}
	r.persist(snapshot)
}

// AllNetworks returns built-in networks followed by custom ones.
func (r *NetworkRegistry) AllNetworks() []entity.Network {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]entity.Network, 0, len(r.builtin)+len(r.custom))
	all = append(all, r.builtin...)
	return append(all, r.custom...)
}

// Builtin returns a copy of the built-in list.
func (r *NetworkRegistry) Builtin() []entity.Network {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneNetworks(r.builtin)
}

// Custom returns a copy of the custom list.
func (r *NetworkRegistry) Custom() []entity.Network {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneNetworks(r.custom)
}

// Find returns the registered network structurally equal to n.
func (r *NetworkRegistry) Find(n entity.Network) (entity.Network, bool) {
	for _, candidate := range r.AllNetworks() {
		if candidate.Equal(n) {
			return candidate, true
		}
	}
	return entity.Network{}, false
}

func (r *NetworkRegistry) persist(custom []entity.Network) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveCustomNetworks(custom); err != nil {
		r.logger.Error("Failed to persist custom networks", "count", len(custom), "error", err)
	}
}

func cloneNetworks(in []entity.Network) []entity.Network {
	out := make([]entity.Network, len(in))
	copy(out, in)
	return out
}
