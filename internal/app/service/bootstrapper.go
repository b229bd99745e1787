package service

import (
	"context"
	"sync"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
)

// Bootstrapper fills the registry at startup and restores the last session.
type Bootstrapper struct {
	registry *NetworkRegistry
	store    port.NetworkStore
	switcher port.NetworkSwitcher
	logger   port.Logger
	builtins func() []entity.Network

	loadOnce sync.Once
}

// NewBootstrapper creates a bootstrapper using the hardcoded built-in networks.
func NewBootstrapper(registry *NetworkRegistry, store port.NetworkStore, switcher port.NetworkSwitcher, logger port.Logger) *Bootstrapper {
	return &Bootstrapper{
		registry: registry,
		store:    store,
		switcher: switcher,
		logger:   logger,
		builtins: entity.BuiltinNetworks,
	}
}

// Init registers the built-in and stored networks, then activates the stored
// selection if it still matches a known network, or the first built-in otherwise.
// Networks are registered on the first call only; later calls retry the activation.
// Failures are logged and reported through the return value only.
func (b *Bootstrapper) Init(ctx context.Context) bool {
	b.loadOnce.Do(b.loadRegistry)

	builtins := b.registry.Builtin()
	if len(builtins) == 0 {
		b.logger.Error("No built-in networks available, staying disconnected")
		return false
	}
	target := builtins[0]

	saved, err := b.store.LoadSelectedNetwork()
	switch {
	case err != nil:
		b.logger.Warn("Failed to load selected network, using default", "default", target.Name, "error", err)
	case saved == nil:
		b.logger.Debug("No selected network stored, using default", "default", target.Name)
	default:
		if match, ok := b.registry.Find(*saved); ok {
			target = match
		} else {
			b.logger.Info("Stored network no longer registered, using default", "stored", saved.Name, "default", target.Name)
		}
	}

	return b.switcher.SwitchNetwork(ctx, target)
}

func (b *Bootstrapper) loadRegistry() {
	builtins := b.builtins()

	custom, err := b.store.LoadCustomNetworks()
	if err != nil {
		b.logger.Warn("Failed to load custom networks, continuing without them", "error", err)
		custom = nil
	}

	for _, n := range builtins {
		b.registry.AddBuiltin(n)
	}
	b.registry.RestoreCustom(custom)
	b.logger.Info("Network registry loaded", "builtin", len(builtins), "custom", len(custom))
}
