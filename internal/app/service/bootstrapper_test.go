package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
)

func newBootstrapper(h *harness) *Bootstrapper {
	return NewBootstrapper(h.registry, h.gateway, h.coord, port.NopLogger{})
}

func TestBootstrapDefaultsToFirstBuiltin(t *testing.T) {
	t.Parallel()

	h := newHarness()
	require.True(t, newBootstrapper(h).Init(context.Background()))
	h.coord.WaitBackground()

	builtins := entity.BuiltinNetworks()
	require.Equal(t, builtins, h.registry.AllNetworks())
	selected, ok := h.state.SelectedNetwork()
	require.True(t, ok)
	require.Equal(t, builtins[0], selected)
	require.Equal(t, entity.StatusConnected, h.state.Status())
}

func TestBootstrapRestoresSelectedBuiltin(t *testing.T) {
	t.Parallel()

	h := newHarness()
	fuji := entity.BuiltinNetworks()[1]
	require.NoError(t, h.gateway.SaveSelectedNetwork(fuji))

	require.True(t, newBootstrapper(h).Init(context.Background()))
	h.coord.WaitBackground()

	selected, _ := h.state.SelectedNetwork()
	require.Equal(t, fuji, selected)
}

func TestBootstrapRestoresSelectedCustom(t *testing.T) {
	t.Parallel()

	h := newHarness()
	local := localNetwork()
	require.NoError(t, h.gateway.SaveCustomNetworks([]entity.Network{local}))
	require.NoError(t, h.gateway.SaveSelectedNetwork(local))

	require.True(t, newBootstrapper(h).Init(context.Background()))
	h.coord.WaitBackground()

	require.Len(t, h.registry.AllNetworks(), 3)
	selected, _ := h.state.SelectedNetwork()
	require.Equal(t, local, selected)
	require.Equal(t, "http", h.conn.protocol)
}

func TestBootstrapUnknownSelectionFallsBack(t *testing.T) {
	t.Parallel()

	h := newHarness()
	gone := localNetwork()
	gone.Name = "Removed"
	require.NoError(t, h.gateway.SaveSelectedNetwork(gone))

	require.True(t, newBootstrapper(h).Init(context.Background()))
	h.coord.WaitBackground()

	selected, _ := h.state.SelectedNetwork()
	require.Equal(t, entity.BuiltinNetworks()[0], selected)
}

func TestBootstrapCorruptedCustomNetworks(t *testing.T) {
	t.Parallel()

	h := newHarness()
	require.NoError(t, h.kv.Set(CustomNetworksKey, `[{"name":"Local",`))
	require.NoError(t, h.kv.Set(SelectedNetworkKey, `garbage`))

	require.True(t, newBootstrapper(h).Init(context.Background()))
	h.coord.WaitBackground()

	require.Empty(t, h.registry.Custom())
	require.Equal(t, entity.StatusConnected, h.state.Status())
	selected, _ := h.state.SelectedNetwork()
	require.True(t, selected.Readonly)
}

func TestBootstrapSwitchFailureStaysDisconnected(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.info.chainErr[entity.ChainX] = errors.New("dial tcp: no route to host")

	require.False(t, newBootstrapper(h).Init(context.Background()))
	h.coord.WaitBackground()
	require.Equal(t, entity.StatusDisconnected, h.state.Status())
}

func TestBootstrapWithoutBuiltins(t *testing.T) {
	t.Parallel()

	h := newHarness()
	b := newBootstrapper(h)
	b.builtins = func() []entity.Network { return nil }

	require.False(t, b.Init(context.Background()))
	require.Equal(t, entity.StatusDisconnected, h.state.Status())
}

func TestBootstrapInitTwiceRegistersOnce(t *testing.T) {
	t.Parallel()

	h := newHarness()
	local := localNetwork()
	require.NoError(t, h.gateway.SaveCustomNetworks([]entity.Network{local}))

	b := newBootstrapper(h)
	require.True(t, b.Init(context.Background()))
	require.True(t, b.Init(context.Background()))
	h.coord.WaitBackground()

	require.Equal(t, entity.BuiltinNetworks(), h.registry.Builtin())
	require.Equal(t, []entity.Network{local}, h.registry.Custom())
	require.Equal(t, uint64(2), h.state.Epoch())
}
