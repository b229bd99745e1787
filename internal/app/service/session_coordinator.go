package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/pkg/apperrors"
)

const (
	// DefaultSettleDelay is how long the coordinator waits after a switch before it
	// starts the balance, staking and fee refreshes.
	DefaultSettleDelay = 2 * time.Second

	// DefaultTaskTimeout bounds every background refresh.
	DefaultTaskTimeout = 30 * time.Second

	// DefaultWalletPath is the view authenticated users are sent back to on a switch.
	DefaultWalletPath = "/wallet"
)

// CoordinatorDeps are the collaborators the coordinator drives.
type CoordinatorDeps struct {
	Connection port.Connection
	Info       port.InfoService
	Chains     []port.ChainClient
	Explorer   port.ExplorerAPI
	EVM        port.EVMProvider
	Assets     port.AssetService
	Staking    port.StakingService
	History    port.HistoryService
	Router     port.Router
	Auth       port.AuthSession
	Store      port.NetworkStore
	Metrics    port.Metrics
	Logger     port.Logger
}

// CoordinatorOptions tune timing of the coordinator.
type CoordinatorOptions struct {
	SettleDelay time.Duration
	TaskTimeout time.Duration
	WalletPath  string
}

// SessionCoordinator drives connect and switch of the active network.
// It is the only writer of SessionState.
type SessionCoordinator struct {
	deps  CoordinatorDeps
	state *SessionState

	settleDelay time.Duration
	taskTimeout time.Duration
	walletPath  string

	switching atomic.Bool
	bg        sync.WaitGroup
	stop      chan struct{}
	stopOnce  sync.Once
}

var _ port.SessionController = (*SessionCoordinator)(nil)

// NewSessionCoordinator creates a coordinator writing to state.
// A negative SettleDelay is treated as zero; zero values of the other options get defaults.
func NewSessionCoordinator(deps CoordinatorDeps, state *SessionState, opts CoordinatorOptions) *SessionCoordinator {
	if deps.Logger == nil {
		deps.Logger = port.NopLogger{}
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}
	if opts.WalletPath == "" {
		opts.WalletPath = DefaultWalletPath
	}
	return &SessionCoordinator{
		deps:        deps,
		state:       state,
		settleDelay: opts.SettleDelay,
		taskTimeout: opts.TaskTimeout,
		walletPath:  opts.WalletPath,
		stop:        make(chan struct{}),
	}
}

// State returns the read-only session view.
func (c *SessionCoordinator) State() port.SessionReader {
	return c.state
}

// Switching reports whether a switch is running.
func (c *SessionCoordinator) Switching() bool {
	return c.switching.Load()
}

// SwitchNetwork makes target the active network. It returns false when any
// step up to the asset refresh fails, or when another switch is already running.
// Work already applied before a failure is left in place.
func (c *SessionCoordinator) SwitchNetwork(ctx context.Context, target entity.Network) bool {
	return c.Switch(ctx, target) == nil
}

// Switch is SwitchNetwork reporting why the switch did not happen. It returns
// apperrors.ErrSwitchInProgress when another switch holds the guard.
func (c *SessionCoordinator) Switch(ctx context.Context, target entity.Network) error {
	log := c.deps.Logger

	if !c.switching.CompareAndSwap(false, true) {
		log.Warn("Network switch rejected", "network", target.Name, "error", apperrors.ErrSwitchInProgress)
		return apperrors.ErrSwitchInProgress
	}
	defer c.switching.Store(false)

	c.deps.Metrics.SwitchStarted(target.Name)
	epoch := c.state.beginSwitch()
	c.deps.Metrics.StatusChanged(entity.StatusConnecting)
	log.Info("Switching network", "network", target.Name, "url", target.URL(), "epoch", epoch)

	err := c.switchNetwork(ctx, target, epoch)
	c.deps.Metrics.SwitchFinished(target.Name, err)
	if err != nil {
		c.state.setStatus(entity.StatusDisconnected)
		c.deps.Metrics.StatusChanged(entity.StatusDisconnected)
		log.Error("Network switch failed", "network", target.Name, "epoch", epoch, "error", err)
		return err
	}

	c.state.setStatus(entity.StatusConnected)
	c.deps.Metrics.StatusChanged(entity.StatusConnected)
	log.Info("Network connected", "network", target.Name, "network_id", target.NetworkID, "epoch", epoch)
	return nil
}

func (c *SessionCoordinator) switchNetwork(ctx context.Context, target entity.Network, epoch uint64) error {
	if err := target.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	c.deps.Connection.SetEndpoint(target.Host, target.Port, target.Protocol)
	c.deps.Connection.SetNetworkID(target.NetworkID)

	if c.deps.History != nil {
		c.deps.History.Clear()
	}

	if err := c.discoverChainIDs(ctx); err != nil {
		return err
	}

	c.refreshAssetIDs(ctx, epoch)
	c.goBackground(ctx, epoch, "network id check", func(taskCtx context.Context) error {
		return c.verifyNetworkID(taskCtx, target)
	})

	c.state.setSelected(target)
	if err := c.deps.Store.SaveSelectedNetwork(target); err != nil {
		c.deps.Logger.Warn("Failed to persist selected network", "network", target.Name, "error", err)
	}
	if c.deps.Explorer != nil {
		c.deps.Explorer.SetBaseURL(target.ExplorerAPIURL)
	}
	if c.deps.EVM != nil {
		if err := c.deps.EVM.SetProvider(target.EVMRPCURL()); err != nil {
			return fmt.Errorf("failed to set evm provider: %w", err)
		}
	}

	c.deps.Assets.ResetAll()
	if c.deps.Staking != nil {
		c.deps.Staking.Reset()
	}
	if err := c.deps.Assets.RefreshNativeAsset(ctx); err != nil {
		return fmt.Errorf("failed to refresh native asset: %w", err)
	}

	if c.deps.Auth != nil && c.deps.Auth.IsAuthenticated() {
		if c.deps.Router != nil {
			c.deps.Router.NavigateTo(c.walletPath)
		}
		for _, w := range c.deps.Auth.Wallets() {
			w.OnNetworkChanged()
		}
	}

	c.scheduleResync(ctx, epoch)
	return nil
}

// discoverChainIDs looks up the three chain ids concurrently and installs them
// only once every lookup has succeeded.
func (c *SessionCoordinator) discoverChainIDs(ctx context.Context) error {
	ids := make([]string, len(c.deps.Chains))
	g, gctx := errgroup.WithContext(ctx)
	for i, chain := range c.deps.Chains {
		i := i
		role := chain.Role()
		g.Go(func() error {
			id, err := c.deps.Info.GetChainID(gctx, role)
			if err != nil {
				return fmt.Errorf("failed to get chain id for %s: %w", role, err)
			}
			if id == "" {
				return fmt.Errorf("%w: empty chain id for %s", apperrors.ErrDecode, role)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, chain := range c.deps.Chains {
		chain.RefreshChainID(ids[i])
		chain.SetChainAlias(string(chain.Role()))
		c.deps.Logger.Debug("Chain configured", "role", chain.Role(), "chain_id", ids[i])
	}
	return nil
}

func (c *SessionCoordinator) refreshAssetIDs(ctx context.Context, epoch uint64) {
	for _, chain := range c.deps.Chains {
		chain := chain
		c.goBackground(ctx, epoch, "native asset id "+string(chain.Role()), func(taskCtx context.Context) error {
			_, err := chain.ResolveNativeAssetID(taskCtx, true)
			return err
		})
	}
}

// verifyNetworkID compares the id the node reports with the one target declares.
// A mismatch does not undo the switch.
func (c *SessionCoordinator) verifyNetworkID(ctx context.Context, target entity.Network) error {
	id, err := c.deps.Info.GetNetworkID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get network id: %w", err)
	}
	if id != target.NetworkID {
		return fmt.Errorf("%w: node reports %d, %s declares %d", apperrors.ErrNetworkMismatch, id, target.Name, target.NetworkID)
	}
	return nil
}

// scheduleResync starts the post-switch refreshes once the settle delay has passed.
func (c *SessionCoordinator) scheduleResync(ctx context.Context, epoch uint64) {
	bgCtx := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		if c.settleDelay > 0 {
			timer := time.NewTimer(c.settleDelay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-c.stop:
				return
			}
		}
		if c.state.Epoch() != epoch {
			c.deps.Logger.Debug("Skipping resync for superseded network", "epoch", epoch)
			return
		}

		c.goBackground(bgCtx, epoch, "balances", c.deps.Assets.RefreshBalances)
		if c.deps.Staking != nil {
			c.goBackground(bgCtx, epoch, "staking state", c.deps.Staking.RefreshState)
			c.goBackground(bgCtx, epoch, "minimum stake", c.deps.Staking.RefreshMinimumStake)
		}
		c.goBackground(bgCtx, epoch, "tx fee", c.UpdateTxFee)
	}()
}

// goBackground runs task detached from the caller's cancellation. Its failure is only logged.
func (c *SessionCoordinator) goBackground(ctx context.Context, epoch uint64, name string, task func(context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		taskCtx, cancel := context.WithTimeout(bgCtx, c.taskTimeout)
		defer cancel()

		err := task(taskCtx)
		current := c.state.Epoch()
		switch {
		case errors.Is(err, apperrors.ErrStaleEpoch) || (err != nil && current != epoch):
			c.deps.Logger.Debug("Background task result discarded", "task", name, "epoch", epoch, "current_epoch", current)
		case err != nil:
			c.deps.Logger.Warn("Background task failed", "task", name, "epoch", epoch, "error", err)
		default:
			c.deps.Logger.Debug("Background task finished", "task", name, "epoch", epoch)
		}
	}()
}

// UpdateTxFee fetches the base fee, stores it in the session and pushes it to the
// primary chain client. On failure the previous fee stays in place.
func (c *SessionCoordinator) UpdateTxFee(ctx context.Context) error {
	epoch := c.state.Epoch()
	fee, err := c.deps.Info.GetBaseFee(ctx)
	if err != nil {
		return fmt.Errorf("failed to get tx fee: %w", err)
	}
	if fee == nil || fee.Sign() < 0 {
		return fmt.Errorf("%w: invalid tx fee %v", apperrors.ErrDecode, fee)
	}

	if !c.state.setTxFeeIfCurrent(fee, epoch) {
		return apperrors.ErrStaleEpoch
	}
	if primary := c.primaryChain(); primary != nil {
		primary.SetBaseFee(new(big.Int).Set(fee))
	}

	f, _ := new(big.Float).SetInt(fee).Float64()
	c.deps.Metrics.TxFeeUpdated(f)
	c.deps.Logger.Debug("Tx fee updated", "fee", fee.String(), "epoch", epoch)
	return nil
}

func (c *SessionCoordinator) primaryChain() port.ChainClient {
	for _, chain := range c.deps.Chains {
		if chain.Role() == entity.ChainX {
			return chain
		}
	}
	if len(c.deps.Chains) > 0 {
		return c.deps.Chains[0]
	}
	return nil
}

// WaitBackground blocks until every background task started so far has returned.
func (c *SessionCoordinator) WaitBackground() {
	c.bg.Wait()
}

// Close drops pending resyncs that are still waiting for the settle delay and
// waits for running tasks.
func (c *SessionCoordinator) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.bg.Wait()
}
