package port

import (
	"context"

	"wallet_network/internal/domain/entity"
)

// AssetService is the asset/balance subsystem.
type AssetService interface {
	ResetAll()
	RefreshNativeAsset(ctx context.Context) error
	RefreshBalances(ctx context.Context) error
}

// StakingService is the platform (staking) subsystem.
type StakingService interface {
	Reset()
	RefreshState(ctx context.Context) error
	RefreshMinimumStake(ctx context.Context) error
}

// HistoryService holds transaction history for the active network.
type HistoryService interface {
	Clear()
}

// Router moves the UI between views.
type Router interface {
	NavigateTo(path string)
}

// Metrics records coordinator activity.
type Metrics interface {
	SwitchStarted(network string)
	SwitchFinished(network string, err error)
	StatusChanged(status entity.SessionStatus)
	TxFeeUpdated(fee float64)
}

// NopMetrics records nothing.
type NopMetrics struct{}

func (NopMetrics) SwitchStarted(string)               {}
func (NopMetrics) SwitchFinished(string, error)       {}
func (NopMetrics) StatusChanged(entity.SessionStatus) {}
func (NopMetrics) TxFeeUpdated(float64)               {}
