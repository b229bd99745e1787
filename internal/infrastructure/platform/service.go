package platform

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/infrastructure/network/client"
	"wallet_network/internal/pkg/apperrors"
)

// Compile-time check
var _ port.StakingService = (*Service)(nil)

// Caller sends JSON-RPC requests to the P chain.
type Caller interface {
	Call(ctx context.Context, method string, params any, out any) error
}

// State is the staking-related state of the active network.
type State struct {
	CurrentSupply *big.Int `json:"currentSupply"`
	Height        uint64   `json:"height"`
}

// Service is the staking subsystem backed by the P chain.
type Service struct {
	p      Caller
	logger *zap.Logger

	mu       sync.RWMutex
	state    *State
	minStake *entity.MinimumStake
	gen      uint64
}

// NewService creates a staking service over the P chain client.
func NewService(p Caller, logger *zap.Logger) *Service {
	return &Service{
		p:      p,
		logger: logger.Named("PlatformService"),
	}
}

// Reset forgets the loaded values. Refreshes started before the call are discarded.
func (s *Service) Reset() {
	s.mu.Lock()
	s.gen++
	s.state = nil
	s.minStake = nil
	s.mu.Unlock()
	s.logger.Debug("Platform state reset")
}

func (s *Service) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// RefreshState reloads current supply and height.
func (s *Service) RefreshState(ctx context.Context) error {
	gen := s.generation()
	var supply struct {
		Supply *client.Amount `json:"supply"`
	}
	if err := s.p.Call(ctx, "platform.getCurrentSupply", struct{}{}, &supply); err != nil {
		return fmt.Errorf("failed to get current supply: %w", err)
	}
	var height struct {
		Height *client.Amount `json:"height"`
	}
	if err := s.p.Call(ctx, "platform.getHeight", struct{}{}, &height); err != nil {
		return fmt.Errorf("failed to get platform height: %w", err)
	}
	if supply.Supply == nil || height.Height == nil || !height.Height.IsUint64() {
		return fmt.Errorf("%w: incomplete platform state", apperrors.ErrDecode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return apperrors.ErrStaleEpoch
	}
	s.state = &State{CurrentSupply: supply.Supply.Int, Height: height.Height.Uint64()}
	s.logger.Debug("Platform state refreshed", zap.Uint64("height", height.Height.Uint64()))
	return nil
}

// RefreshMinimumStake reloads the validator and delegator minimums.
func (s *Service) RefreshMinimumStake(ctx context.Context) error {
	gen := s.generation()
	var resp struct {
		MinValidatorStake *client.Amount `json:"minValidatorStake"`
		MinDelegatorStake *client.Amount `json:"minDelegatorStake"`
	}
	if err := s.p.Call(ctx, "platform.getMinStake", struct{}{}, &resp); err != nil {
		return fmt.Errorf("failed to get minimum stake: %w", err)
	}
	if resp.MinValidatorStake == nil || resp.MinDelegatorStake == nil {
		return fmt.Errorf("%w: platform.getMinStake result incomplete", apperrors.ErrDecode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return apperrors.ErrStaleEpoch
	}
	s.minStake = &entity.MinimumStake{
		Validator: resp.MinValidatorStake.Int,
		Delegator: resp.MinDelegatorStake.Int,
	}
	s.logger.Debug("Minimum stake refreshed",
		zap.String("validator", resp.MinValidatorStake.String()),
		zap.String("delegator", resp.MinDelegatorStake.String()),
	)
	return nil
}

// MinimumStake returns the last loaded minimums.
func (s *Service) MinimumStake() (entity.MinimumStake, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.minStake == nil {
		return entity.MinimumStake{}, false
	}
	return *s.minStake, true
}

// State returns the last loaded platform state.
func (s *Service) State() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return State{}, false
	}
	return *s.state, true
}
