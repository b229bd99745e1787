package service

import (
	"math/big"
	"sync"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
)

// SessionState is the single process-wide session record.
// Only SessionCoordinator writes to it; everything else reads through port.SessionReader.
type SessionState struct {
	mu       sync.RWMutex
	status   entity.SessionStatus
	selected *entity.Network
	txFee    *big.Int
	epoch    uint64
}

var _ port.SessionReader = (*SessionState)(nil)

func NewSessionState() *SessionState {
	return &SessionState{
		status: entity.StatusDisconnected,
		txFee:  new(big.Int),
	}
}

func (s *SessionState) Snapshot() entity.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := entity.SessionSnapshot{
		Status: s.status,
		TxFee:  new(big.Int).Set(s.txFee),
		Epoch:  s.epoch,
	}
	if s.selected != nil {
		n := *s.selected
		snap.SelectedNetwork = &n
	}
	return snap
}

func (s *SessionState) Status() entity.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *SessionState) SelectedNetwork() (entity.Network, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return entity.Network{}, false
	}
	return *s.selected, true
}

// TxFee returns a copy of the last known fee.
func (s *SessionState) TxFee() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.txFee)
}

// Epoch returns the current network epoch.
func (s *SessionState) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *SessionState) setStatus(status entity.SessionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// beginSwitch moves to connecting and opens a new epoch.
func (s *SessionState) beginSwitch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = entity.StatusConnecting
	s.epoch++
	return s.epoch
}

func (s *SessionState) setSelected(n entity.Network) {
	s.mu.Lock()
	s.selected = &n
	s.mu.Unlock()
}

// setTxFeeIfCurrent stores fee only when epoch is still the active one.
func (s *SessionState) setTxFeeIfCurrent(fee *big.Int, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.txFee = new(big.Int).Set(fee)
	return true
}
