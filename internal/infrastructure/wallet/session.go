package wallet

import (
	"sync"

	"go.uber.org/zap"

	"wallet_network/internal/app/port"
)

// Compile-time check
var _ port.AuthSession = (*Session)(nil)

// Session is the authenticated user session holding the open accounts.
type Session struct {
	logger *zap.Logger

	mu            sync.RWMutex
	authenticated bool
	accounts      []*Account
}

func NewSession(logger *zap.Logger) *Session {
	return &Session{logger: logger.Named("WalletSession")}
}

// Login opens the given accounts and marks the session authenticated.
func (s *Session) Login(accounts ...*Account) {
	s.mu.Lock()
	s.authenticated = true
	s.accounts = append(s.accounts[:0:0], accounts...)
	s.mu.Unlock()
	s.logger.Info("Wallet session opened", zap.Int("accounts", len(accounts)))
}

// Logout closes every account.
func (s *Session) Logout() {
	s.mu.Lock()
	s.authenticated = false
	s.accounts = nil
	s.mu.Unlock()
	s.logger.Info("Wallet session closed")
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) Wallets() []port.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]port.Wallet, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out
}

// Accounts returns the open accounts.
func (s *Session) Accounts() []*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Account(nil), s.accounts...)
}

// XAddresses lists the X chain addresses of every open account.
func (s *Session) XAddresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.XAddress())
	}
	return out
}

// EVMAddresses lists the C chain addresses of every open account.
func (s *Session) EVMAddresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.EVMAddress())
	}
	return out
}
