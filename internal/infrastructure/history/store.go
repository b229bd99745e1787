package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/infrastructure/explorer"
)

// Compile-time check
var _ port.HistoryService = (*Store)(nil)

// TransactionSource lists transactions for an address.
type TransactionSource interface {
	Enabled() bool
	Transactions(ctx context.Context, address string, limit int) ([]explorer.Transaction, error)
}

// Store keeps the transaction history fetched for the active network.
type Store struct {
	source TransactionSource
	limit  int
	cache  *cache.Cache
	logger *zap.Logger

	// serializes Sync against Clear so a sync started before a switch
	// cannot repopulate the cache afterwards
	mu         sync.Mutex
	generation uint64
}

func NewStore(source TransactionSource, limit int, logger *zap.Logger) *Store {
	return &Store{
		source: source,
		limit:  limit,
		cache:  cache.New(cache.NoExpiration, 0),
		logger: logger.Named("HistoryStore"),
	}
}

// Clear drops every cached transaction.
func (s *Store) Clear() {
	s.mu.Lock()
	s.generation++
	s.cache.Flush()
	s.mu.Unlock()
	s.logger.Debug("History cleared")
}

// Sync fetches the latest transactions for address from the explorer.
// Networks without an explorer have no history.
func (s *Store) Sync(ctx context.Context, address string) ([]explorer.Transaction, error) {
	if s.source == nil || !s.source.Enabled() {
		return nil, nil
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	txs, err := s.source.Transactions(ctx, address, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sync history for %s: %w", address, err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.After(txs[j].Timestamp)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("Dropping history fetched before clear", zap.String("address", address))
		return txs, nil
	}
	s.cache.Set(address, txs, cache.NoExpiration)
	s.logger.Debug("History synced", zap.String("address", address), zap.Int("count", len(txs)))
	return txs, nil
}

// Transactions returns the cached history of address.
func (s *Store) Transactions(address string) ([]explorer.Transaction, bool) {
	x, found := s.cache.Get(address)
	if !found {
		return nil, false
	}
	txs, ok := x.([]explorer.Transaction)
	return txs, ok
}
