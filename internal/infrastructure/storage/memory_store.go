package storage

import (
	"fmt"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
)

// Compile-time check
var _ port.KeyValueStore = (*MemoryStore)(nil)

// MemoryStore is a process-lifetime key-value store backed by go-cache.
type MemoryStore struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewMemoryStore creates an empty store whose entries never expire.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		cache:  cache.New(cache.NoExpiration, 0),
		logger: logger.Named("MemoryStore"),
	}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	x, found := s.cache.Get(key)
	if !found {
		return "", false, nil
	}
	v, ok := x.(string)
	if !ok {
		return "", false, fmt.Errorf("memory store value for %s has type %T", key, x)
	}
	return v, true, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	s.logger.Debug("Memory store set", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}
