package assets

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/infrastructure/network/client"
	"wallet_network/internal/infrastructure/network/evm"
	"wallet_network/internal/pkg/apperrors"
	"wallet_network/internal/pkg/utils"
)

// Compile-time check
var _ port.AssetService = (*Store)(nil)

const (
	nativeAssetKey   = "native_asset"
	balanceKeyPrefix = "balance_"
	evmBatchSize     = 20
)

// XChain is the X chain surface the store needs.
type XChain interface {
	ResolveNativeAssetID(ctx context.Context, forceRefresh bool) (string, error)
	Call(ctx context.Context, method string, params any, out any) error
}

// EVMBalances fetches native balances on the EVM chain.
type EVMBalances interface {
	GetBalances(ctx context.Context, addresses []string) ([]evm.BalanceResult, error)
}

// AddressBook lists the addresses whose balances are tracked.
type AddressBook interface {
	XAddresses() []string
	EVMAddresses() []string
}

// Store is the asset and balance subsystem of the active network.
type Store struct {
	x      XChain
	evm    EVMBalances
	book   AddressBook
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	mu     sync.Mutex

	// genMu orders cache writes against ResetAll; gen counts resets.
	genMu sync.Mutex
	gen   uint64
}

// NewStore creates an asset store caching balances for ttl.
func NewStore(x XChain, evmBalances EVMBalances, book AddressBook, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{
		x:      x,
		evm:    evmBalances,
		book:   book,
		cache:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
		logger: logger.Named("AssetStore"),
	}
}

// ResetAll drops the native asset and every cached balance. Refreshes still
// running from before the reset no longer write to the cache.
func (s *Store) ResetAll() {
	s.genMu.Lock()
	s.gen++
	s.cache.Flush()
	s.genMu.Unlock()
	s.logger.Debug("Asset cache reset")
}

func (s *Store) generation() uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gen
}

// setIfCurrent stores value unless a ResetAll happened after gen was read.
func (s *Store) setIfCurrent(gen uint64, key string, value any, ttl time.Duration) error {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gen != gen {
		return apperrors.ErrStaleEpoch
	}
	s.cache.Set(key, value, ttl)
	return nil
}

// RefreshNativeAsset resolves the native asset of the network and its description.
func (s *Store) RefreshNativeAsset(ctx context.Context) error {
	gen := s.generation()
	id, err := s.x.ResolveNativeAssetID(ctx, false)
	if err != nil {
		return err
	}

	var desc struct {
		AssetID      string         `json:"assetID"`
		Name         string         `json:"name"`
		Symbol       string         `json:"symbol"`
		Denomination *client.Amount `json:"denomination"`
	}
	if err := s.x.Call(ctx, "avm.getAssetDescription", map[string]string{"assetID": id}, &desc); err != nil {
		return fmt.Errorf("failed to describe native asset %s: %w", id, err)
	}

	asset := entity.AssetDescription{ID: id, Name: desc.Name, Symbol: desc.Symbol}
	if desc.Denomination != nil && desc.Denomination.Int != nil && desc.Denomination.IsUint64() && desc.Denomination.Uint64() <= 255 {
		asset.Denomination = uint8(desc.Denomination.Uint64())
	}
	if err := s.setIfCurrent(gen, nativeAssetKey, asset, cache.NoExpiration); err != nil {
		s.logger.Debug("Dropping native asset of a replaced network", zap.String("assetID", id))
		return err
	}
	s.logger.Info("Native asset loaded", zap.String("assetID", id), zap.String("symbol", asset.Symbol))
	return nil
}

// NativeAsset returns the loaded native asset.
func (s *Store) NativeAsset() (entity.AssetDescription, bool) {
	x, found := s.cache.Get(nativeAssetKey)
	if !found {
		return entity.AssetDescription{}, false
	}
	asset, ok := x.(entity.AssetDescription)
	return asset, ok
}

// RefreshBalances reloads balances of every tracked address.
// Addresses that fail are logged and skipped; the first error is returned.
// When the cache is reset mid-refresh the remaining results are dropped and
// apperrors.ErrStaleEpoch is returned.
func (s *Store) RefreshBalances(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.book == nil {
		return nil
	}
	gen := s.generation()
	native, _ := s.NativeAsset()
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, addr := range s.book.XAddresses() {
		balances, err := s.fetchXBalances(ctx, addr, native)
		if err != nil {
			s.logger.Warn("Failed to refresh balances", zap.String("address", addr), zap.Error(err))
			keep(err)
			continue
		}
		if err := s.setIfCurrent(gen, balanceKeyPrefix+addr, balances, s.ttl); err != nil {
			s.logger.Debug("Dropping balances of a replaced network", zap.String("address", addr))
			return err
		}
	}

	if s.evm != nil {
		for _, batch := range utils.BatchStrings(s.book.EVMAddresses(), evmBatchSize) {
			results, err := s.evm.GetBalances(ctx, batch)
			if err != nil {
				s.logger.Warn("Failed to refresh evm balances", zap.Int("count", len(batch)), zap.Error(err))
				keep(err)
				continue
			}
			for _, r := range results {
				if r.Error != nil {
					s.logger.Warn("Failed to refresh evm balance", zap.String("address", r.Address), zap.Error(r.Error))
					keep(r.Error)
					continue
				}
				err := s.setIfCurrent(gen, balanceKeyPrefix+r.Address, []entity.Balance{{
					Address:          r.Address,
					Chain:            entity.ChainC,
					AssetID:          native.ID,
					Symbol:           native.Symbol,
					Denomination:     entity.EVMDenomination,
					Amount:           r.Balance,
					FormattedBalance: utils.FormatBigInt(r.Balance, entity.EVMDenomination),
				}}, s.ttl)
				if err != nil {
					s.logger.Debug("Dropping evm balances of a replaced network", zap.String("address", r.Address))
					return err
				}
			}
		}
	}
	return firstErr
}

func (s *Store) fetchXBalances(ctx context.Context, addr string, native entity.AssetDescription) ([]entity.Balance, error) {
	var resp struct {
		Balances []struct {
			Asset   string         `json:"asset"`
			Balance *client.Amount `json:"balance"`
		} `json:"balances"`
	}
	if err := s.x.Call(ctx, "avm.getAllBalances", map[string]string{"address": addr}, &resp); err != nil {
		return nil, err
	}

	balances := make([]entity.Balance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		amount := new(big.Int)
		if b.Balance != nil && b.Balance.Int != nil {
			amount = b.Balance.Int
		}
		bal := entity.Balance{
			Address: addr,
			Chain:   entity.ChainX,
			AssetID: b.Asset,
			Amount:  amount,
		}
		if b.Asset == native.ID || strings.EqualFold(b.Asset, native.Symbol) {
			bal.AssetID = native.ID
			bal.Symbol = native.Symbol
			bal.Denomination = native.Denomination
		}
		bal.FormattedBalance = utils.FormatBigInt(amount, bal.Denomination)
		balances = append(balances, bal)
	}
	return balances, nil
}

// Balances returns every cached balance ordered by address.
func (s *Store) Balances() []entity.Balance {
	items := s.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		if strings.HasPrefix(k, balanceKeyPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]entity.Balance, 0, len(keys))
	for _, k := range keys {
		if list, ok := items[k].Object.([]entity.Balance); ok {
			out = append(out, list...)
		}
	}
	return out
}
