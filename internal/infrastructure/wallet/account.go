package wallet

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
)

// Compile-time check
var _ port.Wallet = (*Account)(nil)

// encodeAddress bech32-encodes a short id under hrp.
var encodeAddress = func(hrp string, shortID []byte) (string, error) {
	conv, err := bech32.ConvertBits(shortID, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert short id: %w", err)
	}
	encoded, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return encoded, nil
}

// Account is an open wallet account. Its X chain address is re-encoded with
// the HRP of the active network whenever the network changes.
type Account struct {
	name       string
	shortID    []byte
	evmAddress common.Address
	session    port.SessionReader
	logger     *zap.Logger

	mu       sync.RWMutex
	hrp      string
	xAddress string
}

// NewAccount creates an account from a 20-byte short id (hex) and an EVM address.
// A nil logger discards output.
func NewAccount(name, shortIDHex, evmAddress string, session port.SessionReader, logger *zap.Logger) (*Account, error) {
	shortID := common.FromHex(shortIDHex)
	if len(shortID) != 20 {
		return nil, fmt.Errorf("short id must be 20 bytes, got %d", len(shortID))
	}
	if !common.IsHexAddress(evmAddress) {
		return nil, fmt.Errorf("invalid evm address '%s'", evmAddress)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Account{
		name:       name,
		shortID:    shortID,
		evmAddress: common.HexToAddress(evmAddress),
		session:    session,
		logger:     logger.Named("Account").With(zap.String("account", name)),
	}
	if err := a.encode(); err != nil {
		return nil, err
	}
	return a, nil
}

// OnNetworkChanged re-derives the X chain address for the selected network.
// If encoding fails the previous address is kept.
func (a *Account) OnNetworkChanged() {
	if err := a.encode(); err != nil {
		a.logger.Warn("Failed to re-encode address, keeping previous one",
			zap.String("xAddress", a.XAddress()),
			zap.Error(err),
		)
	}
}

func (a *Account) encode() error {
	hrp := entity.PreferredHRP(0)
	if a.session != nil {
		if n, ok := a.session.SelectedNetwork(); ok {
			hrp = entity.PreferredHRP(n.NetworkID)
		}
	}

	encoded, err := encodeAddress(hrp, a.shortID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.hrp = hrp
	a.xAddress = "X-" + encoded
	a.mu.Unlock()
	return nil
}

func (a *Account) Name() string {
	return a.name
}

// XAddress returns the X chain address under the current HRP.
func (a *Account) XAddress() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.xAddress
}

// HRP returns the HRP the address is currently encoded with.
func (a *Account) HRP() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hrp
}

// EVMAddress returns the checksummed C chain address.
func (a *Account) EVMAddress() string {
	return a.evmAddress.Hex()
}
