package service

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
)

type memoryKV struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

type fakeConnection struct {
	mu        sync.Mutex
	host      string
	port      int
	protocol  string
	networkID uint32
}

func (f *fakeConnection) SetEndpoint(host string, port int, protocol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.host, f.port, f.protocol = host, port, protocol
}

func (f *fakeConnection) SetNetworkID(id uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.networkID = id
}

type fakeInfo struct {
	mu       sync.Mutex
	chainIDs map[entity.ChainRole]string
	chainErr map[entity.ChainRole]error
	fee      *big.Int
	feeErr   error
	feeCalls int
	netID    uint32
	netCalls int
	// block, when set, makes GetChainID wait until it is closed.
	block chan struct{}
}

func newFakeInfo() *fakeInfo {
	return &fakeInfo{
		chainIDs: map[entity.ChainRole]string{
			entity.ChainX: "2oYMBNV4eNHyqk2fjjV5nVQLDbtmNJzq5s3qs3Lo6ftnC6FByM",
			entity.ChainP: "11111111111111111111111111111111LpoYY",
			entity.ChainC: "2q9e4r6Mu3U68nU1fYjgbR6JvwrRx36CohpAX5UQxse55x1Q5",
		},
		chainErr: make(map[entity.ChainRole]error),
		fee:      big.NewInt(1000000),
	}
}

func (f *fakeInfo) GetChainID(ctx context.Context, role entity.ChainRole) (string, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.chainErr[role]; err != nil {
		return "", err
	}
	return f.chainIDs[role], nil
}

func (f *fakeInfo) GetBaseFee(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeCalls++
	if f.feeErr != nil {
		return nil, f.feeErr
	}
	return new(big.Int).Set(f.fee), nil
}

func (f *fakeInfo) GetNetworkID(context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.netCalls++
	return f.netID, nil
}

type fakeChain struct {
	mu          sync.Mutex
	role        entity.ChainRole
	chainID     string
	alias       string
	fee         *big.Int
	assetCalls  int
	forceCalled bool
}

func (f *fakeChain) Role() entity.ChainRole { return f.role }

func (f *fakeChain) RefreshChainID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainID = id
}

func (f *fakeChain) SetChainAlias(alias string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alias = alias
}

func (f *fakeChain) ResolveNativeAssetID(_ context.Context, forceRefresh bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assetCalls++
	f.forceCalled = f.forceCalled || forceRefresh
	return "FvwEAhmxKfeiG8SnEvq42hc6whRyY3EFYAvebMqDNDGCgxN5Z", nil
}

func (f *fakeChain) SetBaseFee(amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fee = amount
}

func (f *fakeChain) snapshot() (chainID, alias string, fee *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainID, f.alias, f.fee
}

type fakeExplorer struct {
	mu  sync.Mutex
	url string
}

func (f *fakeExplorer) SetBaseURL(u string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = u
}

type fakeEVM struct {
	mu  sync.Mutex
	url string
	err error
}

func (f *fakeEVM) SetProvider(u string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.url = u
	return nil
}

type fakeAssets struct {
	mu           sync.Mutex
	resets       int
	nativeCalls  int
	balanceCalls int
	nativeErr    error
	calls        []string
}

func (f *fakeAssets) ResetAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.calls = append(f.calls, "reset")
}

func (f *fakeAssets) RefreshNativeAsset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nativeCalls++
	f.calls = append(f.calls, "native")
	return f.nativeErr
}

func (f *fakeAssets) RefreshBalances(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	f.calls = append(f.calls, "balances")
	return nil
}

type fakeStaking struct {
	mu         sync.Mutex
	resets     int
	stateCalls int
	stakeCalls int
}

func (f *fakeStaking) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeStaking) RefreshState(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	return nil
}

func (f *fakeStaking) RefreshMinimumStake(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stakeCalls++
	return errors.New("min stake unavailable")
}

type fakeHistory struct {
	mu      sync.Mutex
	cleared int
}

func (f *fakeHistory) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

type fakeRouter struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeRouter) NavigateTo(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
}

type fakeWallet struct {
	mu      sync.Mutex
	changes int
}

func (f *fakeWallet) OnNetworkChanged() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes++
}

type fakeAuth struct {
	authenticated bool
	wallets       []port.Wallet
}

func (f *fakeAuth) IsAuthenticated() bool  { return f.authenticated }
func (f *fakeAuth) Wallets() []port.Wallet { return f.wallets }

type harness struct {
	kv       *memoryKV
	gateway  *PersistenceGateway
	registry *NetworkRegistry
	state    *SessionState
	conn     *fakeConnection
	info     *fakeInfo
	chains   map[entity.ChainRole]*fakeChain
	explorer *fakeExplorer
	evm      *fakeEVM
	assets   *fakeAssets
	staking  *fakeStaking
	history  *fakeHistory
	router   *fakeRouter
	auth     *fakeAuth
	coord    *SessionCoordinator
}

func newHarness() *harness {
	h := &harness{
		kv:       newMemoryKV(),
		state:    NewSessionState(),
		conn:     &fakeConnection{},
		info:     newFakeInfo(),
		chains:   make(map[entity.ChainRole]*fakeChain),
		explorer: &fakeExplorer{},
		evm:      &fakeEVM{},
		assets:   &fakeAssets{},
		staking:  &fakeStaking{},
		history:  &fakeHistory{},
		router:   &fakeRouter{},
		auth:     &fakeAuth{},
	}
	h.gateway = NewPersistenceGateway(h.kv)
	h.registry = NewNetworkRegistry(h.gateway, port.NopLogger{})

	chains := make([]port.ChainClient, 0, len(entity.ChainRoles))
	for _, role := range entity.ChainRoles {
		c := &fakeChain{role: role}
		h.chains[role] = c
		chains = append(chains, c)
	}

	h.coord = NewSessionCoordinator(CoordinatorDeps{
		Connection: h.conn,
		Info:       h.info,
		Chains:     chains,
		Explorer:   h.explorer,
		EVM:        h.evm,
		Assets:     h.assets,
		Staking:    h.staking,
		History:    h.history,
		Router:     h.router,
		Auth:       h.auth,
		Store:      h.gateway,
		Logger:     port.NopLogger{},
	}, h.state, CoordinatorOptions{SettleDelay: 0})
	return h
}

func localNetwork() entity.Network {
	return entity.Network{
		Name:      "Local",
		Host:      "127.0.0.1",
		Port:      9650,
		Protocol:  "http",
		NetworkID: 12345,
	}
}
