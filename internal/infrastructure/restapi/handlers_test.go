package restapi

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/app/service"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/infrastructure/explorer"
	"wallet_network/internal/infrastructure/platform"
	"wallet_network/internal/infrastructure/wallet"
	"wallet_network/internal/pkg/apperrors"
	"wallet_network/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fakeReader struct {
	mu   sync.Mutex
	snap entity.SessionSnapshot
}

func (r *fakeReader) Snapshot() entity.SessionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

func (r *fakeReader) Status() entity.SessionStatus { return r.Snapshot().Status }

func (r *fakeReader) SelectedNetwork() (entity.Network, bool) {
	snap := r.Snapshot()
	if snap.SelectedNetwork == nil {
		return entity.Network{}, false
	}
	return *snap.SelectedNetwork, true
}

func (r *fakeReader) update(fn func(*entity.SessionSnapshot)) {
	r.mu.Lock()
	fn(&r.snap)
	r.mu.Unlock()
}

type fakeSession struct {
	reader    *fakeReader
	switching bool
	result    bool
	feeErr    error
	switched  []entity.Network
}

func (s *fakeSession) State() port.SessionReader { return s.reader }
func (s *fakeSession) Switching() bool           { return s.switching }

func (s *fakeSession) SwitchNetwork(ctx context.Context, n entity.Network) bool {
	return s.Switch(ctx, n) == nil
}

func (s *fakeSession) Switch(_ context.Context, n entity.Network) error {
	if s.switching {
		return apperrors.ErrSwitchInProgress
	}
	s.switched = append(s.switched, n)
	if !s.result {
		return errors.New("chain id lookup failed")
	}
	s.reader.update(func(snap *entity.SessionSnapshot) {
		snap.Status = entity.StatusConnected
		snap.SelectedNetwork = &n
		snap.Epoch++
	})
	return nil
}

func (s *fakeSession) UpdateTxFee(context.Context) error {
	if s.feeErr != nil {
		return s.feeErr
	}
	s.reader.update(func(snap *entity.SessionSnapshot) { snap.TxFee = big.NewInt(1000000) })
	return nil
}

type fakeBalances struct{}

func (fakeBalances) NativeAsset() (entity.AssetDescription, bool) {
	return entity.AssetDescription{ID: "avax-id", Symbol: "AVAX", Denomination: 9}, true
}

func (fakeBalances) Balances() []entity.Balance {
	return []entity.Balance{{Address: "X-fuji1a", Symbol: "AVAX", FormattedBalance: "1"}}
}

func (fakeBalances) RefreshBalances(context.Context) error { return nil }

type fakeStaking struct{}

func (fakeStaking) MinimumStake() (entity.MinimumStake, bool) {
	return entity.MinimumStake{Validator: big.NewInt(2000), Delegator: big.NewInt(25)}, true
}

func (fakeStaking) State() (platform.State, bool) { return platform.State{}, false }

type fakeHistory struct{}

func (fakeHistory) Sync(_ context.Context, address string) ([]explorer.Transaction, error) {
	if address == "bad" || address == "X-cached" {
		return nil, apperrors.ErrTimeout
	}
	return nil, nil
}

func (fakeHistory) Transactions(address string) ([]explorer.Transaction, bool) {
	if address == "X-cached" {
		return []explorer.Transaction{{ID: "tx-1"}}, true
	}
	return nil, false
}

type testAPI struct {
	handler  *Handler
	engine   *gin.Engine
	registry *service.NetworkRegistry
	session  *fakeSession
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := service.NewNetworkRegistry(nil, port.NopLogger{})
	for _, n := range entity.BuiltinNetworks() {
		registry.AddBuiltin(n)
	}
	session := &fakeSession{reader: &fakeReader{snap: entity.SessionSnapshot{Status: entity.StatusDisconnected}}, result: true}

	reg := prometheus.NewRegistry()
	_, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	h := NewHandler(registry, session, fakeBalances{}, fakeStaking{}, fakeHistory{}, zap.NewNop())
	wh := NewWalletHandler(wallet.NewSession(zap.NewNop()), session, zap.NewNop())
	engine := SetupRouter(h, wh, RouterOptions{MetricsPath: "/metrics", Gatherer: reg}, zap.NewNop())
	return &testAPI{handler: h, engine: engine, registry: registry, session: session}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

const localBody = `{"name":"Local","url":"http://127.0.0.1:9650","networkId":12345}`

func TestListNetworks(t *testing.T) {
	api := newTestAPI(t)
	api.registry.AddCustom(entity.Network{Name: "Local", Host: "127.0.0.1", Port: 9650, Protocol: "http", NetworkID: 12345})

	rec := api.do(http.MethodGet, "/api/v1/networks", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp NetworksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Builtin, 2)
	require.Len(t, resp.Custom, 1)
	require.Equal(t, "Local", resp.Custom[0].Name)
	require.Nil(t, resp.Selected)
}

func TestAddAndRemoveCustomNetwork(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/networks/custom", localBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, api.registry.Custom(), 1)
	require.Equal(t, 9650, api.registry.Custom()[0].Port)

	rec = api.do(http.MethodDelete, "/api/v1/networks/custom", localBody)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, api.registry.Custom())

	rec = api.do(http.MethodDelete, "/api/v1/networks/custom", localBody)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, api.registry.Custom())
}

func TestAddCustomNetworkRejectsBadURL(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/networks/custom", `{"name":"Bad","url":"ftp://host"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodPost, "/api/v1/networks/custom", `{"url":"http://host:9650"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, api.registry.Custom())
}

func TestSelectNetwork(t *testing.T) {
	api := newTestAPI(t)
	fuji := entity.BuiltinNetworks()[1]
	body, err := json.Marshal(fuji)
	require.NoError(t, err)

	rec := api.do(http.MethodPost, "/api/v1/session/select", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, entity.StatusConnected, resp.Status)
	require.Equal(t, "Fuji", resp.SelectedNetwork.Name)
	require.Len(t, api.session.switched, 1)
}

func TestSelectNetworkErrors(t *testing.T) {
	api := newTestAPI(t)

	unknown, err := json.Marshal(entity.Network{Name: "Nope", Host: "nope", Port: 1, Protocol: "http"})
	require.NoError(t, err)
	rec := api.do(http.MethodPost, "/api/v1/session/select", string(unknown))
	require.Equal(t, http.StatusNotFound, rec.Code)

	mainnet, err := json.Marshal(entity.BuiltinNetworks()[0])
	require.NoError(t, err)

	api.session.switching = true
	rec = api.do(http.MethodPost, "/api/v1/session/select", string(mainnet))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), apperrors.ErrSwitchInProgress.Error())
	require.Empty(t, api.session.switched)

	api.session.switching = false
	api.session.result = false
	rec = api.do(http.MethodPost, "/api/v1/session/select", string(mainnet))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Len(t, api.session.switched, 1)
}

type staticChain struct {
	role entity.ChainRole
	id   string
	fee  int64
}

func (c staticChain) Role() entity.ChainRole { return c.role }
func (c staticChain) ChainID() string        { return c.id }
func (c staticChain) Alias() string          { return string(c.role) }
func (c staticChain) BaseFee() *big.Int      { return big.NewInt(c.fee) }

func TestListChains(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/chains", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"chains":[]}`, rec.Body.String())

	api.handler.SetChains(
		staticChain{role: entity.ChainX, id: "x-id", fee: 1000000},
		staticChain{role: entity.ChainP, id: "p-id"},
	)
	rec = api.do(http.MethodGet, "/api/v1/chains", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Chains []ChainResponse `json:"chains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []ChainResponse{
		{Role: entity.ChainX, ChainID: "x-id", Alias: "X", BaseFee: "1000000"},
		{Role: entity.ChainP, ChainID: "p-id", Alias: "P", BaseFee: "0"},
	}, resp.Chains)
}

type staticView string

func (v staticView) Current() string { return string(v) }

func TestSessionResponseCarriesView(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/session", "")
	require.NotContains(t, rec.Body.String(), `"view"`)

	api.handler.SetViewReader(staticView("/wallet"))
	rec = api.do(http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "/wallet", resp.View)
}

func TestRefreshTxFee(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/session/txfee", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1000000", resp.TxFee)

	api.session.feeErr = apperrors.ErrStaleEpoch
	rec = api.do(http.MethodPost, "/api/v1/session/txfee", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestReadEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/balances", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"nativeAsset"`)

	rec = api.do(http.MethodGet, "/api/v1/staking", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var staking StakingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &staking))
	require.Equal(t, "2000", staking.MinValidatorStake)

	rec = api.do(http.MethodGet, "/api/v1/history/X-fuji1a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"transactions":[]`)

	rec = api.do(http.MethodGet, "/api/v1/history/bad", "")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/history/X-cached", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tx-1"`)
	rec = api.do(http.MethodGet, "/api/v1/history/X-cached?refresh=true", "")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	rec = api.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "wallet_network_")
}

func TestWalletLoginFollowsSelectedNetwork(t *testing.T) {
	api := newTestAPI(t)
	fuji := entity.BuiltinNetworks()[1]
	api.session.reader.update(func(snap *entity.SessionSnapshot) { snap.SelectedNetwork = &fuji })

	rec := api.do(http.MethodPost, "/api/v1/wallet/login",
		`{"accounts":[{"name":"main","shortId":"0x3cb7d3842e8cee6a0ebd09f1fe884f6861e1b29c","evmAddress":"0x8db97c7cece249c2b98bdc0226cc4c2a57bf52fc"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Authenticated)
	require.Len(t, resp.Accounts, 1)
	require.Contains(t, resp.Accounts[0].XAddress, "X-fuji1")
	require.Equal(t, "fuji", resp.Accounts[0].HRP)

	rec = api.do(http.MethodPost, "/api/v1/wallet/login", `{"accounts":[{"shortId":"0x12","evmAddress":"0x8db97c7cece249c2b98bdc0226cc4c2a57bf52fc"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/wallet/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Authenticated)
}

func TestRequestIDHeader(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-1")
	rec = httptest.NewRecorder()
	api.engine.ServeHTTP(rec, req)
	require.Equal(t, "trace-1", rec.Header().Get(RequestIDHeader))
}

func TestSessionStreamPushesChanges(t *testing.T) {
	api := newTestAPI(t)
	api.handler.SetStreamInterval(10 * time.Millisecond)
	srv := httptest.NewServer(api.engine)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first SessionResponse
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, entity.StatusDisconnected, first.Status)

	fuji := entity.BuiltinNetworks()[1]
	require.True(t, api.session.SwitchNetwork(context.Background(), fuji))

	var next SessionResponse
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, entity.StatusConnected, next.Status)
	require.Equal(t, "Fuji", next.SelectedNetwork.Name)
	require.Equal(t, uint64(1), next.Epoch)
}
