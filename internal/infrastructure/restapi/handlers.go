package restapi

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
	"wallet_network/internal/infrastructure/explorer"
	"wallet_network/internal/infrastructure/platform"
	"wallet_network/internal/pkg/apperrors"
)

// SessionAPI is the coordinator as seen by the HTTP layer.
type SessionAPI interface {
	port.SessionController
	State() port.SessionReader
	Switching() bool
}

// BalanceReader exposes the asset subsystem.
type BalanceReader interface {
	NativeAsset() (entity.AssetDescription, bool)
	Balances() []entity.Balance
	RefreshBalances(ctx context.Context) error
}

// StakingReader exposes the platform subsystem.
type StakingReader interface {
	MinimumStake() (entity.MinimumStake, bool)
	State() (platform.State, bool)
}

// ChainInfo is the per-chain state installed by the last switch.
type ChainInfo interface {
	Role() entity.ChainRole
	ChainID() string
	Alias() string
	BaseFee() *big.Int
}

// ViewReader reports the view the wallet UI is on.
type ViewReader interface {
	Current() string
}

// HistorySyncer fetches transaction history for an address.
type HistorySyncer interface {
	Sync(ctx context.Context, address string) ([]explorer.Transaction, error)
	Transactions(address string) ([]explorer.Transaction, bool)
}

// Handler serves the network and session endpoints.
type Handler struct {
	catalog port.NetworkCatalog
	session SessionAPI
	assets  BalanceReader
	staking StakingReader
	history HistorySyncer
	views   ViewReader
	chains  []ChainInfo
	logger  *zap.Logger

	streamInterval time.Duration
}

// NewHandler creates a handler. assets, staking and history may be nil.
func NewHandler(catalog port.NetworkCatalog, session SessionAPI, assets BalanceReader, staking StakingReader, history HistorySyncer, logger *zap.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		session: session,
		assets:  assets,
		staking: staking,
		history: history,
		logger:  logger.Named("RestAPI"),

		streamInterval: defaultStreamInterval,
	}
}

// SetViewReader makes session responses carry the current UI view.
func (h *Handler) SetViewReader(v ViewReader) {
	h.views = v
}

// SetChains registers the chain clients listed by GET /chains.
func (h *Handler) SetChains(chains ...ChainInfo) {
	h.chains = chains
}

type errorResponse struct {
	Error string `json:"error"`
}

// NetworksResponse lists every known network.
type NetworksResponse struct {
	Builtin  []entity.Network `json:"builtin"`
	Custom   []entity.Network `json:"custom"`
	Selected *entity.Network  `json:"selected,omitempty"`
}

// CustomNetworkRequest describes a user-defined network by its endpoint URL.
type CustomNetworkRequest struct {
	Name            string `json:"name" binding:"required"`
	URL             string `json:"url" binding:"required"`
	NetworkID       uint32 `json:"networkId"`
	ExplorerAPIURL  string `json:"explorerUrl"`
	ExplorerSiteURL string `json:"explorerSiteUrl"`
}

// SessionResponse is the session snapshot with the fee rendered as a decimal string.
type SessionResponse struct {
	Status          entity.SessionStatus `json:"status"`
	SelectedNetwork *entity.Network      `json:"selectedNetwork,omitempty"`
	TxFee           string               `json:"txFee"`
	Epoch           uint64               `json:"epoch"`
	Switching       bool                 `json:"switching"`
	View            string               `json:"view,omitempty"`
}

// ChainResponse describes one chain of the active network.
type ChainResponse struct {
	Role    entity.ChainRole `json:"role"`
	ChainID string           `json:"chainId"`
	Alias   string           `json:"alias"`
	BaseFee string           `json:"baseFee"`
}

// StakingResponse carries the cached platform values.
type StakingResponse struct {
	MinValidatorStake string `json:"minValidatorStake,omitempty"`
	MinDelegatorStake string `json:"minDelegatorStake,omitempty"`
	CurrentSupply     string `json:"currentSupply,omitempty"`
	Height            uint64 `json:"height,omitempty"`
}

// ListNetworks returns built-in networks first, then custom ones.
func (h *Handler) ListNetworks(c *gin.Context) {
	resp := NetworksResponse{Builtin: []entity.Network{}, Custom: []entity.Network{}}
	for _, n := range h.catalog.AllNetworks() {
		if n.Readonly {
			resp.Builtin = append(resp.Builtin, n)
		} else {
			resp.Custom = append(resp.Custom, n)
		}
	}
	if n, ok := h.session.State().SelectedNetwork(); ok {
		resp.Selected = &n
	}
	c.JSON(http.StatusOK, resp)
}

// AddCustomNetwork registers a user-defined network.
func (h *Handler) AddCustomNetwork(c *gin.Context) {
	n, ok := h.bindCustom(c)
	if !ok {
		return
	}
	h.catalog.AddCustom(n)
	c.JSON(http.StatusCreated, n)
}

// RemoveCustomNetwork removes the first custom network equal to the one described.
// Removing a network that is not registered succeeds without changes.
func (h *Handler) RemoveCustomNetwork(c *gin.Context) {
	n, ok := h.bindCustom(c)
	if !ok {
		return
	}
	h.catalog.RemoveCustom(n)
	c.Status(http.StatusNoContent)
}

func (h *Handler) bindCustom(c *gin.Context) (entity.Network, bool) {
	var req CustomNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return entity.Network{}, false
	}
	n, err := entity.NewNetworkFromURL(req.Name, req.URL, req.NetworkID, req.ExplorerAPIURL, req.ExplorerSiteURL, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return entity.Network{}, false
	}
	return n, true
}

// GetSession returns the current session snapshot.
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionResponse())
}

// SelectNetwork switches to a known network. The body is a full network descriptor.
func (h *Handler) SelectNetwork(c *gin.Context) {
	var req entity.Network
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	target, found := h.catalog.Find(req)
	if !found {
		c.JSON(http.StatusNotFound, errorResponse{Error: apperrors.ErrNotFound.Error()})
		return
	}

	err := h.session.Switch(c.Request.Context(), target)
	switch {
	case errors.Is(err, apperrors.ErrSwitchInProgress):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case err != nil:
		h.logger.Warn("Network switch failed", zap.String("network", target.Name), zap.Error(err))
		c.JSON(http.StatusBadGateway, h.sessionResponse())
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// ListChains returns the chain ids and fees installed for the active network.
func (h *Handler) ListChains(c *gin.Context) {
	resp := make([]ChainResponse, 0, len(h.chains))
	for _, chain := range h.chains {
		resp = append(resp, ChainResponse{
			Role:    chain.Role(),
			ChainID: chain.ChainID(),
			Alias:   chain.Alias(),
			BaseFee: chain.BaseFee().String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"chains": resp})
}

// RefreshTxFee re-reads the base fee from the active node.
func (h *Handler) RefreshTxFee(c *gin.Context) {
	if err := h.session.UpdateTxFee(c.Request.Context()); err != nil {
		h.logger.Warn("Tx fee refresh failed", zap.Error(err))
		c.JSON(statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

// GetBalances returns cached balances. refresh=true reloads them first.
func (h *Handler) GetBalances(c *gin.Context) {
	if h.assets == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: apperrors.ErrNotFound.Error()})
		return
	}
	if c.Query("refresh") == "true" {
		if err := h.assets.RefreshBalances(c.Request.Context()); err != nil {
			h.logger.Warn("Balance refresh failed", zap.Error(err))
		}
	}
	resp := gin.H{"balances": h.assets.Balances()}
	if native, ok := h.assets.NativeAsset(); ok {
		resp["nativeAsset"] = native
	}
	c.JSON(http.StatusOK, resp)
}

// GetStaking returns the cached staking values.
func (h *Handler) GetStaking(c *gin.Context) {
	if h.staking == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: apperrors.ErrNotFound.Error()})
		return
	}
	var resp StakingResponse
	if ms, ok := h.staking.MinimumStake(); ok {
		resp.MinValidatorStake = ms.Validator.String()
		resp.MinDelegatorStake = ms.Delegator.String()
	}
	if st, ok := h.staking.State(); ok {
		if st.CurrentSupply != nil {
			resp.CurrentSupply = st.CurrentSupply.String()
		}
		resp.Height = st.Height
	}
	c.JSON(http.StatusOK, resp)
}

// GetHistory returns the transaction history of an address. It is synced from
// the explorer when nothing is cached for the active network or refresh=true.
func (h *Handler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: apperrors.ErrNotFound.Error()})
		return
	}
	address := c.Param("address")
	if c.Query("refresh") != "true" {
		if txs, ok := h.history.Transactions(address); ok {
			c.JSON(http.StatusOK, gin.H{"address": address, "transactions": txs})
			return
		}
	}
	txs, err := h.history.Sync(c.Request.Context(), address)
	if err != nil {
		h.logger.Warn("History sync failed", zap.String("address", address), zap.Error(err))
		c.JSON(statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	if txs == nil {
		txs = []explorer.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "transactions": txs})
}

func (h *Handler) sessionResponse() SessionResponse {
	snap := h.session.State().Snapshot()
	resp := SessionResponse{
		Status:          snap.Status,
		SelectedNetwork: snap.SelectedNetwork,
		TxFee:           "0",
		Epoch:           snap.Epoch,
		Switching:       h.session.Switching(),
	}
	if snap.TxFee != nil {
		resp.TxFee = snap.TxFee.String()
	}
	if h.views != nil {
		resp.View = h.views.Current()
	}
	return resp
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrStaleEpoch), errors.Is(err, apperrors.ErrSwitchInProgress):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
