package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet_network/internal/infrastructure/wallet"
)

// LoginRequest opens a wallet session with the listed accounts.
type LoginRequest struct {
	Accounts []AccountRequest `json:"accounts" binding:"required,min=1,dive"`
}

type AccountRequest struct {
	Name       string `json:"name"`
	ShortID    string `json:"shortId" binding:"required"`
	EVMAddress string `json:"evmAddress" binding:"required"`
}

// AccountResponse shows an open account with addresses for the active network.
type AccountResponse struct {
	Name       string `json:"name"`
	XAddress   string `json:"xAddress"`
	HRP        string `json:"hrp"`
	EVMAddress string `json:"evmAddress"`
}

// WalletResponse describes the wallet session.
type WalletResponse struct {
	Authenticated bool              `json:"authenticated"`
	Accounts      []AccountResponse `json:"accounts"`
}

// WalletHandler serves the wallet session endpoints.
type WalletHandler struct {
	session *wallet.Session
	reader  SessionAPI
	logger  *zap.Logger
}

func NewWalletHandler(session *wallet.Session, reader SessionAPI, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{session: session, reader: reader, logger: logger.Named("WalletAPI")}
}

// Register mounts the wallet routes on group.
func (h *WalletHandler) Register(group *gin.RouterGroup) {
	group.GET("/wallet", h.GetWallet)
	group.POST("/wallet/login", h.Login)
	group.POST("/wallet/logout", h.Logout)
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	c.JSON(http.StatusOK, h.walletResponse())
}

func (h *WalletHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	accounts := make([]*wallet.Account, 0, len(req.Accounts))
	for _, a := range req.Accounts {
		acc, err := wallet.NewAccount(a.Name, a.ShortID, a.EVMAddress, h.reader.State(), h.logger)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		accounts = append(accounts, acc)
	}
	h.session.Login(accounts...)
	c.JSON(http.StatusOK, h.walletResponse())
}

func (h *WalletHandler) Logout(c *gin.Context) {
	h.session.Logout()
	c.JSON(http.StatusOK, h.walletResponse())
}

func (h *WalletHandler) walletResponse() WalletResponse {
	resp := WalletResponse{Authenticated: h.session.IsAuthenticated(), Accounts: []AccountResponse{}}
	for _, a := range h.session.Accounts() {
		resp.Accounts = append(resp.Accounts, AccountResponse{
			Name:       a.Name(),
			XAddress:   a.XAddress(),
			HRP:        a.HRP(),
			EVMAddress: a.EVMAddress(),
		})
	}
	return resp
}
