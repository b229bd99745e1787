package restapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultStreamInterval = 500 * time.Millisecond
	streamWriteWait       = 5 * time.Second
)

// Origins are checked by the CORS middleware before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// SetStreamInterval changes how often StreamSession polls the session.
func (h *Handler) SetStreamInterval(d time.Duration) {
	if d > 0 {
		h.streamInterval = d
	}
}

// StreamSession upgrades to a websocket and pushes the session snapshot on
// connect and after every change.
func (h *Handler) StreamSession(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := h.streamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *SessionResponse
	for {
		resp := h.sessionResponse()
		if last == nil || !sameSession(*last, resp) {
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(resp); err != nil {
				h.logger.Debug("Session stream write failed", zap.Error(err))
				return
			}
			last = &resp
		}

		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

func sameSession(a, b SessionResponse) bool {
	if a.Status != b.Status || a.Epoch != b.Epoch || a.TxFee != b.TxFee || a.Switching != b.Switching || a.View != b.View {
		return false
	}
	if a.SelectedNetwork == nil || b.SelectedNetwork == nil {
		return a.SelectedNetwork == b.SelectedNetwork
	}
	return a.SelectedNetwork.Equal(*b.SelectedNetwork)
}
