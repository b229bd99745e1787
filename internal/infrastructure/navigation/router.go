package navigation

import (
	"sync"

	"go.uber.org/zap"

	"wallet_network/internal/app/port"
)

// Compile-time check
var _ port.Router = (*Router)(nil)

// Router tracks the view the wallet UI should display.
type Router struct {
	logger *zap.Logger

	mu      sync.RWMutex
	current string
}

func NewRouter(initial string, logger *zap.Logger) *Router {
	if initial == "" {
		initial = "/"
	}
	return &Router{current: initial, logger: logger.Named("Router")}
}

// NavigateTo moves to path. Navigating to the current path is a no-op.
func (r *Router) NavigateTo(path string) {
	r.mu.Lock()
	if path == r.current {
		r.mu.Unlock()
		return
	}
	from := r.current
	r.current = path
	r.mu.Unlock()

	r.logger.Info("Navigated", zap.String("from", from), zap.String("to", path))
}

// Current returns the view the UI is on.
func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
