// Package shutdown translates SIGINT/SIGTERM into context cancellation
// and runs registered cleanup functions exactly once.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler manages graceful shutdown.
type Handler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	once       sync.Once
	cleanupFns []func()
}

// New creates a new shutdown handler.
func New() *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{ctx: ctx, cancel: cancel}
}

// Context returns the context that is cancelled on shutdown.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers a function to run during shutdown.
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFns = append(h.cleanupFns, fn)
}

// Listen starts watching for shutdown signals.
func (h *Handler) Listen() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		h.Shutdown()
	}()
}

// Shutdown cancels the context and runs cleanup functions. Safe to call
// more than once; cleanup runs only the first time.
func (h *Handler) Shutdown() {
	h.cancel()

	h.once.Do(func() {
		h.mu.Lock()
		fns := h.cleanupFns
		h.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}
