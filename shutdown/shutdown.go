// Package shutdown turns SIGINT and SIGTERM into context cancellation, running
// registered hooks while the context is still alive.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler owns the signal subscription and the hooks to run on shutdown.
type Handler struct {
	mut     sync.Mutex
	hooks   []func()
	channel chan os.Signal
	cancel  context.CancelFunc
	once    sync.Once
	done    chan struct{}
}

// SetupHandler subscribes to SIGINT and SIGTERM and returns a context that is
// canceled once a signal arrives or Shutdown is called.
func SetupHandler(parent context.Context) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		channel: make(chan os.Signal, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	signal.Notify(h.channel, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-h.channel:
			slog.Warn("Received " + sig.String() + ", shutting down...")
			h.Shutdown()
		case <-h.done:
		}
	}()

	return h, ctx
}

// BeforeShutdown registers a function to run before the context is canceled.
// Hooks run in registration order.
func (h *Handler) BeforeShutdown(hook func()) {
	h.mut.Lock()
	defer h.mut.Unlock()

	h.hooks = append(h.hooks, hook)
}

// Shutdown runs the hooks and cancels the context. Only the first call has
// any effect.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.mut.Lock()
		hooks := h.hooks
		h.hooks = nil
		h.mut.Unlock()

		for _, hook := range hooks {
			hook()
		}

		h.cancel()
	})
}

// Stop unsubscribes from signals and cancels the context without running hooks.
func (h *Handler) Stop() {
	signal.Stop(h.channel)

	h.mut.Lock()
	defer h.mut.Unlock()

	select {
	case <-h.done:
	default:
		close(h.done)
	}

	h.cancel()
}
