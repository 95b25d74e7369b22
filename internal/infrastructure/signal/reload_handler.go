package signal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ReloadFunc re-reads configuration and applies it to the running shell.
type ReloadFunc func(ctx context.Context) error

// ReloadHandler runs a ReloadFunc on every SIGHUP. The shell uses it to pick
// up prompt changes from the config file without restarting, so history
// survives a reload.
type ReloadHandler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	onReload ReloadFunc
	logger   *slog.Logger
	reloads  int
	lastErr  error
	running  bool
	mu       sync.Mutex
	sigCh    chan os.Signal
	stopCh   chan struct{}
}

// NewReloadHandler creates a new ReloadHandler with the specified callback.
// A nil callback is allowed and makes reloads no-ops. A nil logger discards.
func NewReloadHandler(onReload ReloadFunc, logger *slog.Logger) *ReloadHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReloadHandler{
		ctx:      ctx,
		cancel:   cancel,
		onReload: onReload,
		logger:   logger,
	}
}

// Start begins listening for SIGHUP signals.
// Multiple calls to Start are safe and idempotent.
func (h *ReloadHandler) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}

	h.running = true

	// Create new context if previous one was cancelled
	if h.ctx.Err() != nil {
		h.ctx, h.cancel = context.WithCancel(context.Background())
	}

	h.sigCh = make(chan os.Signal, 1)
	h.stopCh = make(chan struct{})

	signal.Notify(h.sigCh, syscall.SIGHUP)

	// Capture channel references to avoid race with Stop() setting them to nil
	sigCh := h.sigCh
	stopCh := h.stopCh

	go func() {
		for {
			select {
			case <-stopCh:
				return
			case _, ok := <-sigCh:
				if !ok {
					return
				}
				h.handleReload()
			}
		}
	}()
}

// handleReload invokes the callback and records its outcome. Reload
// failures are logged; the shell keeps its current settings.
func (h *ReloadHandler) handleReload() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.onReload == nil {
		return
	}

	h.reloads++
	h.lastErr = h.onReload(h.ctx)
	if h.lastErr != nil {
		h.logger.Warn("config reload failed", "error", h.lastErr)
		return
	}
	h.logger.Info("config reloaded", "reloads", h.reloads)
}

// Stop stops listening for signals and cancels Context.
// It is safe to call Stop multiple times.
func (h *ReloadHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}

	h.running = false
	h.stopGoroutine()
	h.stopSignalChannel()
	h.cancel()
}

// stopSignalChannel unregisters and closes the OS signal channel.
// Caller must hold h.mu.
func (h *ReloadHandler) stopSignalChannel() {
	if h.sigCh != nil {
		signal.Stop(h.sigCh)
		close(h.sigCh)
		h.sigCh = nil
	}
}

// stopGoroutine signals the listener goroutine to exit.
// Caller must hold h.mu.
func (h *ReloadHandler) stopGoroutine() {
	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}
}

// Context returns a context that will be cancelled when Stop is called.
func (h *ReloadHandler) Context() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctx
}

// Reloads returns how many times the callback has run.
func (h *ReloadHandler) Reloads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reloads
}

// LastError returns the error from the most recent reload, if any.
func (h *ReloadHandler) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// SimulateReload simulates receiving a SIGHUP signal.
// This method is intended for testing purposes only.
func (h *ReloadHandler) SimulateReload() {
	h.handleReload()
}
