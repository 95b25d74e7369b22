// Package signal provides signal handling for the shell process.
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler keeps SIGINT from killing the shell and turns SIGTERM
// into cancellation.
//
// Ctrl+C typed while a foreground command runs reaches the whole process
// group; the child dies and the shell, which has SIGINT routed here, keeps
// going. Ctrl+C at the prompt never becomes a signal because the terminal is
// in raw mode. SIGTERM cancels Context so the read loop can return.
type InterruptHandler struct {
	ctx         context.Context
	cancel      context.CancelFunc
	interruptCh chan struct{}
	foreground  int
	absorbed    int
	running     bool
	mu          sync.Mutex
	sigCh       chan os.Signal
	stopCh      chan struct{}
}

// NewInterruptHandler creates a new InterruptHandler whose Context derives from parent.
func NewInterruptHandler(parent context.Context) *InterruptHandler {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &InterruptHandler{
		ctx:         ctx,
		cancel:      cancel,
		interruptCh: make(chan struct{}, 1),
	}
}

// Start begins listening for SIGINT and SIGTERM.
// Multiple calls to Start are safe and idempotent.
func (h *InterruptHandler) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}

	h.running = true
	h.sigCh = make(chan os.Signal, 1)
	h.stopCh = make(chan struct{})

	signal.Notify(h.sigCh, os.Interrupt, syscall.SIGTERM)

	sigCh := h.sigCh
	stopCh := h.stopCh

	go func() {
		for {
			select {
			case <-stopCh:
				return
			case sig, ok := <-sigCh:
				if !ok {
					return
				}
				if sig == syscall.SIGTERM {
					h.handleTerminate()
				} else {
					h.handleInterrupt()
				}
			}
		}
	}()
}

// handleInterrupt absorbs a SIGINT. It is counted when a foreground command
// was running and always reported on Interrupts.
func (h *InterruptHandler) handleInterrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.foreground > 0 {
		h.absorbed++
	}

	select {
	case h.interruptCh <- struct{}{}:
	default:
		// Previous interrupt not consumed yet
	}
}

func (h *InterruptHandler) handleTerminate() {
	h.cancel()
}

// BeginForeground marks a child as owning the terminal until the returned
// func is called. Calls nest.
func (h *InterruptHandler) BeginForeground() func() {
	h.mu.Lock()
	h.foreground++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.foreground--
			h.mu.Unlock()
		})
	}
}

// InForeground reports whether a foreground command is running.
func (h *InterruptHandler) InForeground() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.foreground > 0
}

// Absorbed returns how many SIGINTs arrived while a command was running.
func (h *InterruptHandler) Absorbed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.absorbed
}

// Stop stops listening for signals and cleans up resources.
// It is safe to call Stop multiple times.
func (h *InterruptHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}

	h.running = false
	h.stopGoroutine()
	h.stopSignalChannel()
}

// stopSignalChannel unregisters and closes the OS signal channel.
// Caller must hold h.mu.
func (h *InterruptHandler) stopSignalChannel() {
	if h.sigCh != nil {
		signal.Stop(h.sigCh)
		close(h.sigCh)
		h.sigCh = nil
	}
}

// stopGoroutine signals the listener goroutine to exit.
// Caller must hold h.mu.
func (h *InterruptHandler) stopGoroutine() {
	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}
}

// Context returns a context that is cancelled on SIGTERM or when the parent is done.
func (h *InterruptHandler) Context() context.Context {
	return h.ctx
}

// Interrupts returns a channel that receives a value for each absorbed SIGINT.
func (h *InterruptHandler) Interrupts() <-chan struct{} {
	return h.interruptCh
}

// SimulateInterrupt simulates receiving a SIGINT signal.
// This method is intended for testing purposes only.
func (h *InterruptHandler) SimulateInterrupt() {
	h.handleInterrupt()
}

// SimulateTerminate simulates receiving a SIGTERM signal.
// This method is intended for testing purposes only.
func (h *InterruptHandler) SimulateTerminate() {
	h.handleTerminate()
}
