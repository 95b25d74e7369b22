package signal

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"
)

func isContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func waitForInterrupt(t *testing.T, h *InterruptHandler) {
	t.Helper()
	select {
	case <-h.Interrupts():
	case <-time.After(time.Second):
		t.Fatal("interrupt was not reported")
	}
}

// =============================================================================
// InterruptHandler: construction and lifecycle
// =============================================================================

func TestInterruptHandler_New(t *testing.T) {
	t.Run("should create a handler with a live context", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())

		if h == nil {
			t.Fatal("NewInterruptHandler() returned nil")
		}
		if isContextCancelled(h.Context()) {
			t.Error("new handler context should not be cancelled")
		}
		if h.InForeground() {
			t.Error("new handler should not be in the foreground")
		}
	})

	t.Run("should accept a nil parent", func(t *testing.T) {
		//nolint:staticcheck // nil parent is handled
		h := NewInterruptHandler(nil)

		if h.Context() == nil {
			t.Fatal("Context() returned nil")
		}
	})

	t.Run("should follow parent cancellation", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		h := NewInterruptHandler(parent)

		cancel()

		if !isContextCancelled(h.Context()) {
			t.Error("handler context should be cancelled with its parent")
		}
	})
}

func TestInterruptHandler_StartAndStop(t *testing.T) {
	t.Run("start and stop are idempotent", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())

		h.Start()
		h.Start()
		h.Stop()
		h.Stop()
	})

	t.Run("stop before start is safe", func(t *testing.T) {
		NewInterruptHandler(context.Background()).Stop()
	})

	t.Run("handler can be restarted", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())
		h.Start()
		h.Stop()
		h.Start()
		defer h.Stop()

		if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			t.Fatalf("failed to send SIGINT: %v", err)
		}
		waitForInterrupt(t, h)
	})
}

// =============================================================================
// InterruptHandler: SIGINT absorption
// =============================================================================

func TestInterruptHandler_Interrupt(t *testing.T) {
	t.Run("simulated interrupt is reported and never cancels", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())

		h.SimulateInterrupt()

		waitForInterrupt(t, h)
		if isContextCancelled(h.Context()) {
			t.Error("SIGINT must not cancel the shell")
		}
	})

	t.Run("real SIGINT is absorbed", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())
		h.Start()
		defer h.Stop()

		if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			t.Fatalf("failed to send SIGINT: %v", err)
		}

		waitForInterrupt(t, h)
		if isContextCancelled(h.Context()) {
			t.Error("SIGINT must not cancel the shell")
		}
	})

	t.Run("interrupts are counted only in the foreground", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())

		h.SimulateInterrupt()
		end := h.BeginForeground()
		h.SimulateInterrupt()
		h.SimulateInterrupt()
		end()
		h.SimulateInterrupt()

		if got := h.Absorbed(); got != 2 {
			t.Errorf("Absorbed() = %d, want 2", got)
		}
	})

	t.Run("pending interrupt does not block", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())

		done := make(chan struct{})
		go func() {
			for i := 0; i < 5; i++ {
				h.SimulateInterrupt()
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("SimulateInterrupt blocked on an unconsumed channel")
		}
	})
}

// =============================================================================
// InterruptHandler: foreground tracking
// =============================================================================

func TestInterruptHandler_Foreground(t *testing.T) {
	t.Run("begin and end bracket the foreground", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())

		end := h.BeginForeground()
		if !h.InForeground() {
			t.Fatal("expected foreground after BeginForeground")
		}
		end()
		if h.InForeground() {
			t.Error("expected no foreground after end")
		}
	})

	t.Run("end is idempotent", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())
		outer := h.BeginForeground()
		inner := h.BeginForeground()

		inner()
		inner()

		if !h.InForeground() {
			t.Error("outer foreground should still be active")
		}
		outer()
		if h.InForeground() {
			t.Error("expected no foreground after both ended")
		}
	})

	t.Run("concurrent begin and end", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				end := h.BeginForeground()
				h.SimulateInterrupt()
				end()
			}()
		}
		wg.Wait()

		if h.InForeground() {
			t.Error("expected no foreground after all goroutines finished")
		}
		if got := h.Absorbed(); got != 50 {
			t.Errorf("Absorbed() = %d, want 50", got)
		}
	})
}

// =============================================================================
// InterruptHandler: SIGTERM
// =============================================================================

func TestInterruptHandler_Terminate(t *testing.T) {
	t.Run("simulated terminate cancels the context", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())

		h.SimulateTerminate()

		if !isContextCancelled(h.Context()) {
			t.Error("SIGTERM should cancel the context")
		}
	})

	t.Run("real SIGTERM cancels the context", func(t *testing.T) {
		h := NewInterruptHandler(context.Background())
		h.Start()
		defer h.Stop()

		if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
			t.Fatalf("failed to send SIGTERM: %v", err)
		}

		select {
		case <-h.Context().Done():
		case <-time.After(time.Second):
			t.Fatal("context was not cancelled after SIGTERM")
		}
	})
}
