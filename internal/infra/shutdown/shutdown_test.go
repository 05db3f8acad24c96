package shutdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func waitAsync(h *Handler, ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- h.WaitContext(ctx) }()
	return errCh
}

func receive(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("WaitContext() did not return in time")
		return nil
	}
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(time.Second)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"watchers", "endpoint server", "status server"} {
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	select {
	case <-h.Done():
		t.Fatal("Done closed before shutdown")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.WaitContext(ctx); err != nil {
		t.Fatalf("WaitContext() error = %v", err)
	}

	if got := strings.Join(order, ","); got != "status server,endpoint server,watchers" {
		t.Errorf("order = %s", got)
	}
	if h.Reason() != ReasonCancelled {
		t.Errorf("Reason() = %q", h.Reason())
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done should be closed after the hooks ran")
	}
}

func TestHandler_Signal(t *testing.T) {
	h := NewHandler(time.Second)
	var called bool
	h.OnShutdown("server", func(context.Context) error {
		called = true
		return nil
	})

	errCh := waitAsync(h, context.Background())
	// Give WaitContext time to install the signal handler.
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	if err := receive(t, errCh); err != nil {
		t.Errorf("WaitContext() error = %v", err)
	}
	if !called {
		t.Error("hook was not called")
	}
	if h.Reason() != syscall.SIGTERM.String() {
		t.Errorf("Reason() = %q", h.Reason())
	}
}

func TestHandler_Trigger(t *testing.T) {
	h := NewHandler(time.Second)
	if h.Reason() != "" {
		t.Errorf("Reason() before shutdown = %q", h.Reason())
	}

	errCh := waitAsync(h, context.Background())
	h.Trigger()
	h.Trigger()

	if err := receive(t, errCh); err != nil {
		t.Errorf("WaitContext() error = %v", err)
	}
	if h.Reason() != ReasonTriggered {
		t.Errorf("Reason() = %q", h.Reason())
	}
}

func TestHandler_HookErrors(t *testing.T) {
	h := NewHandler(time.Second)
	errEndpoints := errors.New("listener stuck")
	errStatus := errors.New("status busy")
	h.OnShutdown("endpoint server", func(context.Context) error { return errEndpoints })
	h.OnShutdown("noop", func(context.Context) error { return nil })
	h.OnShutdown("status server", func(context.Context) error { return errStatus })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.WaitContext(ctx)

	if !errors.Is(err, errEndpoints) || !errors.Is(err, errStatus) {
		t.Fatalf("WaitContext() = %v, want both hook errors", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "endpoint server: listener stuck") || !strings.Contains(msg, "status server: status busy") {
		t.Errorf("errors not prefixed with hook names: %q", msg)
	}
	if strings.Contains(msg, "noop") {
		t.Errorf("successful hook reported: %q", msg)
	}
}

func TestHandler_HookDeadline(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.WaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitContext() = %v, want deadline exceeded", err)
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("hook", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("hooks = %d, want 10", len(h.hooks))
	}
}
