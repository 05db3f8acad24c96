package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Reasons reported by Handler.Reason besides the signal name.
const (
	ReasonTriggered = "triggered"
	ReasonCancelled = "context cancelled"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler runs shutdown hooks once the process is asked to stop.
type Handler struct {
	timeout time.Duration

	mu     sync.Mutex
	hooks  []hook
	reason string

	trigger     chan struct{}
	triggerOnce sync.Once
	done        chan struct{}
}

// NewHandler creates a Handler. timeout bounds all hooks together.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a named hook. Hooks run in reverse order of
// registration so later components stop before the ones they use.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Trigger starts shutdown without a signal, e.g. when a server fails.
func (h *Handler) Trigger() {
	h.triggerOnce.Do(func() { close(h.trigger) })
}

// WaitContext blocks until SIGINT, SIGTERM, Trigger or the end of ctx,
// then runs the hooks. Each hook error is prefixed with the hook name
// and all of them are joined.
func (h *Handler) WaitContext(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var reason string
	select {
	case sig := <-sigCh:
		reason = sig.String()
	case <-h.trigger:
		reason = ReasonTriggered
	case <-ctx.Done():
		reason = ReasonCancelled
	}

	h.mu.Lock()
	h.reason = reason
	hooks := append([]hook(nil), h.hooks...)
	h.mu.Unlock()

	hookCtx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(hookCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
		}
	}

	close(h.done)
	return errors.Join(errs...)
}

// Reason reports what started shutdown, or "" while still waiting.
func (h *Handler) Reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// Done is closed after the hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
