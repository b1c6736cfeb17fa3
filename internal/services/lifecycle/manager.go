package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

// Manager stops registered components in reverse start order.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []hook
	done  bool
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown hook.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// RegisterFunc adds a hook for components whose stop cannot fail.
func (m *Manager) RegisterFunc(name string, fn func()) {
	if fn == nil {
		return
	}
	m.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// Shutdown runs every hook once, newest first, within the configured timeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return nil
	}
	m.done = true

	var result error
	for i := len(m.hooks) - 1; i >= 0; i-- {
		h := m.hooks[i]
		if err := h.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", h.name))
	}
	return result
}

// Context returns a context cancelled on SIGINT or SIGTERM. Only a delivered
// signal is logged; calling the returned stop is silent. After a signal,
// context.Cause reports which one arrived.
func (m *Manager) Context(parent context.Context) (context.Context, context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	ctx, stop, _ := m.watch(parent, signals, func() { signal.Stop(signals) })
	return ctx, stop
}

// watch cancels the returned context when a signal arrives on signals. The
// last return value is closed once the watcher has released its resources.
func (m *Manager) watch(parent context.Context, signals <-chan os.Signal, release func()) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancelCause(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer release()
		select {
		case sig := <-signals:
			m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
			cancel(fmt.Errorf("received %s", sig))
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(context.Canceled) }, done
}
