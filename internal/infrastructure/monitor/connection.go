package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pinger is satisfied by *pgxpool.Pool and by RedisPinger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer is satisfied by *buffer.Store.
type Sizer interface {
	Size() (int, error)
}

// RedisPinger adapts a go-redis client to Pinger.
type RedisPinger struct {
	Client *redislib.Client
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

type Monitor struct {
	pg     Pinger
	redis  Pinger
	buffer Sizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger

	reconnect []func()
}

func New(pg, redis Pinger, buf Sizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// OnReconnect registers fn to run, on the monitor goroutine, whenever
// Postgres comes back after a failed check. Register before Start.
func (m *Monitor) OnReconnect(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.reconnect = append(m.reconnect, fn)
	m.mu.Unlock()
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether Postgres answered on the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh checks every dependency concurrently and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	var status Status
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status.PostgreSQL = m.ping(gctx, "postgres", m.pg, 3*time.Second)
		return nil
	})
	g.Go(func() error {
		status.Redis = m.ping(gctx, "redis", m.redis, 2*time.Second)
		return nil
	})
	g.Go(func() error {
		status.Buffer, status.BufferSize = m.checkBuffer()
		return nil
	})
	_ = g.Wait()
	status.LastCheck = time.Now()

	m.mu.Lock()
	previous := m.status
	m.status = status
	hooks := m.reconnect
	m.mu.Unlock()

	if previous.LastCheck.IsZero() || previous.PostgreSQL == status.PostgreSQL {
		return status
	}
	m.logger.Info("postgres connectivity changed", zap.Bool("online", status.PostgreSQL))
	if status.PostgreSQL {
		for _, fn := range hooks {
			fn()
		}
	}
	return status
}

func (m *Monitor) ping(ctx context.Context, name string, p Pinger, timeout time.Duration) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		m.logger.Debug("ping failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
