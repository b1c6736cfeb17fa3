package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
	"github.com/fastygo/zoo/usecase"
)

// SimulatorConfig controls the reproduction cycle cadence.
type SimulatorConfig struct {
	Interval        time.Duration
	RefreshInterval time.Duration
	GestationPeriod time.Duration
}

// Simulator completes gestations once they have run for the gestation period.
// It evaluates an in-memory cache of in-progress records and only changes that
// cache after the store has accepted a completion.
type Simulator struct {
	gestations repository.GestationRepository
	buffer     usecase.CompletionBuffer
	logger     *zap.Logger
	cfg        SimulatorConfig
	now        func() time.Time

	mu    sync.Mutex
	cache map[int64]domain.Gestation

	cron *cron.Cron
}

func NewSimulator(
	gestations repository.GestationRepository,
	buffer usecase.CompletionBuffer,
	logger *zap.Logger,
	cfg SimulatorConfig,
) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Minute
	}
	if cfg.GestationPeriod <= 0 {
		cfg.GestationPeriod = 120 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		gestations: gestations,
		buffer:     buffer,
		logger:     logger.Named("simulator"),
		cfg:        cfg,
		now:        time.Now,
		cache:      make(map[int64]domain.Gestation),
	}
}

// Start loads the cache and schedules evaluation and refresh jobs.
func (s *Simulator) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("initial gestation load failed", zap.Error(err))
	}

	s.cron = newScheduler(s.logger)
	if _, err := s.cron.AddFunc(every(s.cfg.Interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
		defer cancel()
		s.Evaluate(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(every(s.cfg.RefreshInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RefreshInterval)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("gestation refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("simulator started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("gestation_period", s.cfg.GestationPeriod),
	)
	return nil
}

// Stop waits for running jobs or until ctx expires.
func (s *Simulator) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("simulator stopped")
}

// Refresh replaces the cache with the store's in-progress gestations.
// Stale flags are dropped since the store is now the source of truth.
func (s *Simulator) Refresh(ctx context.Context) error {
	inProgress, err := s.gestations.ListInProgress(ctx)
	if err != nil {
		return err
	}
	fresh := make(map[int64]domain.Gestation, len(inProgress))
	for _, g := range inProgress {
		g.SyncState = domain.SyncStateSynced
		fresh[g.ID] = g
	}

	s.mu.Lock()
	s.cache = fresh
	s.mu.Unlock()
	return nil
}

// Track adds a freshly started gestation without waiting for the next refresh.
func (s *Simulator) Track(g domain.Gestation) {
	if !g.InProgress() {
		return
	}
	g.SyncState = domain.SyncStateSynced
	s.mu.Lock()
	s.cache[g.ID] = g
	s.mu.Unlock()
}

// SyncState reports the cached state of a gestation, or "" when it is not tracked.
func (s *Simulator) SyncState(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.cache[id]; ok {
		return g.SyncState
	}
	return ""
}

// Snapshot returns the tracked gestations ordered by id.
func (s *Simulator) Snapshot() []domain.Gestation {
	s.mu.Lock()
	out := make([]domain.Gestation, 0, len(s.cache))
	for _, g := range s.cache {
		out = append(out, g)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Evaluate completes every due, synced gestation and returns how many the store accepted.
func (s *Simulator) Evaluate(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	var due []domain.Gestation
	for _, g := range s.cache {
		if g.SyncState != domain.SyncStateStale && g.Due(now, s.cfg.GestationPeriod) {
			due = append(due, g)
		}
	}
	s.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })

	completed := 0
	for _, g := range due {
		applied, err := s.gestations.Complete(ctx, g)
		if err != nil {
			s.markStale(ctx, g, err)
			continue
		}

		s.mu.Lock()
		delete(s.cache, g.ID)
		s.mu.Unlock()

		if !applied {
			s.logger.Debug("gestation already completed", zap.Int64("gestation_id", g.ID))
			continue
		}
		completed++
		s.logger.Info("gestation completed",
			zap.Int64("gestation_id", g.ID),
			zap.Int64("enclosure_id", g.EnclosureID),
			zap.String("organization_id", g.OrganizationID),
		)
	}
	return completed
}

func (s *Simulator) markStale(ctx context.Context, g domain.Gestation, cause error) {
	s.mu.Lock()
	if cached, ok := s.cache[g.ID]; ok {
		cached.SyncState = domain.SyncStateStale
		s.cache[g.ID] = cached
	}
	s.mu.Unlock()

	s.logger.Error("gestation completion not persisted",
		zap.Int64("gestation_id", g.ID),
		zap.Error(cause),
	)
	if s.buffer == nil {
		return
	}
	if err := s.buffer.BufferCompletion(ctx, g); err != nil {
		s.logger.Error("failed to buffer gestation completion",
			zap.Int64("gestation_id", g.ID),
			zap.Error(err),
		)
	}
}
