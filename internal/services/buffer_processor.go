package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/internal/infrastructure/buffer"
	"github.com/fastygo/zoo/repository"
)

// errUnreplayable marks items that can never succeed; they are dropped without retry.
var errUnreplayable = errors.New("buffer item cannot be replayed")

// ConnectionHealth reports whether the primary store is reachable.
type ConnectionHealth interface {
	IsOnline() bool
}

type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// DrainResult counts what one drain pass did with each item it read.
type DrainResult struct {
	Replayed int
	Requeued int
	Dropped  int
	Expired  int
}

type replayer func(ctx context.Context, item buffer.Item) error

// BufferProcessor replays parked writes against the primary store.
type BufferProcessor struct {
	store     *buffer.Store
	monitor   ConnectionHealth
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ProcessorConfig
	replayers map[string]replayer

	draining sync.Mutex
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	gestations repository.GestationRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		logger:  logger.Named("buffer"),
		cfg:     cfg,
	}
	bp.replayers = map[string]replayer{
		replayKey(buffer.EntityGestation, buffer.OperationComplete): bp.completeGestation(gestations),
	}

	bp.cron = newScheduler(bp.logger)
	_, _ = bp.cron.AddFunc(every(cfg.Interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		result, err := bp.Drain(ctx)
		if err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
			return
		}
		if result != (DrainResult{}) {
			bp.logger.Info("buffer drained",
				zap.Int("replayed", result.Replayed),
				zap.Int("requeued", result.Requeued),
				zap.Int("dropped", result.Dropped),
				zap.Int("expired", result.Expired),
			)
		}
	})
	return bp
}

func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for a running drain to finish or for ctx to expire.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	select {
	case <-bp.cron.Stop().Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Enqueue parks an item without attempting it first.
func (bp *BufferProcessor) Enqueue(item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errors.New("buffer processor not configured")
	}
	return bp.store.Enqueue(item)
}

// Drain replays one batch while the primary store is reachable. Items older
// than the retention window are discarded first. Concurrent calls run one at a time.
func (bp *BufferProcessor) Drain(ctx context.Context) (DrainResult, error) {
	var result DrainResult
	if bp == nil || bp.store == nil {
		return result, nil
	}
	bp.draining.Lock()
	defer bp.draining.Unlock()
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain while offline")
		return result, nil
	}

	if bp.cfg.Retention > 0 {
		expired, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention))
		if err != nil {
			bp.logger.Warn("buffer cleanup failed", zap.Error(err))
		}
		result.Expired = expired
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return result, err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		err := bp.replay(ctx, item)
		switch {
		case err == nil:
			result.Replayed++
			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to purge replayed item", zap.String("item_id", item.ID), zap.Error(err))
			}
		case errors.Is(err, errUnreplayable):
			result.Dropped++
			bp.logger.Error("dropping unreplayable buffer item", zap.String("item_id", item.ID), zap.Error(err))
			_ = bp.store.Remove(item)
		default:
			item.Retries++
			if item.Retries >= bp.cfg.MaxRetries {
				result.Dropped++
				bp.logger.Warn("dropping buffer item after max retries",
					zap.String("item_id", item.ID),
					zap.Int("retries", item.Retries),
					zap.Error(err),
				)
				_ = bp.store.Remove(item)
				continue
			}
			result.Requeued++
			if err := bp.store.Requeue(item); err != nil {
				bp.logger.Error("failed to requeue buffer item", zap.String("item_id", item.ID), zap.Error(err))
			}
		}
	}
	return result, nil
}

func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) replay(ctx context.Context, item buffer.Item) error {
	fn, ok := bp.replayers[replayKey(item.Entity, item.Operation)]
	if !ok {
		return fmt.Errorf("%w: no handler for %s/%s", errUnreplayable, item.Entity, item.Operation)
	}
	return fn(ctx, item)
}

func (bp *BufferProcessor) completeGestation(gestations repository.GestationRepository) replayer {
	return func(ctx context.Context, item buffer.Item) error {
		var g domain.Gestation
		if err := json.Unmarshal(item.Data, &g); err != nil || g.ID == 0 {
			return fmt.Errorf("%w: malformed gestation payload", errUnreplayable)
		}
		applied, err := gestations.Complete(ctx, g)
		if err != nil {
			return err
		}
		bp.logger.Info("buffered gestation completion replayed",
			zap.Int64("gestation_id", g.ID),
			zap.Bool("applied", applied),
		)
		return nil
	}
}

func replayKey(entity, operation string) string {
	return entity + "/" + operation
}
