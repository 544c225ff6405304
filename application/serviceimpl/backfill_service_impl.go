package serviceimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventphoto-api/domain/repositories"
	"eventphoto-api/domain/services"
	"eventphoto-api/infrastructure/websocket"
	"eventphoto-api/infrastructure/worker"
	"eventphoto-api/pkg/logger"
)

const backfillLockKey = "backfill:embeddings"

type BackfillConfig struct {
	DefaultLimit int
	MaxLimit     int
	LockTTL      time.Duration
}

type BackfillServiceImpl struct {
	photoRepo repositories.PhotoRepository
	worker    *worker.BackfillWorker
	lock      services.RunLock
	notifier  services.Notifier
	config    BackfillConfig

	// Held for the whole run so one process never overlaps itself, with or
	// without the shared lock
	running sync.Mutex
}

// NewBackfillService builds the orchestrator. lock and notifier may be nil.
func NewBackfillService(
	photoRepo repositories.PhotoRepository,
	backfillWorker *worker.BackfillWorker,
	lock services.RunLock,
	notifier services.Notifier,
	config BackfillConfig,
) services.BackfillService {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 100
	}
	if config.MaxLimit < config.DefaultLimit {
		config.MaxLimit = config.DefaultLimit
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 30 * time.Minute
	}
	return &BackfillServiceImpl{
		photoRepo: photoRepo,
		worker:    backfillWorker,
		lock:      lock,
		notifier:  notifier,
		config:    config,
	}
}

// BackfillMissingEmbeddings embeds up to limit approved photos that have no
// embeddings. limit <= 0 uses the configured default.
func (s *BackfillServiceImpl) BackfillMissingEmbeddings(ctx context.Context, limit int) (*services.BackfillResult, error) {
	if !s.running.TryLock() {
		return nil, services.ErrBackfillInProgress
	}
	defer s.running.Unlock()

	release, err := s.acquireShared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	limit = s.clampLimit(limit)
	photos, err := s.photoRepo.ListApprovedMissingEmbeddings(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos missing embeddings: %w", err)
	}

	logger.Backfill("started", "Starting backfill of missing embeddings", map[string]interface{}{
		"found": len(photos),
		"limit": limit,
	})

	start := time.Now()
	result := s.worker.Process(ctx, photos)

	logger.Backfill("completed", "Backfill complete", map[string]interface{}{
		"total":     result.Total,
		"processed": result.Processed,
		"no_faces":  result.NoFaces,
		"failed":    result.Failed,
		"duration":  time.Since(start).String(),
	})

	if s.notifier != nil {
		s.notifier.Broadcast(websocket.MessageTypeBackfillCompleted, map[string]interface{}{
			"total":     result.Total,
			"processed": result.Processed,
			"noFaces":   result.NoFaces,
			"failed":    result.Failed,
		})
	}

	return result, nil
}

// acquireShared takes the cross-instance lock. When the lock backend is
// unreachable the run continues under the process-local lock only.
func (s *BackfillServiceImpl) acquireShared(ctx context.Context) (func(), error) {
	noop := func() {}
	if s.lock == nil {
		return noop, nil
	}

	acquired, err := s.lock.Acquire(ctx, backfillLockKey, s.config.LockTTL)
	if err != nil {
		logger.Warn(logger.CategoryBackfill, "lock_unavailable", "Shared lock unavailable, using local lock", map[string]interface{}{
			"error": err.Error(),
		})
		return noop, nil
	}
	if !acquired {
		return nil, services.ErrBackfillInProgress
	}

	return func() {
		if err := s.lock.Release(context.Background(), backfillLockKey); err != nil {
			logger.BackfillError("lock_release_failed", "Failed to release backfill lock", err, nil)
		}
	}, nil
}

func (s *BackfillServiceImpl) clampLimit(limit int) int {
	if limit <= 0 {
		return s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		return s.config.MaxLimit
	}
	return limit
}
