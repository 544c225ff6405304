package services

import (
	"context"
	"errors"
	"time"
)

var ErrBackfillInProgress = errors.New("a backfill run is already in progress")

// BackfillResult holds the per-run counts
type BackfillResult struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	NoFaces   int `json:"noFaces"`
	Failed    int `json:"failed"`
}

// RunLock guards against overlapping backfill runs.
// Acquire returns false when another holder owns the lock.
type RunLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Notifier pushes progress events to connected clients
type Notifier interface {
	Broadcast(messageType string, data map[string]interface{})
}

// BackfillService generates embeddings for approved photos that have none
type BackfillService interface {
	BackfillMissingEmbeddings(ctx context.Context, limit int) (*BackfillResult, error)
}
