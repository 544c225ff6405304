package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"eventphoto-api/domain/dto"
	"eventphoto-api/domain/models"
	"eventphoto-api/domain/repositories"
	"eventphoto-api/domain/services"
	"eventphoto-api/infrastructure/websocket"
	"eventphoto-api/pkg/logger"
)

var (
	errNoPublicURL = errors.New("photo has no resolvable public URL")
	errCircuitOpen = errors.New("embedding service circuit open")
)

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeNoFaces
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeProcessed:
		return "processed"
	case outcomeNoFaces:
		return "no_faces"
	default:
		return "failed"
	}
}

type BackfillOptions struct {
	// Photos embedded at once; 1 or less runs them one after another
	Concurrency int

	// Consecutive generation failures before the rest of the batch is
	// skipped; 0 disables
	BreakerThreshold int
}

// BackfillWorker embeds a batch of photos. Every photo is an independent
// task: one failure never aborts the rest, and saved photos stay saved.
type BackfillWorker struct {
	generator services.EmbeddingGenerator
	photoRepo repositories.PhotoRepository
	urls      services.URLResolver
	notifier  services.Notifier

	concurrency      int
	breakerThreshold int32
}

func NewBackfillWorker(
	generator services.EmbeddingGenerator,
	photoRepo repositories.PhotoRepository,
	urls services.URLResolver,
	notifier services.Notifier,
	opts BackfillOptions,
) *BackfillWorker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &BackfillWorker{
		generator:        generator,
		photoRepo:        photoRepo,
		urls:             urls,
		notifier:         notifier,
		concurrency:      opts.Concurrency,
		breakerThreshold: int32(opts.BreakerThreshold),
	}
}

// Process embeds every photo and returns the per-outcome counts
func (w *BackfillWorker) Process(ctx context.Context, photos []models.Photo) *services.BackfillResult {
	result := &services.BackfillResult{Total: len(photos)}
	breaker := NewCircuitBreaker(w.breakerThreshold, 0)

	var mu sync.Mutex
	record := func(photo *models.Photo, o outcome, err error) {
		mu.Lock()
		switch o {
		case outcomeProcessed:
			result.Processed++
		case outcomeNoFaces:
			result.NoFaces++
		default:
			result.Failed++
		}
		progress := map[string]interface{}{
			"photoId":   photo.ID.String(),
			"status":    o.String(),
			"total":     result.Total,
			"processed": result.Processed,
			"noFaces":   result.NoFaces,
			"failed":    result.Failed,
		}
		mu.Unlock()

		if err != nil {
			progress["error"] = err.Error()
		}
		if w.notifier != nil {
			w.notifier.Broadcast(websocket.MessageTypeBackfillProgress, progress)
		}
	}

	logger.Backfill("batch_started", "Processing photos without embeddings", map[string]interface{}{
		"photos":      len(photos),
		"concurrency": w.concurrency,
	})

	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)

	for i := range photos {
		photo := &photos[i]

		if ctx.Err() != nil {
			record(photo, outcomeFailed, ctx.Err())
			continue
		}

		g.Go(func() error {
			o, err := w.processPhoto(ctx, photo, breaker)
			if err != nil {
				logger.BackfillError("photo_failed", "Failed to process photo", err, map[string]interface{}{
					"photo_id": photo.ID.String(),
				})
			}
			record(photo, o, err)
			return nil
		})
	}
	g.Wait()

	logger.Backfill("batch_completed", "Backfill batch complete", map[string]interface{}{
		"total":     result.Total,
		"processed": result.Processed,
		"no_faces":  result.NoFaces,
		"failed":    result.Failed,
	})

	return result
}

func (w *BackfillWorker) processPhoto(ctx context.Context, photo *models.Photo, breaker *CircuitBreaker) (outcome, error) {
	if breaker.IsOpen() {
		return outcomeFailed, fmt.Errorf("%w after %d failures", errCircuitOpen, breaker.GetFailures())
	}

	if photo.PublicURL == "" && w.urls != nil {
		photo.PublicURL = w.urls.PublicURL(photo.StoragePath)
	}
	if photo.PublicURL == "" {
		return outcomeFailed, errNoPublicURL
	}

	start := time.Now()
	generated, err := w.generator.EmbedFromURL(ctx, photo.PublicURL)
	if err != nil {
		breaker.RecordFailure()
		return outcomeFailed, fmt.Errorf("embedding generation failed: %w", err)
	}
	breaker.RecordSuccess()

	if len(generated) == 0 {
		logger.Backfill("no_faces", "No faces found in photo", map[string]interface{}{
			"photo_id": photo.ID.String(),
		})
		return outcomeNoFaces, nil
	}

	faces := dto.GeneratedToFaceEmbeddings(generated, models.EmbeddingSourceBackfill)
	if err := w.photoRepo.ReplaceEmbeddings(ctx, photo, faces); err != nil {
		return outcomeFailed, fmt.Errorf("failed to save embeddings: %w", err)
	}

	logger.Backfill("photo_processed", "Saved embeddings for photo", map[string]interface{}{
		"photo_id":   photo.ID.String(),
		"embeddings": len(faces),
		"duration":   time.Since(start).String(),
	})
	return outcomeProcessed, nil
}
