package serviceimpl

import (
	"context"
	"fmt"

	"eventphoto-api/domain/dto"
	"eventphoto-api/domain/repositories"
	"eventphoto-api/domain/services"
	"eventphoto-api/pkg/facematch"
	"eventphoto-api/pkg/logger"
)

type FaceServiceImpl struct {
	photoRepo repositories.PhotoRepository
	generator services.EmbeddingGenerator
	engine    *facematch.Engine
}

// NewFaceService wires search and selfie embedding. generator may be nil
// when the embedding service is disabled; search keeps working.
func NewFaceService(
	photoRepo repositories.PhotoRepository,
	generator services.EmbeddingGenerator,
	engine *facematch.Engine,
) services.FaceService {
	if engine == nil {
		engine = facematch.DefaultEngine()
	}
	return &FaceServiceImpl{
		photoRepo: photoRepo,
		generator: generator,
		engine:    engine,
	}
}

func (s *FaceServiceImpl) Search(ctx context.Context, embedding []float32, threshold *float64) ([]services.FaceMatch, error) {
	if len(embedding) == 0 {
		return nil, services.ErrInvalidEmbedding
	}

	photos, err := s.photoRepo.ListApprovedWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved photos: %w", err)
	}

	missing, err := s.photoRepo.CountApprovedWithoutEmbeddings(ctx)
	if err != nil {
		logger.FaceError("count_missing_failed", "Failed to count photos missing embeddings", err, nil)
	}

	result := s.engine.FindMatches(embedding, dto.PhotosToCandidates(photos), threshold)
	stats := result.Stats

	logger.Face("search", "Face search completed", map[string]interface{}{
		"metric":         stats.Metric.String(),
		"dimension":      stats.Dimension,
		"threshold":      stats.Threshold,
		"photos":         len(photos),
		"compared":       stats.Compared,
		"matched":        stats.Matched,
		"min_distance":   stats.MinDistance,
		"max_distance":   stats.MaxDistance,
		"avg_distance":   stats.AvgDistance,
		"distribution":   stats.Distribution,
		"missing_photos": missing,
	})

	if stats.DimensionMismatches > 0 {
		logger.FaceWarn("dimension_mismatch", "Skipped embeddings of a different dimension", map[string]interface{}{
			"skipped":   stats.DimensionMismatches,
			"dimension": stats.Dimension,
		})
	}
	if missing > 0 {
		logger.FaceWarn("missing_embeddings", "Approved photos are missing embeddings", map[string]interface{}{
			"count": missing,
		})
	}

	matches := make([]services.FaceMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, services.FaceMatch{
			PhotoID:     m.Photo.ID,
			EventID:     m.Photo.EventID,
			StoragePath: m.Photo.StoragePath,
			PublicURL:   m.Photo.PublicURL,
			Distance:    m.Distance,
			Confidence:  m.Confidence,
		})
	}

	return matches, nil
}

// SelfieEmbedding tries the caller's detector options, then escalates once
func (s *FaceServiceImpl) SelfieEmbedding(ctx context.Context, imageBase64 string, opts services.DetectionOptions) (*services.SelfieEmbedding, error) {
	if s.generator == nil {
		return nil, services.ErrFaceServiceDisabled
	}
	if imageBase64 == "" {
		return nil, services.ErrImageRequired
	}

	embeddings, err := s.generator.EmbedFromImage(ctx, imageBase64, opts)
	if err != nil {
		logger.FaceWarn("selfie_embed_failed", "Selfie embedding failed, escalating detection", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if len(embeddings) == 0 {
		embeddings, err = s.generator.EmbedFromImage(ctx, imageBase64, services.EscalatedDetection)
		if err != nil {
			return nil, fmt.Errorf("selfie embedding failed: %w", err)
		}
	}

	if len(embeddings) == 0 {
		return nil, services.ErrNoFacesDetected
	}

	logger.Face("selfie_embedded", "Selfie embedding extracted", map[string]interface{}{
		"faces":     len(embeddings),
		"dimension": len(embeddings[0].Vector),
	})

	return &services.SelfieEmbedding{
		Embedding:  embeddings[0].Vector,
		FacesFound: len(embeddings),
	}, nil
}
