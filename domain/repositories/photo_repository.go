package repositories

import (
	"context"

	"github.com/google/uuid"

	"eventphoto-api/domain/models"
)

type PhotoRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	Update(ctx context.Context, photo *models.Photo) error
	ListByStatus(ctx context.Context, status models.PhotoStatus, limit int) ([]models.Photo, error)

	// Matching corpus
	ListApprovedWithEmbeddings(ctx context.Context) ([]models.Photo, error)
	CountApprovedWithoutEmbeddings(ctx context.Context) (int64, error)

	// Backfill
	ListApprovedMissingEmbeddings(ctx context.Context, limit int) ([]models.Photo, error)
	ReplaceEmbeddings(ctx context.Context, photo *models.Photo, embeddings []models.FaceEmbedding) error

	EmbeddingStats(ctx context.Context) (*EmbeddingStats, error)
}

// EmbeddingStats summarises embedding coverage of approved photos
type EmbeddingStats struct {
	ApprovedPhotos        int64         `json:"approvedPhotos"`
	WithEmbeddings        int64         `json:"withEmbeddings"`
	MissingEmbeddings     int64         `json:"missingEmbeddings"`
	EmbeddingsByDimension map[int]int64 `json:"embeddingsByDimension"`
}
