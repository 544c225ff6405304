package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"eventphoto-api/domain/models"
	"eventphoto-api/domain/repositories"
)

var ErrPhotoNotFound = errors.New("photo not found")

// URLResolver builds the public URL of a stored object
type URLResolver interface {
	PublicURL(storagePath string) string
}

// PhotoService handles photo moderation
type PhotoService interface {
	// Approve marks a photo approved and generates embeddings if it has none
	Approve(ctx context.Context, id uuid.UUID, approverID string) (*models.Photo, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Photo, error)
	ListPending(ctx context.Context, limit int) ([]models.Photo, error)
	EmbeddingStats(ctx context.Context) (*repositories.EmbeddingStats, error)
}
