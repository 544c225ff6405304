package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eventphoto-api/domain/dto"
	"eventphoto-api/domain/models"
	"eventphoto-api/domain/repositories"
	"eventphoto-api/domain/services"
	"eventphoto-api/pkg/logger"
)

const (
	defaultPendingLimit = 100
	maxPendingLimit     = 500
)

type PhotoServiceImpl struct {
	photoRepo repositories.PhotoRepository
	generator services.EmbeddingGenerator
	urls      services.URLResolver
}

func NewPhotoService(
	photoRepo repositories.PhotoRepository,
	generator services.EmbeddingGenerator,
	urls services.URLResolver,
) services.PhotoService {
	return &PhotoServiceImpl{
		photoRepo: photoRepo,
		generator: generator,
		urls:      urls,
	}
}

func (s *PhotoServiceImpl) getPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	photo, err := s.photoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}
	return photo, nil
}

// Approve publishes the photo. Embedding generation runs inline and never
// fails the approval.
func (s *PhotoServiceImpl) Approve(ctx context.Context, id uuid.UUID, approverID string) (*models.Photo, error) {
	photo, err := s.getPhoto(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	photo.Status = models.PhotoStatusApproved
	photo.ApprovedBy = approverID
	photo.ApprovedAt = &now
	photo.RejectionReason = ""
	if s.urls != nil {
		if url := s.urls.PublicURL(photo.StoragePath); url != "" {
			photo.PublicURL = url
		}
	}

	if err := s.photoRepo.Update(ctx, photo); err != nil {
		return nil, fmt.Errorf("failed to approve photo: %w", err)
	}

	logger.Info(logger.CategoryAPI, "photo_approved", "Photo approved", map[string]interface{}{
		"photo_id":    photo.ID.String(),
		"approved_by": approverID,
	})

	if photo.HasEmbeddings() {
		logger.Face("embeddings_exist", "Embeddings already exist, skipping generation", map[string]interface{}{
			"photo_id": photo.ID.String(),
		})
		return photo, nil
	}

	s.generateEmbeddings(ctx, photo)
	return photo, nil
}

func (s *PhotoServiceImpl) generateEmbeddings(ctx context.Context, photo *models.Photo) {
	if s.generator == nil || photo.PublicURL == "" {
		return
	}

	data := map[string]interface{}{"photo_id": photo.ID.String()}

	generated, err := s.generator.EmbedFromURL(ctx, photo.PublicURL)
	if err != nil {
		logger.FaceError("approval_embed_failed", "Embedding generation failed, photo stays approved", err, data)
		return
	}
	if len(generated) == 0 {
		logger.FaceWarn("approval_no_faces", "No faces found in approved photo", data)
		return
	}

	faces := dto.GeneratedToFaceEmbeddings(generated, models.EmbeddingSourceApproval)
	if err := s.photoRepo.ReplaceEmbeddings(ctx, photo, faces); err != nil {
		logger.FaceError("approval_embed_save_failed", "Failed to save embeddings", err, data)
		return
	}

	data["embeddings"] = len(faces)
	logger.Face("approval_embedded", "Generated embeddings for approved photo", data)
}

func (s *PhotoServiceImpl) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Photo, error) {
	photo, err := s.getPhoto(ctx, id)
	if err != nil {
		return nil, err
	}

	photo.Status = models.PhotoStatusRejected
	photo.RejectionReason = reason

	if err := s.photoRepo.Update(ctx, photo); err != nil {
		return nil, fmt.Errorf("failed to reject photo: %w", err)
	}

	logger.Info(logger.CategoryAPI, "photo_rejected", "Photo rejected", map[string]interface{}{
		"photo_id": photo.ID.String(),
		"reason":   reason,
	})
	return photo, nil
}

func (s *PhotoServiceImpl) ListPending(ctx context.Context, limit int) ([]models.Photo, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	if limit > maxPendingLimit {
		limit = maxPendingLimit
	}
	return s.photoRepo.ListByStatus(ctx, models.PhotoStatusPending, limit)
}

func (s *PhotoServiceImpl) EmbeddingStats(ctx context.Context) (*repositories.EmbeddingStats, error) {
	return s.photoRepo.EmbeddingStats(ctx)
}
