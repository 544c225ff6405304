package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventphoto-api/domain/models"
	"eventphoto-api/domain/repositories"
)

const hasEmbeddingSQL = "EXISTS (SELECT 1 FROM face_embeddings fe WHERE fe.photo_id = photos.id)"

type PhotoRepositoryImpl struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) repositories.PhotoRepository {
	return &PhotoRepositoryImpl{db: db}
}

func (r *PhotoRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).
		Preload("FaceEmbeddings").
		Where("id = ?", id).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// Update saves the photo row only; embeddings go through ReplaceEmbeddings
func (r *PhotoRepositoryImpl) Update(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(photo).Error
}

func (r *PhotoRepositoryImpl) ListByStatus(ctx context.Context, status models.PhotoStatus, limit int) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&photos).Error
	return photos, err
}

// ListApprovedWithEmbeddings loads the matching corpus: every approved photo
// that has at least one stored embedding
func (r *PhotoRepositoryImpl) ListApprovedWithEmbeddings(ctx context.Context) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.WithContext(ctx).
		Preload("FaceEmbeddings", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("status = ? AND "+hasEmbeddingSQL, models.PhotoStatusApproved).
		Order("created_at DESC").
		Find(&photos).Error
	return photos, err
}

func (r *PhotoRepositoryImpl) CountApprovedWithoutEmbeddings(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Photo{}).
		Where("status = ? AND NOT "+hasEmbeddingSQL, models.PhotoStatusApproved).
		Count(&count).Error
	return count, err
}

// ListApprovedMissingEmbeddings returns the oldest approved photos without embeddings
func (r *PhotoRepositoryImpl) ListApprovedMissingEmbeddings(ctx context.Context, limit int) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.WithContext(ctx).
		Where("status = ? AND NOT "+hasEmbeddingSQL, models.PhotoStatusApproved).
		Order("created_at ASC").
		Limit(limit).
		Find(&photos).Error
	return photos, err
}

// ReplaceEmbeddings swaps the photo's stored embeddings and persists its
// public URL in one transaction
func (r *PhotoRepositoryImpl) ReplaceEmbeddings(ctx context.Context, photo *models.Photo, embeddings []models.FaceEmbedding) error {
	for i := range embeddings {
		embeddings[i].PhotoID = photo.ID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", photo.ID).Delete(&models.FaceEmbedding{}).Error; err != nil {
			return err
		}

		if len(embeddings) > 0 {
			if err := tx.CreateInBatches(&embeddings, 50).Error; err != nil {
				return err
			}
		}

		if photo.PublicURL != "" {
			if err := tx.Model(&models.Photo{}).
				Where("id = ?", photo.ID).
				Update("public_url", photo.PublicURL).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	photo.FaceEmbeddings = embeddings
	return nil
}

type dimensionCount struct {
	Dimension int
	Count     int64
}

func (r *PhotoRepositoryImpl) EmbeddingStats(ctx context.Context) (*repositories.EmbeddingStats, error) {
	stats := &repositories.EmbeddingStats{EmbeddingsByDimension: map[int]int64{}}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Photo{}).
		Where("status = ?", models.PhotoStatusApproved).
		Count(&stats.ApprovedPhotos).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Photo{}).
		Where("status = ? AND "+hasEmbeddingSQL, models.PhotoStatusApproved).
		Count(&stats.WithEmbeddings).Error; err != nil {
		return nil, err
	}
	stats.MissingEmbeddings = stats.ApprovedPhotos - stats.WithEmbeddings

	var rows []dimensionCount
	if err := db.Raw(`
		SELECT vector_dims(fe.embedding) AS dimension, COUNT(*) AS count
		FROM face_embeddings fe
		JOIN photos p ON p.id = fe.photo_id
		WHERE p.status = ?
		GROUP BY 1
		ORDER BY 1`, models.PhotoStatusApproved).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.EmbeddingsByDimension[row.Dimension] = row.Count
	}

	return stats, nil
}
