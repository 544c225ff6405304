package serviceimpl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-api/domain/models"
	"eventphoto-api/domain/services"
)

func TestPhotoService_Approve_GeneratesEmbeddings(t *testing.T) {
	repo := &memoryPhotoRepo{}
	photo := repo.add(models.Photo{StoragePath: "ev/u/1.jpg", Status: models.PhotoStatusPending, RejectionReason: "blurry"})
	url := "https://cdn.test/event-photos/ev/u/1.jpg"
	gen := &scriptedGenerator{byURL: map[string][]services.GeneratedEmbedding{
		url: append(generated(512, 1), generated(512, 2)...),
	}}

	svc := NewPhotoService(repo, gen, pathResolver{})
	approved, err := svc.Approve(context.Background(), photo.ID, "staff-7")

	require.NoError(t, err)
	assert.Equal(t, models.PhotoStatusApproved, approved.Status)
	assert.Equal(t, "staff-7", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.WithinDuration(t, time.Now(), *approved.ApprovedAt, time.Minute)
	assert.Empty(t, approved.RejectionReason)
	assert.Equal(t, url, approved.PublicURL)
	require.Len(t, approved.FaceEmbeddings, 2)
	assert.Equal(t, models.EmbeddingSourceApproval, approved.FaceEmbeddings[0].Source)

	stored, _ := repo.GetByID(context.Background(), photo.ID)
	assert.Equal(t, models.PhotoStatusApproved, stored.Status)
	assert.Len(t, stored.FaceEmbeddings, 2)
}

func TestPhotoService_Approve_SkipsExistingEmbeddings(t *testing.T) {
	repo := &memoryPhotoRepo{}
	photo := repo.add(models.Photo{
		StoragePath:    "ev/u/1.jpg",
		Status:         models.PhotoStatusPending,
		FaceEmbeddings: []models.FaceEmbedding{storedEmbedding(1, 2, 3)},
	})
	gen := &scriptedGenerator{}

	_, err := NewPhotoService(repo, gen, pathResolver{}).Approve(context.Background(), photo.ID, "staff-7")

	require.NoError(t, err)
	assert.Empty(t, gen.urlCalls)
	assert.Zero(t, repo.replaced)
}

func TestPhotoService_Approve_GenerationFailureIsNotFatal(t *testing.T) {
	repo := &memoryPhotoRepo{}
	photo := repo.add(models.Photo{StoragePath: "ev/u/1.jpg", Status: models.PhotoStatusPending})
	gen := &scriptedGenerator{urlErrs: map[string]error{
		"https://cdn.test/event-photos/ev/u/1.jpg": errors.New("embedding service unavailable"),
	}}

	approved, err := NewPhotoService(repo, gen, pathResolver{}).Approve(context.Background(), photo.ID, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, models.PhotoStatusApproved, approved.Status)
	assert.Empty(t, approved.FaceEmbeddings)
}

func TestPhotoService_Approve_WithoutGenerator(t *testing.T) {
	repo := &memoryPhotoRepo{}
	photo := repo.add(models.Photo{StoragePath: "ev/u/1.jpg", Status: models.PhotoStatusPending})

	approved, err := NewPhotoService(repo, nil, pathResolver{}).Approve(context.Background(), photo.ID, "admin-1")

	require.NoError(t, err)
	assert.True(t, approved.IsApproved())
}

func TestPhotoService_NotFound(t *testing.T) {
	svc := NewPhotoService(&memoryPhotoRepo{}, nil, pathResolver{})

	_, err := svc.Approve(context.Background(), uuid.New(), "staff-7")
	assert.ErrorIs(t, err, services.ErrPhotoNotFound)

	_, err = svc.Reject(context.Background(), uuid.New(), "spam")
	assert.ErrorIs(t, err, services.ErrPhotoNotFound)
}

func TestPhotoService_Reject(t *testing.T) {
	repo := &memoryPhotoRepo{}
	photo := repo.add(models.Photo{StoragePath: "ev/u/1.jpg", Status: models.PhotoStatusPending})

	rejected, err := NewPhotoService(repo, nil, pathResolver{}).Reject(context.Background(), photo.ID, "not from this event")

	require.NoError(t, err)
	assert.Equal(t, models.PhotoStatusRejected, rejected.Status)
	assert.Equal(t, "not from this event", rejected.RejectionReason)
}

func TestPhotoService_ListPending(t *testing.T) {
	repo := &memoryPhotoRepo{}
	older := repo.add(models.Photo{Status: models.PhotoStatusPending})
	newer := repo.add(models.Photo{Status: models.PhotoStatusPending})
	repo.add(models.Photo{Status: models.PhotoStatusApproved})

	pending, err := NewPhotoService(repo, nil, nil).ListPending(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, newer.ID, pending[0].ID)
	assert.Equal(t, older.ID, pending[1].ID)
}

func TestPhotoService_EmbeddingStats(t *testing.T) {
	repo := &memoryPhotoRepo{}
	repo.add(models.Photo{Status: models.PhotoStatusApproved, FaceEmbeddings: []models.FaceEmbedding{
		storedEmbedding(make([]float32, 128)...),
		storedEmbedding(make([]float32, 512)...),
	}})
	repo.add(models.Photo{Status: models.PhotoStatusApproved})

	stats, err := NewPhotoService(repo, nil, nil).EmbeddingStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ApprovedPhotos)
	assert.Equal(t, int64(1), stats.MissingEmbeddings)
	assert.Equal(t, map[int]int64{128: 1, 512: 1}, stats.EmbeddingsByDimension)
}
