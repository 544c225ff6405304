package dto

import (
	"github.com/pgvector/pgvector-go"

	"eventphoto-api/domain/models"
	"eventphoto-api/domain/services"
	"eventphoto-api/pkg/facematch"
)

func PhotoToPhotoResponse(photo *models.Photo) *PhotoResponse {
	if photo == nil {
		return nil
	}

	return &PhotoResponse{
		ID:              photo.ID,
		EventID:         photo.EventID,
		UploaderName:    photo.UploaderName,
		Description:     photo.Description,
		StoragePath:     photo.StoragePath,
		Bucket:          photo.Bucket,
		PublicURL:       photo.PublicURL,
		Status:          string(photo.Status),
		ApprovedBy:      photo.ApprovedBy,
		ApprovedAt:      photo.ApprovedAt,
		RejectionReason: photo.RejectionReason,
		FaceCount:       len(photo.FaceEmbeddings),
		CreatedAt:       photo.CreatedAt,
	}
}

func PhotosToPhotoResponses(photos []models.Photo) []PhotoResponse {
	responses := make([]PhotoResponse, 0, len(photos))
	for i := range photos {
		responses = append(responses, *PhotoToPhotoResponse(&photos[i]))
	}
	return responses
}

func FaceMatchesToResponses(matches []services.FaceMatch) []FaceMatchResponse {
	responses := make([]FaceMatchResponse, 0, len(matches))
	for _, m := range matches {
		responses = append(responses, FaceMatchResponse{
			PhotoID:     m.PhotoID,
			StoragePath: m.StoragePath,
			PublicURL:   m.PublicURL,
			Distance:    m.Distance,
			Confidence:  m.Confidence,
			EventID:     m.EventID,
		})
	}
	return responses
}

func BackfillResultToResponse(result *services.BackfillResult) *BackfillResponse {
	if result == nil {
		return &BackfillResponse{Message: "Backfill completed"}
	}
	return &BackfillResponse{
		Message:   "Backfill completed",
		Total:     result.Total,
		Processed: result.Processed,
		NoFaces:   result.NoFaces,
		Failed:    result.Failed,
	}
}

// PhotoToCandidate snapshots a photo and its stored vectors for matching
func PhotoToCandidate(photo *models.Photo) facematch.Candidate {
	candidate := facematch.Candidate{
		Photo: facematch.PhotoRef{
			ID:          photo.ID,
			EventID:     photo.EventID,
			StoragePath: photo.StoragePath,
			PublicURL:   photo.PublicURL,
		},
		Embeddings: make([]facematch.Embedding, 0, len(photo.FaceEmbeddings)),
	}

	for i := range photo.FaceEmbeddings {
		face := &photo.FaceEmbeddings[i]
		candidate.Embeddings = append(candidate.Embeddings, facematch.Embedding{
			Vector:      face.Vector(),
			BoundingBox: face.BoundingBox,
			Source:      face.Source,
		})
	}

	return candidate
}

func PhotosToCandidates(photos []models.Photo) []facematch.Candidate {
	candidates := make([]facematch.Candidate, 0, len(photos))
	for i := range photos {
		candidates = append(candidates, PhotoToCandidate(&photos[i]))
	}
	return candidates
}

// GeneratedToFaceEmbeddings maps service output to rows tagged with source
func GeneratedToFaceEmbeddings(generated []services.GeneratedEmbedding, source string) []models.FaceEmbedding {
	faces := make([]models.FaceEmbedding, 0, len(generated))
	for _, g := range generated {
		faces = append(faces, models.FaceEmbedding{
			Embedding:   pgvector.NewVector(g.Vector),
			BoundingBox: g.BoundingBox,
			Source:      source,
		})
	}
	return faces
}

// DetectionOptions applies the selfie defaults: cnn, upsample 1, one jitter
func (r *SelfieEmbedRequest) DetectionOptions() services.DetectionOptions {
	opts := services.DetectionOptions{
		DetectionModel: r.DetectionModel,
		Upsample:       1,
		NumJitters:     1,
	}
	if opts.DetectionModel == "" {
		opts.DetectionModel = "cnn"
	}
	if r.Upsample != nil {
		opts.Upsample = *r.Upsample
	}
	if r.NumJitters != nil {
		opts.NumJitters = *r.NumJitters
	}
	return opts
}
