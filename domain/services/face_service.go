package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Custom errors for face service
var (
	ErrInvalidEmbedding    = errors.New("embedding array is required")
	ErrNoFacesDetected     = errors.New("no faces found in image")
	ErrFaceServiceDisabled = errors.New("face embedding service is disabled")
	ErrImageRequired       = errors.New("imageBase64 is required")
)

// GeneratedEmbedding is one face returned by the embedding service
type GeneratedEmbedding struct {
	Vector      []float32
	BoundingBox []float64
}

// DetectionOptions tunes the remote detector. Zero values use the service defaults.
type DetectionOptions struct {
	DetectionModel string
	Upsample       int
	NumJitters     int
}

// EscalatedDetection is the stricter detector setup used for the single
// retry when a first attempt finds no face
var EscalatedDetection = DetectionOptions{
	DetectionModel: "cnn",
	Upsample:       2,
	NumJitters:     1,
}

// EmbeddingGenerator turns images into face embeddings.
// An empty slice with a nil error means no face was found.
type EmbeddingGenerator interface {
	EmbedFromURL(ctx context.Context, imageURL string) ([]GeneratedEmbedding, error)
	EmbedFromImage(ctx context.Context, imageBase64 string, opts DetectionOptions) ([]GeneratedEmbedding, error)
}

// FaceMatch is one photo embedding that matched a query face
type FaceMatch struct {
	PhotoID     uuid.UUID
	EventID     uuid.UUID
	StoragePath string
	PublicURL   string
	Distance    float64
	Confidence  float64
}

// SelfieEmbedding is the query vector extracted from a selfie
type SelfieEmbedding struct {
	Embedding  []float32
	FacesFound int
}

// FaceService handles face search operations
type FaceService interface {
	// Search approved photos for faces close to the given embedding.
	// A nil threshold uses the default for the embedding family.
	Search(ctx context.Context, embedding []float32, threshold *float64) ([]FaceMatch, error)

	// Extract a query embedding from an inline selfie image
	SelfieEmbedding(ctx context.Context, imageBase64 string, opts DetectionOptions) (*SelfieEmbedding, error)
}
