package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Embedding sources, recorded so regenerated rows can be told apart
const (
	EmbeddingSourceApproval = "face_service"
	EmbeddingSourceBackfill = "face_service_backfill"
	EmbeddingSourceSeed     = "test_seed"
)

type FaceEmbedding struct {
	ID      uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PhotoID uuid.UUID `gorm:"type:uuid;not null;index"`

	// No fixed dimension: legacy 128-d and current 512-d rows coexist
	Embedding pgvector.Vector `gorm:"type:vector;not null"`

	// Bounding box as reported by the detector, opaque to matching
	BoundingBox []float64 `gorm:"type:jsonb;serializer:json"`

	Source string `gorm:"not null;default:'face_service'"`

	CreatedAt time.Time
}

func (FaceEmbedding) TableName() string {
	return "face_embeddings"
}

// Vector returns the raw embedding values
func (f *FaceEmbedding) Vector() []float32 {
	return f.Embedding.Slice()
}

// Dimension returns the embedding length
func (f *FaceEmbedding) Dimension() int {
	return len(f.Embedding.Slice())
}
