package dto

import (
	"time"

	"github.com/google/uuid"
)

// SearchByFaceRequest is the body of a face search
type SearchByFaceRequest struct {
	Embedding []float32 `json:"embedding" validate:"required,min=1"`
	Threshold *float64  `json:"threshold" validate:"omitempty,gte=0"`
}

// FaceMatchResponse is one ranked search hit
type FaceMatchResponse struct {
	PhotoID     uuid.UUID `json:"photoId"`
	StoragePath string    `json:"storagePath"`
	PublicURL   string    `json:"publicUrl"`
	Distance    float64   `json:"distance"`
	Confidence  float64   `json:"confidence"`
	EventID     uuid.UUID `json:"eventId"`
}

// SelfieEmbedRequest carries an inline selfie and detector options
type SelfieEmbedRequest struct {
	ImageBase64    string `json:"imageBase64" validate:"required"`
	DetectionModel string `json:"detectionModel" validate:"omitempty,oneof=hog cnn"`
	Upsample       *int   `json:"upsample" validate:"omitempty,gte=0,lte=4"`
	NumJitters     *int   `json:"numJitters" validate:"omitempty,gte=0,lte=10"`
}

// SelfieEmbedResponse returns the query embedding for a selfie
type SelfieEmbedResponse struct {
	Embedding  []float32 `json:"embedding"`
	FacesFound int       `json:"facesFound"`
}

// BackfillResponse reports one backfill run
type BackfillResponse struct {
	Message   string `json:"message"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	NoFaces   int    `json:"noFaces"`
	Failed    int    `json:"failed"`
}

// RejectPhotoRequest is the body of a rejection
type RejectPhotoRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// PhotoResponse is the DTO for photo API responses
type PhotoResponse struct {
	ID              uuid.UUID  `json:"id"`
	EventID         uuid.UUID  `json:"eventId"`
	UploaderName    string     `json:"uploaderName"`
	Description     string     `json:"description"`
	StoragePath     string     `json:"storagePath"`
	Bucket          string     `json:"bucket"`
	PublicURL       string     `json:"publicUrl"`
	Status          string     `json:"status"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	FaceCount       int        `json:"faceCount"`
	CreatedAt       time.Time  `json:"createdAt"`
}
