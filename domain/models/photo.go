package models

import (
	"time"

	"github.com/google/uuid"
)

type PhotoStatus string

const (
	PhotoStatusPending  PhotoStatus = "pending"
	PhotoStatusApproved PhotoStatus = "approved"
	PhotoStatusRejected PhotoStatus = "rejected"
)

type Photo struct {
	ID      uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EventID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Uploader (identity is issued by the external auth provider)
	UploaderID   string `gorm:"not null;index"`
	UploaderName string
	Description  string

	// Object storage location
	StoragePath string `gorm:"not null"`
	Bucket      string `gorm:"not null"`
	PublicURL   string

	// Moderation
	Status          PhotoStatus `gorm:"default:'pending';index"`
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	FaceEmbeddings []FaceEmbedding `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE"`
}

func (Photo) TableName() string {
	return "photos"
}

// HasEmbeddings reports whether at least one face embedding is attached
func (p *Photo) HasEmbeddings() bool {
	return len(p.FaceEmbeddings) > 0
}

// IsApproved reports whether the photo is eligible for matching
func (p *Photo) IsApproved() bool {
	return p.Status == PhotoStatusApproved
}
