package models

import (
	"time"

	"github.com/google/uuid"
)

// GalleryCategory classifies a gallery image.
type GalleryCategory string

const (
	GalleryHackathons GalleryCategory = "Hackathons"
	GalleryWorkshops  GalleryCategory = "Workshops"
	GalleryEvents     GalleryCategory = "Events"
	GalleryTeam       GalleryCategory = "Team"
)

// Valid reports whether c is a known gallery category.
func (c GalleryCategory) Valid() bool {
	switch c {
	case GalleryHackathons, GalleryWorkshops, GalleryEvents, GalleryTeam:
		return true
	}
	return false
}

// GalleryImage is an image in the association media gallery, stored in S3.
type GalleryImage struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	ImageKey    string          `json:"image_key"`
	Category    GalleryCategory `json:"category"`
	UploadedBy  uuid.UUID       `json:"uploaded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
