package models

import (
	"time"

	"github.com/google/uuid"
)

// BlogTag classifies a blog post.
type BlogTag string

const (
	TagTechTrends   BlogTag = "Tech Trends"
	TagTutorials    BlogTag = "Tutorials"
	TagCareerAdvice BlogTag = "Career Advice"
	TagCommunity    BlogTag = "Community"
)

// Valid reports whether t is a known blog tag.
func (t BlogTag) Valid() bool {
	switch t {
	case TagTechTrends, TagTutorials, TagCareerAdvice, TagCommunity:
		return true
	}
	return false
}

// Blog is an association blog post.
type Blog struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	AuthorName  string     `json:"author_name"`
	AuthorRole  string     `json:"author_role"`
	ImageURL    string     `json:"image_url"`
	ImageKey    string     `json:"image_key,omitempty"`
	Tag         BlogTag    `json:"tag"`
	Featured    bool       `json:"featured"`
	Published   bool       `json:"published"`
	Views       int        `json:"views"`
	ReadTime    string     `json:"read_time"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
