package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackStatus is the triage state of a feedback message.
type FeedbackStatus string

const (
	FeedbackPending FeedbackStatus = "pending"
	FeedbackRead    FeedbackStatus = "read"
	FeedbackReplied FeedbackStatus = "replied"
)

// Valid reports whether s is a known feedback status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackPending, FeedbackRead, FeedbackReplied:
		return true
	}
	return false
}

// Feedback is a message submitted through the public contact form.
// UserID is set when the submitter was logged in.
type Feedback struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Subject    string         `json:"subject"`
	Message    string         `json:"message"`
	UserID     *uuid.UUID     `json:"user_id,omitempty"`
	Status     FeedbackStatus `json:"status"`
	AdminNotes string         `json:"admin_notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
