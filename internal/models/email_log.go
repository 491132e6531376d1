package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records a registration decision email sent by the worker.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID uuid.UUID  `json:"registration_id"`
	Recipient      string     `json:"recipient"`
	Subject        string     `json:"subject"`
	Status         string     `json:"status"` // sent, failed
	Error          string     `json:"error,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
