package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the review state of a registration.
// pending transitions once to approved or rejected; both are terminal.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Terminal reports whether the status admits no further review.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationApproved || s == RegistrationRejected
}

// Registration is a member's request to attend an event, unique per
// (user, event) pair.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	EventID      uuid.UUID          `json:"event_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	ReviewedAt   *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy   *uuid.UUID         `json:"reviewed_by,omitempty"`
	Notes        string             `json:"notes,omitempty"`
}

// RegistrationDetail joins a registration with member and event display fields.
type RegistrationDetail struct {
	Registration
	UserName   string    `json:"user_name,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	EventTitle string    `json:"event_title,omitempty"`
	EventDate  time.Time `json:"event_date,omitempty"`
}
