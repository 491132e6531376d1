package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// EventCategory classifies an event.
type EventCategory string

const (
	CategoryCompetition EventCategory = "Competition"
	CategoryWorkshop    EventCategory = "Workshop"
	CategoryNetworking  EventCategory = "Networking"
	CategorySeminar     EventCategory = "Seminar"
)

// Valid reports whether c is a known event category.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryCompetition, CategoryWorkshop, CategoryNetworking, CategorySeminar:
		return true
	}
	return false
}

// Event represents an association event with bounded capacity.
// Attendees is a denormalized cache of approved registrant user IDs; the
// registration ledger is the source of truth and the cache is rebuildable
// from it at any time.
type Event struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Date        time.Time     `json:"date"`
	Time        string        `json:"time"`
	Venue       string        `json:"venue"`
	Capacity    int           `json:"capacity"`
	ImageURL    string        `json:"image_url"`
	Category    EventCategory `json:"category"`
	Status      EventStatus   `json:"status"`
	Attendees   []uuid.UUID   `json:"attendees"`
	CreatedBy   *uuid.UUID    `json:"created_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
