package models

import (
	"time"

	"github.com/google/uuid"
)

// Webinar lifecycle statuses.
const (
	WebinarStatusActive    = "active"
	WebinarStatusCancelled = "cancelled"
	WebinarStatusCompleted = "completed"
)

// Webinar is a scheduled session attendees register for. Price is in euros;
// zero means the webinar is free and registrations confirm without payment.
type Webinar struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Price           float64   `json:"price"`
	MaxParticipants int       `json:"max_participants"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WebinarStats summarises registration load for a webinar.
type WebinarStats struct {
	Registrations  int  `json:"registrations"`
	AvailableSpots int  `json:"available_spots"`
	IsFull         bool `json:"is_full"`
}
