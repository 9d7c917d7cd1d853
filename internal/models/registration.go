package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration statuses. A registration starts pending and terminates as
// either confirmed or cancelled, never both.
const (
	RegistrationStatusPending   = "pending"
	RegistrationStatusConfirmed = "confirmed"
	RegistrationStatusCancelled = "cancelled"
)

// Registration links a user to a webinar. Meet link and calendar event id are
// populated by the confirmation routine; reminder_sent flips to true exactly
// once when the daily reminder sweep processes the registration.
type Registration struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	WebinarID       uuid.UUID  `json:"webinar_id"`
	PaymentID       *uuid.UUID `json:"payment_id,omitempty"`
	Status          string     `json:"status"`
	MeetLink        string     `json:"meet_link,omitempty"`
	CalendarEventID string     `json:"calendar_event_id,omitempty"`
	ReminderSent    bool       `json:"reminder_sent"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RegistrationDetails is a registration joined with its user and webinar.
type RegistrationDetails struct {
	Registration
	User    User    `json:"user"`
	Webinar Webinar `json:"webinar"`
}
