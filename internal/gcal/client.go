// Package gcal wraps Google Calendar event provisioning with Meet links.
package gcal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

const eventTimeZone = "Europe/Paris"

// Config holds OAuth2 credentials with an offline refresh token.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
	CalendarID   string
}

// Client creates, updates and deletes calendar events carrying a Meet link.
type Client struct {
	svc        *calendar.Service
	calendarID string
	logger     *zap.Logger
}

// NewClient builds a calendar service from the refresh token.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{svc: svc, calendarID: calendarID, logger: logger}, nil
}

// EventInput describes the webinar slot to provision.
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// CreateEvent inserts a calendar event with an auto-generated Meet link and
// the attendee invited. Returns the event id and the video entry point.
func (c *Client) CreateEvent(ctx context.Context, in EventInput, attendeeEmail string) (eventID, meetLink string, err error) {
	event := &calendar.Event{
		Summary:     in.Title,
		Description: in.Description,
		Start:       &calendar.EventDateTime{DateTime: in.Start.Format(time.RFC3339), TimeZone: eventTimeZone},
		End:         &calendar.EventDateTime{DateTime: in.End.Format(time.RFC3339), TimeZone: eventTimeZone},
		Attendees:   []*calendar.EventAttendee{{Email: attendeeEmail}},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             fmt.Sprintf("meet-%d", time.Now().UnixNano()),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	created, err := c.svc.Events.Insert(c.calendarID, event).
		Context(ctx).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Do()
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindUpstream, "create calendar event", err)
	}
	meetLink = videoEntryPoint(created)
	if created.Id == "" || meetLink == "" {
		return "", "", apperr.New(apperr.KindUpstream, "calendar event created without meet link")
	}
	c.logger.Info("calendar event created",
		zap.String("event_id", created.Id),
		zap.String("attendee", attendeeEmail))
	return created.Id, meetLink, nil
}

// UpdateEvent patches an existing event (nil/zero fields are left untouched).
func (c *Client) UpdateEvent(ctx context.Context, eventID string, in EventInput) error {
	patch := &calendar.Event{}
	if in.Title != "" {
		patch.Summary = in.Title
	}
	if in.Description != "" {
		patch.Description = in.Description
	}
	if !in.Start.IsZero() {
		patch.Start = &calendar.EventDateTime{DateTime: in.Start.Format(time.RFC3339), TimeZone: eventTimeZone}
	}
	if !in.End.IsZero() {
		patch.End = &calendar.EventDateTime{DateTime: in.End.Format(time.RFC3339), TimeZone: eventTimeZone}
	}
	_, err := c.svc.Events.Patch(c.calendarID, eventID, patch).
		Context(ctx).
		SendUpdates("all").
		Do()
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "update calendar event", err)
	}
	return nil
}

// DeleteEvent removes an event and notifies attendees.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.svc.Events.Delete(c.calendarID, eventID).
		Context(ctx).
		SendUpdates("all").
		Do()
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "delete calendar event", err)
	}
	c.logger.Info("calendar event deleted", zap.String("event_id", eventID))
	return nil
}

func videoEntryPoint(ev *calendar.Event) string {
	if ev.ConferenceData == nil {
		return ""
	}
	for _, ep := range ev.ConferenceData.EntryPoints {
		if ep.EntryPointType == "video" {
			return ep.Uri
		}
	}
	return ""
}
