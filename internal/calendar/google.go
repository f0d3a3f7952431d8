package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleClient implements EventsAPI against the Google Calendar v3 API using
// a service account that has been granted access to the shared salon calendar.
type GoogleClient struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

var _ EventsAPI = (*GoogleClient)(nil)

// NewGoogleClient builds a calendar client from a service-account key file.
func NewGoogleClient(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*GoogleClient, error) {
	if credentialsFile == "" {
		return nil, errors.New("calendar: credentials file is required")
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create service: %w", err)
	}

	return &GoogleClient{svc: svc, calendarID: calendarID, loc: loc}, nil
}

// ListEvents returns timed events within [from, to). All-day events carry no
// dateTime and are skipped; they do not occupy bookable slots.
func (c *GoogleClient) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	call := c.svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}

	events := make([]Event, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		var end time.Time
		if item.End != nil && item.End.DateTime != "" {
			end, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}
		events = append(events, Event{
			ID:    item.Id,
			Start: start.In(c.loc),
			End:   end.In(c.loc),
		})
	}
	return events, nil
}

// InsertEvent creates a calendar event and returns its ID and shareable link.
func (c *GoogleClient) InsertEvent(ctx context.Context, start, end time.Time, summary, description string) (string, string, error) {
	event := &gcal.Event{
		Summary:     summary,
		Description: description,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("calendar: insert event: %w", err)
	}
	return created.Id, created.HtmlLink, nil
}

// GetEvent reads a single event back by ID. Cancelled events count as not
// found: a write that the upstream immediately tombstoned is not a booking.
func (c *GoogleClient) GetEvent(ctx context.Context, id string) (*Event, error) {
	item, err := c.svc.Events.Get(c.calendarID, id).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("calendar: get event %s: %w", id, err)
	}
	if item.Status == "cancelled" {
		return nil, ErrEventNotFound
	}

	ev := &Event{ID: item.Id}
	if item.Start != nil && item.Start.DateTime != "" {
		if start, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
			ev.Start = start.In(c.loc)
		}
	}
	if item.End != nil && item.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			ev.End = end.In(c.loc)
		}
	}
	return ev, nil
}
