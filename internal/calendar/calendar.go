package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Event is a booked interval on the shared salon calendar.
type Event struct {
	ID    string
	Start time.Time
	End   time.Time
}

// ErrEventNotFound indicates a read-back for an event ID returned nothing.
var ErrEventNotFound = errors.New("calendar: event not found")

// EventsAPI is the narrow calendar transport the scheduler talks to.
// The production implementation is GoogleClient; tests inject fakes.
type EventsAPI interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, start, end time.Time, summary, description string) (id string, link string, err error)
	GetEvent(ctx context.Context, id string) (*Event, error)
}

// Customer identifies who a reservation is for on the calendar event.
type Customer struct {
	Name  string
	Phone string
}

// StatusConfirmed is the only status a reservation is created with.
const StatusConfirmed = "confirmed"

// Reservation is a confirmed booking, including the external calendar reference.
type Reservation struct {
	Service   string    `json:"service"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	EventID   string    `json:"event_id"`
	Link      string    `json:"link"`
}

// ReservationFailedError is returned when the calendar write or the
// post-write verification failed. The dialogue layer matches on it to keep
// the user's pending selection intact for a retry.
type ReservationFailedError struct {
	Reason string
	Err    error
}

func (e *ReservationFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar: reservation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("calendar: reservation failed (%s)", e.Reason)
}

func (e *ReservationFailedError) Unwrap() error {
	return e.Err
}

// IsReservationFailed reports whether err is a ReservationFailedError.
func IsReservationFailed(err error) bool {
	var rf *ReservationFailedError
	return errors.As(err, &rf)
}

// Window describes the daily interval slots are generated in.
type Window struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
}

// DefaultWindow is the salon's business window: 10:00-20:00, 30-minute slots.
func DefaultWindow() Window {
	return Window{OpenHour: 10, CloseHour: 20, SlotMinutes: 30}
}
