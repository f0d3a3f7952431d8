package profile

import (
	"errors"
	"time"

	"github.com/luminebeauty/booking-assistant/internal/calendar"
)

// State is where a user currently sits in the booking conversation.
type State string

const (
	StateNew             State = "NEW"
	StateCollectingName  State = "COLLECTING_NAME"
	StateCollectingPhone State = "COLLECTING_PHONE"
	StateAskService      State = "ASK_SERVICE"
	StateAskDate         State = "ASK_DATE"
	StateAskTime         State = "ASK_TIME"
	StateConfirming      State = "CONFIRMING"
	StateIdle            State = "IDLE"
)

// ErrPendingTimeWithoutDate guards the core draft invariant: a pending time
// may never exist without a pending date.
var ErrPendingTimeWithoutDate = errors.New("profile: pending time requires pending date")

// Profile is the durable per-user record. It is created lazily on a user's
// first message and mutated only by the dialogue engine.
type Profile struct {
	UserID           string                `dynamodbav:"userId" json:"user_id"`
	Name             string                `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Phone            string                `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	State            State                 `dynamodbav:"state" json:"state"`
	SelectedService  string                `dynamodbav:"selectedService,omitempty" json:"selected_service,omitempty"`
	PendingDate      string                `dynamodbav:"pendingDate,omitempty" json:"pending_date,omitempty"` // "2006-01-02"
	PendingTime      string                `dynamodbav:"pendingTime,omitempty" json:"pending_time,omitempty"` // "15:04"
	FavoriteServices []string              `dynamodbav:"favoriteServices,omitempty" json:"favorite_services,omitempty"`
	LastBooking      *calendar.Reservation `dynamodbav:"lastBooking,omitempty" json:"last_booking,omitempty"`
	LastInteraction  time.Time             `dynamodbav:"lastInteractionAt,omitempty" json:"last_interaction_at,omitempty"`
	CreatedAt        time.Time             `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt        time.Time             `dynamodbav:"updatedAt" json:"updated_at"`
}

// NewProfile returns the default record for a first-time user.
func NewProfile(userID string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:    userID,
		State:     StateNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPendingDate stages the date half of a booking draft.
func (p *Profile) SetPendingDate(date string) {
	p.PendingDate = date
}

// SetPendingTime stages the time half of a booking draft. It refuses to set
// a time when no date is staged, keeping invalid drafts unrepresentable.
func (p *Profile) SetPendingTime(hhmm string) error {
	if p.PendingDate == "" {
		return ErrPendingTimeWithoutDate
	}
	p.PendingTime = hhmm
	return nil
}

// ClearPending drops the in-progress booking draft.
func (p *Profile) ClearPending() {
	p.PendingDate = ""
	p.PendingTime = ""
	p.SelectedService = ""
}

// HasIdentity reports whether both name and phone have been collected.
func (p *Profile) HasIdentity() bool {
	return p.Name != "" && p.Phone != ""
}

// BookingActive reports whether the user is mid-way through a booking flow.
func (p *Profile) BookingActive() bool {
	switch p.State {
	case StateAskService, StateAskDate, StateAskTime, StateConfirming:
		return true
	}
	return false
}

// AddFavoriteService records a service the user has booked, once.
func (p *Profile) AddFavoriteService(service string) {
	for _, s := range p.FavoriteServices {
		if s == service {
			return
		}
	}
	p.FavoriteServices = append(p.FavoriteServices, service)
}
