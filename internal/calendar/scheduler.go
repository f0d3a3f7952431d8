package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/luminebeauty/booking-assistant/internal/observability/metrics"
	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

var schedulerTracer = otel.Tracer("salonbot.internal.calendar")

// Scheduler is the single source of truth for slot availability and the only
// component that writes reservations.
type Scheduler struct {
	api     EventsAPI
	window  Window
	loc     *time.Location
	logger  *logging.Logger
	metrics *metrics.BotMetrics
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMetrics attaches booking metrics to the scheduler.
func WithMetrics(m *metrics.BotMetrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// NewScheduler builds a scheduler over the given calendar transport.
func NewScheduler(api EventsAPI, window Window, loc *time.Location, logger *logging.Logger, opts ...SchedulerOption) *Scheduler {
	if api == nil {
		panic("calendar: events API required")
	}
	if window.SlotMinutes <= 0 {
		window = DefaultWindow()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Scheduler{api: api, window: window, loc: loc, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the scheduler's local timezone.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// SlotTime materializes a local timestamp for a date and an "HH:MM" slot.
func (s *Scheduler) SlotTime(date time.Time, hhmm string) (time.Time, error) {
	tod, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: bad slot time %q: %w", hhmm, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, s.loc), nil
}

// ListFreeSlots returns every unbooked slot start ("HH:MM", chronological)
// within the business window on the given date. A transport fault degrades to
// an empty result: availability queries must never break the conversation,
// so the fault is only logged for operators.
func (s *Scheduler) ListFreeSlots(ctx context.Context, date time.Time) []string {
	open := time.Date(date.Year(), date.Month(), date.Day(), s.window.OpenHour, 0, 0, 0, s.loc)
	close := time.Date(date.Year(), date.Month(), date.Day(), s.window.CloseHour, 0, 0, 0, s.loc)

	events, err := s.api.ListEvents(ctx, open, close)
	if err != nil {
		s.logger.Error("availability query failed, degrading to empty slot list",
			"date", date.Format("2006-01-02"),
			"error", err,
		)
		s.metrics.ObserveSlotQueryFailure()
		return []string{}
	}

	booked := make(map[string]struct{}, len(events))
	for _, ev := range events {
		booked[ev.Start.In(s.loc).Format("15:04")] = struct{}{}
	}

	var free []string
	step := time.Duration(s.window.SlotMinutes) * time.Minute
	for cur := open; cur.Before(close); cur = cur.Add(step) {
		hhmm := cur.Format("15:04")
		if _, taken := booked[hhmm]; !taken {
			free = append(free, hhmm)
		}
	}
	return free
}

// IsSlotFree reports whether the given "HH:MM" start is currently free on date.
func (s *Scheduler) IsSlotFree(ctx context.Context, date time.Time, hhmm string) bool {
	for _, slot := range s.ListFreeSlots(ctx, date) {
		if slot == hhmm {
			return true
		}
	}
	return false
}

// Reserve creates a calendar event for [start, end) and verifies it exists by
// re-reading it. The upstream API can acknowledge a write that has not
// propagated, so the read-back is the authoritative confirmation; anything
// short of it fails with ReservationFailedError and nothing is treated as
// booked. Services running past the business window are still written as-is.
func (s *Scheduler) Reserve(ctx context.Context, start, end time.Time, cust Customer, service string) (*Reservation, error) {
	ctx, span := schedulerTracer.Start(ctx, "calendar.reserve",
		trace.WithAttributes(
			attribute.String("salonbot.service", service),
			attribute.String("salonbot.start", start.Format(time.RFC3339)),
		),
	)
	defer span.End()

	summary := fmt.Sprintf("%s - %s", cust.Name, service)
	description := fmt.Sprintf("客戶：%s\n電話：%s\n服務：%s", cust.Name, cust.Phone, service)

	id, link, err := s.api.InsertEvent(ctx, start, end, summary, description)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveReservation("failed")
		s.logger.Error("reservation write failed",
			"service", service, "start", start, "error", err)
		return nil, &ReservationFailedError{Reason: "calendar write failed", Err: err}
	}
	if id == "" {
		s.metrics.ObserveReservation("failed")
		s.logger.Error("reservation write returned no event id",
			"service", service, "start", start)
		return nil, &ReservationFailedError{Reason: "calendar write returned no event id"}
	}

	readBack, err := s.api.GetEvent(ctx, id)
	if err != nil || readBack == nil {
		if err == nil {
			err = ErrEventNotFound
		}
		span.RecordError(err)
		s.metrics.ObserveReservation("failed")
		s.logger.Error("reservation verification failed",
			"service", service, "start", start, "event_id", id, "error", err)
		reason := "verification read-back failed"
		if errors.Is(err, ErrEventNotFound) {
			reason = "event missing after write"
		}
		return nil, &ReservationFailedError{Reason: reason, Err: err}
	}

	s.metrics.ObserveReservation(StatusConfirmed)
	s.logger.Info("reservation confirmed",
		"service", service,
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339),
		"event_id", id,
	)

	return &Reservation{
		Service:   service,
		Start:     start,
		End:       end,
		Status:    StatusConfirmed,
		CreatedAt: time.Now().UTC(),
		EventID:   id,
		Link:      link,
	}, nil
}
