// Package history persists confirmed reservations to Postgres so staff
// can look up a customer's past bookings even after the profile's
// lastBooking snapshot is overwritten.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luminebeauty/booking-assistant/internal/calendar"
)

// Entry is one row of booking history.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Service   string    `json:"service"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Status    string    `json:"status"`
	EventID   string    `json:"event_id"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store provides persistence helpers for booking history.
type Store struct {
	db *sql.DB
}

// NewStore creates a store backed by a database handle.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("history: db handle required")
	}
	return &Store{db: db}
}

const insertSQL = `
INSERT INTO bookings (id, user_id, service, start_at, end_at, status, event_id, link, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Append records a confirmed reservation.
func (s *Store) Append(ctx context.Context, userID string, r calendar.Reservation) error {
	if userID == "" {
		return fmt.Errorf("history: user id required")
	}
	_, err := s.db.ExecContext(ctx, insertSQL,
		uuid.New(),
		userID,
		r.Service,
		r.Start,
		r.End,
		r.Status,
		r.EventID,
		r.Link,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("history: insert booking: %w", err)
	}
	return nil
}

const listSQL = `
SELECT id, user_id, service, start_at, end_at, status, event_id, link, created_at
FROM bookings
WHERE user_id = $1
ORDER BY start_at DESC
LIMIT $2`

// ListByUser returns a user's bookings, most recent start first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, listSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Service, &e.StartAt, &e.EndAt, &e.Status, &e.EventID, &e.Link, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan booking: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate bookings: %w", err)
	}
	return entries, nil
}
