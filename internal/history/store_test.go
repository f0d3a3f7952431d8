package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminebeauty/booking-assistant/internal/calendar"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func sampleReservation() calendar.Reservation {
	start := time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)
	return calendar.Reservation{
		Service:   "染髮",
		Start:     start,
		End:       start.Add(2 * time.Hour),
		Status:    calendar.StatusConfirmed,
		CreatedAt: start,
		EventID:   "evt-1",
		Link:      "https://calendar.example/evt-1",
	}
}

func TestAppend(t *testing.T) {
	store, mock := newStore(t)
	res := sampleReservation()

	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(sqlmock.AnyArg(), "u1", res.Service, res.Start, res.End, res.Status, res.EventID, res.Link, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Append(context.Background(), "u1", res)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRequiresUserID(t *testing.T) {
	store, _ := newStore(t)

	err := store.Append(context.Background(), "", sampleReservation())

	assert.Error(t, err)
}

func TestAppendWrapsDatabaseError(t *testing.T) {
	store, mock := newStore(t)

	dbErr := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnError(dbErr)

	err := store.Append(context.Background(), "u1", sampleReservation())

	assert.ErrorIs(t, err, dbErr)
}

func TestListByUser(t *testing.T) {
	store, mock := newStore(t)
	res := sampleReservation()
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_id", "service", "start_at", "end_at", "status", "event_id", "link", "created_at"}).
		AddRow(id, "u1", res.Service, res.Start, res.End, res.Status, res.EventID, res.Link, res.CreatedAt)
	mock.ExpectQuery(`FROM bookings`).
		WithArgs("u1", 20).
		WillReturnRows(rows)

	entries, err := store.ListByUser(context.Background(), "u1", 0)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "染髮", entries[0].Service)
	assert.Equal(t, res.Start, entries[0].StartAt)
}

func TestListByUserEmpty(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(`FROM bookings`).
		WithArgs("u1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "service", "start_at", "end_at", "status", "event_id", "link", "created_at"}))

	entries, err := store.ListByUser(context.Background(), "u1", 5)

	require.NoError(t, err)
	assert.Empty(t, entries)
}
