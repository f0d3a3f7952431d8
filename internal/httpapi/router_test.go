package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminebeauty/booking-assistant/internal/history"
	"github.com/luminebeauty/booking-assistant/internal/profile"
	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

const adminSecret = "admin-test-secret"

type stubBookings struct {
	entries []history.Entry
	err     error
}

func (s *stubBookings) ListByUser(_ context.Context, _ string, _ int) ([]history.Entry, error) {
	return s.entries, s.err
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "staff",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newTestRouter(t *testing.T, bookings BookingLister) (http.Handler, *profile.InMemoryStore) {
	t.Helper()
	store := profile.NewInMemoryStore()
	logger := logging.New("error")
	return NewRouter(&Config{
		Logger:          logger,
		AdminHandler:    NewAdminHandler(store, bookings, logger),
		AdminAuthSecret: adminSecret,
	}), store
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAdminRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/profiles/u1", nil))
	assert.Equal(t, 401, rec.Code)

	req := httptest.NewRequest("GET", "/admin/profiles/u1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, 401, rec.Code)
}

func TestAdminRejectsWrongSecret(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest("GET", "/admin/profiles/u1", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "other-secret"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
}

func TestAdminGetProfile(t *testing.T) {
	router, store := newTestRouter(t, nil)

	p, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	p.Name = "王小明"
	p.Phone = "0912345678"
	require.NoError(t, store.Update(context.Background(), p))

	req := httptest.NewRequest("GET", "/admin/profiles/u1", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, adminSecret))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var got profile.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "王小明", got.Name)
	assert.Equal(t, "0912345678", got.Phone)
}

func TestAdminListBookings(t *testing.T) {
	start := time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)
	bookings := &stubBookings{entries: []history.Entry{{
		UserID:  "u1",
		Service: "染髮",
		StartAt: start,
		EndAt:   start.Add(2 * time.Hour),
		Status:  "confirmed",
		EventID: "evt-1",
	}}}
	router, _ := newTestRouter(t, bookings)

	req := httptest.NewRequest("GET", "/admin/profiles/u1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, adminSecret))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var got struct {
		UserID   string          `json:"user_id"`
		Bookings []history.Entry `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "u1", got.UserID)
	require.Len(t, got.Bookings, 1)
	assert.Equal(t, "染髮", got.Bookings[0].Service)
}

func TestAdminListBookingsInvalidLimit(t *testing.T) {
	router, _ := newTestRouter(t, &stubBookings{})

	req := httptest.NewRequest("GET", "/admin/profiles/u1/bookings?limit=引", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, adminSecret))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}
