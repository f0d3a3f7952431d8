package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luminebeauty/booking-assistant/internal/history"
	"github.com/luminebeauty/booking-assistant/internal/profile"
	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

// BookingLister is the read side of the booking history store.
type BookingLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]history.Entry, error)
}

// AdminHandler serves staff-facing profile and booking lookups.
type AdminHandler struct {
	profiles profile.Store
	bookings BookingLister
	logger   *logging.Logger
}

func NewAdminHandler(profiles profile.Store, bookings BookingLister, logger *logging.Logger) *AdminHandler {
	if profiles == nil {
		panic("httpapi: profile store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{profiles: profiles, bookings: bookings, logger: logger}
}

// GetProfile returns a user's profile record.
func (h *AdminHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("admin profile lookup failed", "user_id", userID, "error", err)
		http.Error(w, "profile lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// ListBookings returns a user's booking history, most recent first.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}
	if h.bookings == nil {
		http.Error(w, "booking history not configured", http.StatusNotImplemented)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.bookings.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("admin booking lookup failed", "user_id", userID, "error", err)
		http.Error(w, "booking lookup failed", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"bookings": entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
