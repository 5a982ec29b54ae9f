package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"staffroom/internal/db"
	"staffroom/internal/metrics"
	"staffroom/internal/service"
	"staffroom/internal/slots"
)

// RoomResponse represents a meeting room in API responses.
type RoomResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Capacity    int    `json:"capacity"`
}

// SlotResponse represents one classified slot of a day sheet.
type SlotResponse struct {
	Start  string `json:"start"` // "09:00"
	End    string `json:"end"`   // "09:30"
	Status string `json:"status"`
}

// DaySheetResponse is the response for GET /api/slots.
type DaySheetResponse struct {
	RoomID int64          `json:"room_id"`
	Date   string         `json:"date"`
	Slots  []SlotResponse `json:"slots"`
}

// CreateBookingRequest is the request body for POST /api/bookings. Slots is
// the list of picked slot start times in pick order.
type CreateBookingRequest struct {
	RoomID int64    `json:"room_id"`
	UserID int64    `json:"user_id"`
	Date   string   `json:"date"`  // YYYY-MM-DD
	Slots  []string `json:"slots"` // "HH:MM" starts
	Title  string   `json:"title"`
	Notes  string   `json:"notes,omitempty"`
}

// handleRooms returns the active meeting rooms.
// GET /api/rooms
func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rooms, err := s.rooms.ListActiveRooms(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list rooms failed")
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}

	resp := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, RoomResponse{
			ID:          room.ID,
			Name:        room.Name,
			Description: room.Description,
			Capacity:    room.Capacity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": resp})
}

// handleSlots returns the classified day sheet for a room.
// GET /api/slots?room_id=1&date=YYYY-MM-DD
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	roomID, err := strconv.ParseInt(r.URL.Query().Get("room_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}

	day, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sheet, err := s.bookings.DaySheet(r.Context(), roomID, day, s.now())
	if err != nil {
		if errors.Is(err, slots.ErrInvalidConfiguration) {
			writeError(w, http.StatusInternalServerError, "scheduling misconfigured")
			return
		}
		s.logger.Error().Err(err).Int64("room_id", roomID).Msg("day sheet failed")
		writeError(w, http.StatusInternalServerError, "failed to load slots")
		return
	}

	resp := DaySheetResponse{RoomID: roomID, Date: day.Format("2006-01-02")}
	for _, cs := range sheet {
		resp.Slots = append(resp.Slots, SlotResponse{
			Start:  cs.Start.Format("15:04"),
			End:    cs.End.Format("15:04"),
			Status: cs.Status.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBookings lists a user's booking history or submits a slot selection.
// GET  /api/bookings?user_id=42
// POST /api/bookings
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings")
	switch r.Method {
	case http.MethodGet:
		s.listUserBookings(w, r)
	case http.MethodPost:
		s.createBooking(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	bookings, err := s.bookings.UserBookings(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("list user bookings failed")
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	day, err := parseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.Submit(r.Context(), service.SubmitRequest{
		RoomID:     req.RoomID,
		UserID:     req.UserID,
		Day:        day,
		SlotStarts: req.Slots,
		Title:      req.Title,
		Notes:      req.Notes,
		Now:        s.now(),
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// CancelBookingRequest is the request body for POST /api/bookings/cancel.
type CancelBookingRequest struct {
	ReferenceID string `json:"reference_id"`
	UserID      int64  `json:"user_id"`
}

// handleCancelBooking releases a user's booking.
// POST /api/bookings/cancel
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_cancel")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CancelBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ReferenceID == "" {
		writeError(w, http.StatusBadRequest, "reference_id is required")
		return
	}

	if err := s.bookings.Cancel(r.Context(), req.ReferenceID, req.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "no active booking with that reference")
		case errors.Is(err, service.ErrNotBookingOwner):
			writeError(w, http.StatusForbidden, "only the booking owner can cancel it")
		default:
			s.logger.Error().Err(err).Str("reference", req.ReferenceID).Msg("cancel booking failed")
			writeError(w, http.StatusInternalServerError, "failed to cancel booking")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

// writeSubmitError maps engine and store failures onto HTTP statuses. A
// commit-time conflict is a retryable 409, never an internal fault.
func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slots.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, "please select at least one time slot")
	case errors.Is(err, service.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "please enter a meeting title")
	case errors.Is(err, service.ErrUnknownSlot):
		writeError(w, http.StatusBadRequest, "selected slot is outside office hours")
	case errors.Is(err, slots.ErrNonContiguousSelection):
		writeError(w, http.StatusBadRequest, "selected slots must be contiguous")
	case errors.Is(err, slots.ErrInvalidSelection):
		writeError(w, http.StatusConflict, "a selected slot is no longer available; refresh and try again")
	case errors.Is(err, db.ErrBookingConflict):
		writeError(w, http.StatusConflict, "the room was booked by someone else; pick another time")
	default:
		writeError(w, http.StatusInternalServerError, "failed to create booking")
	}
}

func parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("date is required")
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errors.New("invalid date format; expected YYYY-MM-DD")
	}
	return day, nil
}
