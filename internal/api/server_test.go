package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffroom/internal/db"
	"staffroom/internal/models"
	"staffroom/internal/service"
	"staffroom/internal/slots"
)

type stubBookings struct {
	sheet        []slots.ClassifiedSlot
	sheetErr     error
	booking      *models.Booking
	submitErr    error
	lastReq      service.SubmitRequest
	userBookings []models.Booking
	cancelErr    error
	canceledRef  string
	canceledBy   int64
}

func (s *stubBookings) DaySheet(ctx context.Context, roomID int64, day, now time.Time) ([]slots.ClassifiedSlot, error) {
	return s.sheet, s.sheetErr
}

func (s *stubBookings) Submit(ctx context.Context, req service.SubmitRequest) (*models.Booking, error) {
	s.lastReq = req
	return s.booking, s.submitErr
}

func (s *stubBookings) UserBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	return s.userBookings, nil
}

func (s *stubBookings) Cancel(ctx context.Context, reference string, userID int64) error {
	s.canceledRef = reference
	s.canceledBy = userID
	return s.cancelErr
}

type stubAttendance struct {
	rows       []service.HistoryRow
	exceptions []models.ExceptionRequest
	filed      *models.ExceptionRequest
	fileErr    error
	decidedID  int64
	approved   bool
	decideErr  error
}

func (s *stubAttendance) History(ctx context.Context, userID int64) ([]service.HistoryRow, error) {
	return s.rows, nil
}

func (s *stubAttendance) ExportCSV(ctx context.Context, w io.Writer, userID int64) error {
	_, err := w.Write([]byte("Date,Clock In,Clock Out,Duration,Status\n"))
	return err
}

func (s *stubAttendance) ExportXLSX(ctx context.Context, w io.Writer, userID int64) error {
	_, err := w.Write([]byte("PK"))
	return err
}

func (s *stubAttendance) Exceptions(ctx context.Context, userID int64) ([]models.ExceptionRequest, error) {
	return s.exceptions, nil
}

func (s *stubAttendance) FileException(ctx context.Context, req *models.ExceptionRequest) error {
	if s.fileErr != nil {
		return s.fileErr
	}
	s.filed = req
	return nil
}

func (s *stubAttendance) DecideException(ctx context.Context, id int64, approve bool) error {
	s.decidedID = id
	s.approved = approve
	return s.decideErr
}

type stubRooms struct {
	rooms []models.MeetingRoom
}

func (s *stubRooms) ListActiveRooms(ctx context.Context) ([]models.MeetingRoom, error) {
	return s.rooms, nil
}

func newTestServer(bookings *stubBookings, attendance *stubAttendance, rooms *stubRooms, apiKey string) *HTTPServer {
	if bookings == nil {
		bookings = &stubBookings{}
	}
	if attendance == nil {
		attendance = &stubAttendance{}
	}
	if rooms == nil {
		rooms = &stubRooms{}
	}
	srv := NewHTTPServer(bookings, attendance, rooms, apiKey, 0, 0, zerolog.New(io.Discard))
	srv.now = func() time.Time {
		return time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	}
	return srv
}

func doRequest(t *testing.T, srv *HTTPServer, method, target, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyRequired(t *testing.T) {
	srv := newTestServer(nil, nil, nil, "secret")

	rec := doRequest(t, srv, http.MethodGet, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/rooms", "secret", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	srv := NewHTTPServer(&stubBookings{}, &stubAttendance{}, &stubRooms{}, "", 1, 1, zerolog.New(io.Discard))

	first := doRequest(t, srv, http.MethodGet, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, srv, http.MethodGet, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestListRooms(t *testing.T) {
	rooms := &stubRooms{rooms: []models.MeetingRoom{
		{ID: 1, Name: "Conference A", Capacity: 8},
		{ID: 2, Name: "Huddle", Capacity: 3},
	}}
	srv := newTestServer(nil, nil, rooms, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rooms []RoomResponse `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, "Conference A", resp.Rooms[0].Name)
}

func TestGetSlots(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	grid, err := slots.Generate(day, slots.Window{Start: "09:00", End: "10:00"}, 30*time.Minute)
	require.NoError(t, err)

	bookings := &stubBookings{sheet: []slots.ClassifiedSlot{
		{Slot: grid[0], Status: slots.StatusAvailable},
		{Slot: grid[1], Status: slots.StatusBooked, BlockedBy: "ref"},
	}}
	srv := newTestServer(bookings, nil, nil, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/slots?room_id=1&date=2026-01-15", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DaySheetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.RoomID)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "09:00", resp.Slots[0].Start)
	assert.Equal(t, "available", resp.Slots[0].Status)
	assert.Equal(t, "booked", resp.Slots[1].Status)
}

func TestGetSlots_MissingParams(t *testing.T) {
	srv := newTestServer(nil, nil, nil, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/slots?date=2026-01-15", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/slots?room_id=1&date=15.01.2026", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking(t *testing.T) {
	bookings := &stubBookings{booking: &models.Booking{
		ReferenceID: "abc",
		RoomID:      1,
		Status:      models.BookingStatusConfirmed,
	}}
	srv := newTestServer(bookings, nil, nil, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/bookings", "", CreateBookingRequest{
		RoomID: 1,
		UserID: 7,
		Date:   "2026-01-15",
		Slots:  []string{"09:00", "09:30"},
		Title:  "Sprint review",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, []string{"09:00", "09:30"}, bookings.lastReq.SlotStarts)
	assert.Equal(t, "Sprint review", bookings.lastReq.Title)
	assert.False(t, bookings.lastReq.Now.IsZero())
}

func TestCreateBooking_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty selection", slots.ErrEmptySelection, http.StatusBadRequest},
		{"missing title", service.ErrTitleRequired, http.StatusBadRequest},
		{"unknown slot", service.ErrUnknownSlot, http.StatusBadRequest},
		{"non-contiguous", slots.ErrNonContiguousSelection, http.StatusBadRequest},
		{"stale slot", slots.ErrInvalidSelection, http.StatusConflict},
		{"commit conflict", db.ErrBookingConflict, http.StatusConflict},
		{"storage failure", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&stubBookings{submitErr: tc.err}, nil, nil, "")
			rec := doRequest(t, srv, http.MethodPost, "/api/bookings", "", CreateBookingRequest{
				RoomID: 1,
				Date:   "2026-01-15",
				Slots:  []string{"09:00"},
				Title:  "Standup",
			})
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateBooking_RejectsUnknownFields(t *testing.T) {
	srv := newTestServer(nil, nil, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/api/bookings",
		strings.NewReader(`{"room_id":1,"date":"2026-01-15","slots":["09:00"],"title":"x","bogus":true}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUserBookingsEndpoint(t *testing.T) {
	bookings := &stubBookings{userBookings: []models.Booking{
		{ReferenceID: "abc", RoomID: 1, UserID: 7, Title: "Sprint review"},
	}}
	srv := newTestServer(bookings, nil, nil, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/bookings?user_id=7", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "abc", resp.Bookings[0].ReferenceID)

	rec = doRequest(t, srv, http.MethodGet, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBooking(t *testing.T) {
	bookings := &stubBookings{}
	srv := newTestServer(bookings, nil, nil, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/bookings/cancel", "", CancelBookingRequest{
		ReferenceID: "abc",
		UserID:      7,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", bookings.canceledRef)
	assert.Equal(t, int64(7), bookings.canceledBy)
}

func TestCancelBooking_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown reference", service.ErrBookingNotFound, http.StatusNotFound},
		{"not the owner", service.ErrNotBookingOwner, http.StatusForbidden},
		{"storage failure", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&stubBookings{cancelErr: tc.err}, nil, nil, "")
			rec := doRequest(t, srv, http.MethodPost, "/api/bookings/cancel", "", CancelBookingRequest{
				ReferenceID: "abc",
				UserID:      7,
			})
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCancelBooking_MissingReference(t *testing.T) {
	srv := newTestServer(nil, nil, nil, "")
	rec := doRequest(t, srv, http.MethodPost, "/api/bookings/cancel", "", CancelBookingRequest{UserID: 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHistory(t *testing.T) {
	attendance := &stubAttendance{rows: []service.HistoryRow{
		{Record: models.AttendanceRecord{ID: 1, UserID: 42}, Duration: "7h 30m"},
	}}
	srv := newTestServer(nil, attendance, nil, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/attendance?user_id=42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Attendances []service.HistoryRow `json:"attendances"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Attendances, 1)
	assert.Equal(t, "7h 30m", resp.Attendances[0].Duration)
}

func TestAttendanceHistory_MissingUserID(t *testing.T) {
	srv := newTestServer(nil, nil, nil, "")
	rec := doRequest(t, srv, http.MethodGet, "/api/attendance", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceExport(t *testing.T) {
	srv := newTestServer(nil, &stubAttendance{}, nil, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/attendance/export?user_id=42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_history.csv")

	rec = doRequest(t, srv, http.MethodGet, "/api/attendance/export?user_id=42&format=xlsx", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_history.xlsx")

	rec = doRequest(t, srv, http.MethodGet, "/api/attendance/export?user_id=42&format=pdf", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileExceptionRequest(t *testing.T) {
	attendance := &stubAttendance{}
	srv := newTestServer(nil, attendance, nil, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/exceptions", "", ExceptionRequestBody{
		UserID: 42,
		Type:   "leave",
		Reason: "doctor appointment",
		Date:   "2026-01-16",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, attendance.filed)
	assert.Equal(t, "leave", attendance.filed.Type)
	assert.Equal(t, int64(42), attendance.filed.UserID)
}

func TestDecideExceptionRequest(t *testing.T) {
	attendance := &stubAttendance{}
	srv := newTestServer(nil, attendance, nil, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/exceptions/decision", "", ExceptionDecisionRequest{
		RequestID: 5,
		Approve:   true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), attendance.decidedID)
	assert.True(t, attendance.approved)
}

func TestDecideExceptionRequest_NoPendingRequest(t *testing.T) {
	attendance := &stubAttendance{decideErr: sql.ErrNoRows}
	srv := newTestServer(nil, attendance, nil, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/exceptions/decision", "", ExceptionDecisionRequest{
		RequestID: 99,
		Approve:   false,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDecideExceptionRequest_StoreFailure(t *testing.T) {
	// A db outage is not a missing request.
	attendance := &stubAttendance{decideErr: io.ErrUnexpectedEOF}
	srv := newTestServer(nil, attendance, nil, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/exceptions/decision", "", ExceptionDecisionRequest{
		RequestID: 99,
		Approve:   true,
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFileExceptionRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing type", service.ErrExceptionTypeRequired, http.StatusBadRequest},
		{"storage failure", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(nil, &stubAttendance{fileErr: tc.err}, nil, "")
			rec := doRequest(t, srv, http.MethodPost, "/api/exceptions", "", ExceptionRequestBody{
				UserID: 42,
				Date:   "2026-01-16",
			})
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil, nil, nil, "")

	rec := doRequest(t, srv, http.MethodDelete, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
