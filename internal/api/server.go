// Package api exposes the portal over HTTP/JSON: day sheets, booking
// submission, attendance history and exception moderation.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"staffroom/internal/models"
	"staffroom/internal/service"
	"staffroom/internal/slots"
)

// Bookings is the booking surface the server exposes.
type Bookings interface {
	DaySheet(ctx context.Context, roomID int64, day, now time.Time) ([]slots.ClassifiedSlot, error)
	Submit(ctx context.Context, req service.SubmitRequest) (*models.Booking, error)
	UserBookings(ctx context.Context, userID int64) ([]models.Booking, error)
	Cancel(ctx context.Context, reference string, userID int64) error
}

// Attendance is the attendance surface the server exposes.
type Attendance interface {
	History(ctx context.Context, userID int64) ([]service.HistoryRow, error)
	ExportCSV(ctx context.Context, w io.Writer, userID int64) error
	ExportXLSX(ctx context.Context, w io.Writer, userID int64) error
	Exceptions(ctx context.Context, userID int64) ([]models.ExceptionRequest, error)
	FileException(ctx context.Context, req *models.ExceptionRequest) error
	DecideException(ctx context.Context, id int64, approve bool) error
}

// Rooms lists bookable rooms.
type Rooms interface {
	ListActiveRooms(ctx context.Context) ([]models.MeetingRoom, error)
}

// HTTPServer serves the portal API.
type HTTPServer struct {
	bookings   Bookings
	attendance Attendance
	rooms      Rooms
	apiKey     string
	limiter    *rate.Limiter
	logger     zerolog.Logger
	now        func() time.Time
}

// NewHTTPServer wires the API server. rateLimit <= 0 disables rate limiting;
// an empty apiKey disables auth (local development).
func NewHTTPServer(bookings Bookings, attendance Attendance, rooms Rooms, apiKey string, rateLimit float64, rateBurst int, logger zerolog.Logger) *HTTPServer {
	var limiter *rate.Limiter
	if rateLimit > 0 {
		if rateBurst <= 0 {
			rateBurst = int(rateLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateBurst)
	}
	return &HTTPServer{
		bookings:   bookings,
		attendance: attendance,
		rooms:      rooms,
		apiKey:     apiKey,
		limiter:    limiter,
		logger:     logger,
		now:        time.Now,
	}
}

// Handler builds the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rooms", s.guard(s.handleRooms))
	mux.HandleFunc("/api/slots", s.guard(s.handleSlots))
	mux.HandleFunc("/api/bookings", s.guard(s.handleBookings))
	mux.HandleFunc("/api/bookings/cancel", s.guard(s.handleCancelBooking))
	mux.HandleFunc("/api/attendance", s.guard(s.handleAttendance))
	mux.HandleFunc("/api/attendance/export", s.guard(s.handleAttendanceExport))
	mux.HandleFunc("/api/exceptions", s.guard(s.handleExceptions))
	mux.HandleFunc("/api/exceptions/decision", s.guard(s.handleExceptionDecision))
	return mux
}

// ListenAndServe runs the API server until ctx is canceled.
func (s *HTTPServer) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// guard applies the API key check and rate limit ahead of each handler.
func (s *HTTPServer) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
