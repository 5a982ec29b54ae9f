package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"staffroom/internal/cache"
	"staffroom/internal/db"
	"staffroom/internal/events"
	"staffroom/internal/metrics"
	"staffroom/internal/models"
	"staffroom/internal/slots"
)

var (
	// ErrTitleRequired is returned when a submission has no meeting title.
	ErrTitleRequired = errors.New("service: meeting title is required")

	// ErrUnknownSlot is returned when a picked slot does not exist in the
	// day's grid.
	ErrUnknownSlot = errors.New("service: picked slot is not in the day grid")

	// ErrBookingNotFound is returned when a cancel targets a reference with
	// no active booking behind it.
	ErrBookingNotFound = errors.New("service: no active booking with that reference")

	// ErrNotBookingOwner is returned when a user tries to cancel someone
	// else's booking.
	ErrNotBookingOwner = errors.New("service: booking belongs to another user")
)

// BookingStore is the persistence surface the booking service needs. The
// store owns the authoritative commit-time overlap check.
type BookingStore interface {
	GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error)
	ListActiveBookings(ctx context.Context, roomID int64, day time.Time) ([]models.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
}

// Schedule is the operating-hours configuration for slot generation.
type Schedule struct {
	Window       slots.Window
	SlotDuration time.Duration
	Policy       slots.Policy
}

// BookingService drives the scheduling engine with data from the store and
// pushes accepted reservations back through it.
type BookingService struct {
	store    BookingStore
	sheets   *cache.DaySheetCache
	bus      *events.Bus
	schedule Schedule
	logger   zerolog.Logger
}

// NewBookingService wires the service. Cache and bus may be nil.
func NewBookingService(store BookingStore, sheets *cache.DaySheetCache, bus *events.Bus, schedule Schedule, logger zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		sheets:   sheets,
		bus:      bus,
		schedule: schedule,
		logger:   logger,
	}
}

// DaySheet returns the classified slot grid for a room and day. The result
// is cached briefly; the cache is invalidated whenever a booking for that
// room lands.
func (s *BookingService) DaySheet(ctx context.Context, roomID int64, day, now time.Time) ([]slots.ClassifiedSlot, error) {
	var cached []slots.ClassifiedSlot
	if s.sheets.Get(ctx, roomID, day, &cached) {
		metrics.IncDaySheetCache("hit")
		return cached, nil
	}
	metrics.IncDaySheetCache("miss")

	sheet, err := s.computeDaySheet(ctx, roomID, day, now)
	if err != nil {
		return nil, err
	}

	s.sheets.Set(ctx, roomID, day, sheet)
	return sheet, nil
}

func (s *BookingService) computeDaySheet(ctx context.Context, roomID int64, day, now time.Time) ([]slots.ClassifiedSlot, error) {
	grid, err := slots.Generate(day, s.schedule.Window, s.schedule.SlotDuration)
	if err != nil {
		return nil, fmt.Errorf("generate grid: %w", err)
	}

	bookings, err := s.store.ListActiveBookings(ctx, roomID, day)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	return slots.Classify(grid, now, toReservations(bookings)), nil
}

// SubmitRequest is one user's booking submission: the picked slot start
// labels in pick order, plus the meeting metadata.
type SubmitRequest struct {
	RoomID     int64
	UserID     int64
	Day        time.Time
	SlotStarts []string // "HH:MM", pick order
	Title      string
	Notes      string
	Now        time.Time
}

// Submit re-validates the user's selection against fresh reservation data,
// reduces it to a candidate interval and persists it. The engine's check is
// advisory: the store re-runs the overlap check at commit time and its
// db.ErrBookingConflict verdict is authoritative, surfaced to the user as a
// retryable conflict.
func (s *BookingService) Submit(ctx context.Context, req SubmitRequest) (*models.Booking, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	room, err := s.store.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}

	sheet, err := s.computeDaySheet(ctx, req.RoomID, req.Day, req.Now)
	if err != nil {
		return nil, err
	}

	selection, err := pickSlots(sheet, req.SlotStarts)
	if err != nil {
		return nil, err
	}

	candidate, err := slots.Reduce(selection, s.schedule.Policy)
	if err != nil {
		metrics.IncSelectionRejected(rejectionReason(err))
		return nil, err
	}

	booking := &models.Booking{
		ReferenceID: uuid.NewString(),
		RoomID:      req.RoomID,
		RoomName:    room.Name,
		UserID:      req.UserID,
		Title:       strings.TrimSpace(req.Title),
		Notes:       req.Notes,
		StartTime:   candidate.Start,
		EndTime:     candidate.End,
		Status:      models.BookingStatusConfirmed,
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, db.ErrBookingConflict) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	metrics.IncBookingCreated(booking.Status)
	s.logger.Info().
		Str("reference", booking.ReferenceID).
		Int64("room_id", booking.RoomID).
		Time("start", booking.StartTime).
		Time("end", booking.EndTime).
		Msg("booking created")

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:      events.TopicBookingCreated,
			RoomID:    booking.RoomID,
			UserID:    booking.UserID,
			Day:       req.Day,
			Reference: booking.ReferenceID,
		})
	}
	return booking, nil
}

// UserBookings returns a user's booking history, newest first.
func (s *BookingService) UserBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	return s.store.ListUserBookings(ctx, userID)
}

// Cancel releases a user's booking by reference. Only the booking's owner may
// cancel it; a booking that is already canceled or rejected no longer blocks
// its interval and reads as not found.
func (s *BookingService) Cancel(ctx context.Context, reference string, userID int64) error {
	booking, err := s.store.GetBookingByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("load booking: %w", err)
	}
	if !booking.IsActive() {
		return ErrBookingNotFound
	}
	if booking.UserID != userID {
		return ErrNotBookingOwner
	}

	if err := s.store.UpdateBookingStatus(ctx, booking.ID, models.BookingStatusCanceled); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	s.logger.Info().
		Str("reference", booking.ReferenceID).
		Int64("room_id", booking.RoomID).
		Msg("booking canceled")

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:      events.TopicBookingCanceled,
			RoomID:    booking.RoomID,
			UserID:    booking.UserID,
			Day:       booking.StartTime,
			Reference: booking.ReferenceID,
		})
	}
	return nil
}

// pickSlots resolves the user's picked start labels against the freshly
// classified sheet, preserving pick order. Stale UI state is not trusted: the
// slot's current status comes from the sheet, and Reduce re-checks it.
func pickSlots(sheet []slots.ClassifiedSlot, starts []string) ([]slots.ClassifiedSlot, error) {
	byStart := make(map[string]slots.ClassifiedSlot, len(sheet))
	for _, cs := range sheet {
		byStart[cs.Start.Format("15:04")] = cs
	}

	selection := make([]slots.ClassifiedSlot, 0, len(starts))
	for _, start := range starts {
		cs, ok := byStart[start]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, start)
		}
		selection = append(selection, cs)
	}
	return selection, nil
}

func toReservations(bookings []models.Booking) []slots.Reservation {
	reservations := make([]slots.Reservation, 0, len(bookings))
	for _, b := range bookings {
		reservations = append(reservations, slots.Reservation{
			ID:    b.ReferenceID,
			Start: b.StartTime,
			End:   b.EndTime,
		})
	}
	return reservations
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, slots.ErrEmptySelection):
		return "empty"
	case errors.Is(err, slots.ErrNonContiguousSelection):
		return "non_contiguous"
	default:
		return "unavailable"
	}
}
