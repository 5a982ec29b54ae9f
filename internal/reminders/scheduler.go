// Package reminders publishes a heads-up event shortly before each confirmed
// meeting starts. Consumers subscribe on the event bus; the scheduler itself
// never talks to users directly.
package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"staffroom/internal/events"
	"staffroom/internal/models"
)

// BookingSource lists bookings whose start time falls inside a window.
type BookingSource interface {
	ListUpcomingBookings(ctx context.Context, from, until time.Time) ([]models.Booking, error)
}

// Scheduler scans for bookings about to start and publishes one reminder per
// booking on the bus.
type Scheduler struct {
	source BookingSource
	bus    *events.Bus
	lead   time.Duration
	scan   time.Duration
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	reminded map[string]time.Time // reference -> meeting start
}

func NewScheduler(source BookingSource, bus *events.Bus, lead, scan time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		source:   source,
		bus:      bus,
		lead:     lead,
		scan:     scan,
		logger:   logger,
		now:      time.Now,
		reminded: make(map[string]time.Time),
	}
}

// Start runs the scan loop until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Dur("lead", s.lead).
		Dur("scan_interval", s.scan).
		Msg("reminder scheduler started")

	ticker := time.NewTicker(s.scan)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce publishes reminders for bookings starting within the lead window.
// A booking is reminded at most once.
func (s *Scheduler) ScanOnce(ctx context.Context) {
	now := s.now()
	bookings, err := s.source.ListUpcomingBookings(ctx, now, now.Add(s.lead))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch upcoming bookings")
		return
	}

	for _, b := range bookings {
		if !s.markReminded(b.ReferenceID, b.StartTime) {
			continue
		}
		s.bus.Publish(events.Event{
			Type:      events.TopicBookingReminder,
			RoomID:    b.RoomID,
			UserID:    b.UserID,
			Day:       b.StartTime,
			Reference: b.ReferenceID,
		})
		s.logger.Info().
			Str("reference", b.ReferenceID).
			Time("starts_at", b.StartTime).
			Msg("meeting reminder published")
	}

	s.prune(now)
}

// markReminded records the reference and reports whether it was new.
func (s *Scheduler) markReminded(reference string, start time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.reminded[reference]; seen {
		return false
	}
	s.reminded[reference] = start
	return true
}

// prune drops dedup entries for meetings that have already started.
func (s *Scheduler) prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref, start := range s.reminded {
		if start.Before(now) {
			delete(s.reminded, ref)
		}
	}
}
