package models

import "time"

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCanceled  = "canceled"
	BookingStatusRejected  = "rejected"
)

// Booking is a committed meeting-room reservation.
type Booking struct {
	ID          int64     `json:"id"`
	ReferenceID string    `json:"reference_id"` // opaque UUID exposed to clients
	RoomID      int64     `json:"room_id"`
	RoomName    string    `json:"room_name,omitempty"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Duration returns the booked length.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// SlotCount returns how many grid slots of the given width the booking spans.
func (b *Booking) SlotCount(slotDuration time.Duration) int {
	if slotDuration <= 0 {
		return 0
	}
	return int(b.Duration() / slotDuration)
}

// OverlapsWith checks two bookings under half-open [start, end) semantics.
// Bookings that merely touch do not overlap.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return b.StartTime.Before(other.EndTime) && other.StartTime.Before(b.EndTime)
}

// ContainsTime reports whether t falls within the booking. The end boundary
// is exclusive.
func (b *Booking) ContainsTime(t time.Time) bool {
	return !t.Before(b.StartTime) && t.Before(b.EndTime)
}

// IsActive reports whether the booking still blocks its interval.
func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCanceled && b.Status != BookingStatusRejected
}
