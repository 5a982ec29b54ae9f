package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staffroom/internal/models"
)

// ErrBookingConflict is returned when a booking would overlap an existing
// active booking for the same room. This check is the authoritative one: the
// engine's slot classification is advisory, and another actor may have booked
// between selection and submission.
var ErrBookingConflict = errors.New("db: booking conflicts with an existing reservation")

// ListActiveRooms returns all rooms open for booking.
func (db *DB) ListActiveRooms(ctx context.Context) ([]models.MeetingRoom, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, capacity, is_active, created_at, updated_at
		FROM meeting_rooms
		WHERE is_active = 1
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.MeetingRoom
	for rows.Next() {
		var r models.MeetingRoom
		var desc sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &desc, &r.Capacity, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			r.Description = desc.String
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// GetRoom returns a room by id.
func (db *DB) GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	var r models.MeetingRoom
	var desc sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, description, capacity, is_active, created_at, updated_at
		FROM meeting_rooms WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &desc, &r.Capacity, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		r.Description = desc.String
	}
	return &r, nil
}

// CreateRoom inserts a room.
func (db *DB) CreateRoom(ctx context.Context, room *models.MeetingRoom) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO meeting_rooms (name, description, capacity, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		room.Name, room.Description, room.Capacity, true, now, now)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	room.ID, _ = res.LastInsertId()
	room.IsActive = true
	return nil
}

// ListActiveBookings returns the non-canceled bookings for a room on a
// calendar day, ordered by start time. This is the reservation snapshot the
// slot classifier consumes.
func (db *DB) ListActiveBookings(ctx context.Context, roomID int64, day time.Time) ([]models.Booking, error) {
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	rows, err := db.QueryContext(ctx, `
		SELECT id, reference_id, room_id, user_id, title, notes,
		       start_time, end_time, status, created_at, updated_at
		FROM bookings
		WHERE room_id = ?
		AND start_time >= ? AND start_time < ?
		AND status NOT IN ('canceled', 'rejected')
		ORDER BY start_time`,
		roomID, startOfDay, endOfDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListUserBookings returns a user's bookings, newest first.
func (db *DB) ListUserBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, reference_id, room_id, user_id, title, notes,
		       start_time, end_time, status, created_at, updated_at
		FROM bookings
		WHERE user_id = ?
		ORDER BY start_time DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// GetBookingByReference looks a booking up by its client-facing reference.
// Returns sql.ErrNoRows when no booking carries that reference.
func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, reference_id, room_id, user_id, title, notes,
		       start_time, end_time, status, created_at, updated_at
		FROM bookings
		WHERE reference_id = ?`,
		reference)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanBooking(rows)
}

// ListUpcomingBookings returns confirmed bookings starting inside
// [from, until), ordered by start time. Used by the reminder scheduler.
func (db *DB) ListUpcomingBookings(ctx context.Context, from, until time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, reference_id, room_id, user_id, title, notes,
		       start_time, end_time, status, created_at, updated_at
		FROM bookings
		WHERE start_time >= ? AND start_time < ?
		AND status = 'confirmed'
		ORDER BY start_time`,
		from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CreateBooking persists a booking after re-checking for overlap inside a
// transaction. Returns ErrBookingConflict when the interval is already taken.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Half-open overlap: existing.start < new.end AND existing.end > new.start.
	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = ?
		AND start_time < ? AND end_time > ?
		AND status NOT IN ('canceled', 'rejected')`,
		booking.RoomID, booking.EndTime, booking.StartTime,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if count > 0 {
		return ErrBookingConflict
	}

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (reference_id, room_id, user_id, title, notes,
		                      start_time, end_time, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ReferenceID, booking.RoomID, booking.UserID, booking.Title, booking.Notes,
		booking.StartTime, booking.EndTime, booking.Status, now, now)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}

	booking.ID, _ = res.LastInsertId()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// UpdateBookingStatus transitions a booking's status.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanBooking(rows *sql.Rows) (*models.Booking, error) {
	var b models.Booking
	var notes sql.NullString
	if err := rows.Scan(
		&b.ID, &b.ReferenceID, &b.RoomID, &b.UserID, &b.Title, &notes,
		&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if notes.Valid {
		b.Notes = notes.String
	}
	return &b, nil
}
