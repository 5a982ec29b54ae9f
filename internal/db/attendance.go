package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"staffroom/internal/models"
)

// ListAttendance returns a user's attendance records, newest first.
func (db *DB) ListAttendance(ctx context.Context, userID int64) ([]models.AttendanceRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, date, clock_in, clock_out, status, created_at, updated_at
		FROM attendance_records
		WHERE user_id = ?
		ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		var clockOut sql.NullTime
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Date, &rec.ClockIn, &clockOut,
			&rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if clockOut.Valid {
			t := clockOut.Time
			rec.ClockOut = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListBreaks returns the break entries for an attendance record.
func (db *DB) ListBreaks(ctx context.Context, attendanceID int64) ([]models.BreakEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, attendance_id, start_time, end_time
		FROM attendance_breaks
		WHERE attendance_id = ?
		ORDER BY start_time`,
		attendanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breaks []models.BreakEntry
	for rows.Next() {
		var b models.BreakEntry
		if err := rows.Scan(&b.ID, &b.AttendanceID, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

// ClockIn opens an attendance session for the day.
func (db *DB) ClockIn(ctx context.Context, userID int64, at time.Time, status string) (*models.AttendanceRecord, error) {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO attendance_records (user_id, date, clock_in, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, day, at, status, now, now)
	if err != nil {
		return nil, fmt.Errorf("clock in: %w", err)
	}
	id, _ := res.LastInsertId()
	return &models.AttendanceRecord{
		ID: id, UserID: userID, Date: day, ClockIn: at, Status: status,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

// ClockOut closes the session.
func (db *DB) ClockOut(ctx context.Context, attendanceID int64, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE attendance_records SET clock_out = ?, updated_at = ?
		WHERE id = ? AND clock_out IS NULL`,
		at, time.Now(), attendanceID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddBreak records a pause within a session.
func (db *DB) AddBreak(ctx context.Context, entry *models.BreakEntry) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO attendance_breaks (attendance_id, start_time, end_time)
		VALUES (?, ?, ?)`,
		entry.AttendanceID, entry.StartTime, entry.EndTime)
	if err != nil {
		return fmt.Errorf("add break: %w", err)
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

// ListExceptionRequests returns a user's exception requests, newest first.
func (db *DB) ListExceptionRequests(ctx context.Context, userID int64) ([]models.ExceptionRequest, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, type, reason, date, status, created_at, updated_at
		FROM exception_requests
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.ExceptionRequest
	for rows.Next() {
		var r models.ExceptionRequest
		var reason sql.NullString
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Type, &reason, &r.Date, &r.Status,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if reason.Valid {
			r.Reason = reason.String
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// CreateExceptionRequest files a request in pending state.
func (db *DB) CreateExceptionRequest(ctx context.Context, req *models.ExceptionRequest) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO exception_requests (user_id, type, reason, date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.UserID, req.Type, req.Reason, req.Date, models.ExceptionStatusPending, now, now)
	if err != nil {
		return fmt.Errorf("create exception request: %w", err)
	}
	req.ID, _ = res.LastInsertId()
	req.Status = models.ExceptionStatusPending
	return nil
}

// DecideExceptionRequest applies an admin decision to a pending request.
func (db *DB) DecideExceptionRequest(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE exception_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, time.Now(), id, models.ExceptionStatusPending)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
