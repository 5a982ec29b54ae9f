package models

import "time"

// Attendance statuses as shown in the portal.
const (
	AttendanceStatusPresent = "Present"
	AttendanceStatusLate    = "Late"
	AttendanceStatusLeave   = "Leave"
	AttendanceStatusAbsent  = "Absent"
)

// AttendanceRecord is one person's work session for a calendar day.
// ClockOut is nil while the session is still open.
type AttendanceRecord struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Date      time.Time  `json:"date"`
	ClockIn   time.Time  `json:"clock_in"`
	ClockOut  *time.Time `json:"clock_out,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BreakEntry is a pause within an attendance session.
type BreakEntry struct {
	ID           int64     `json:"id"`
	AttendanceID int64     `json:"attendance_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// Exception request statuses and types (admin moderation).
const (
	ExceptionStatusPending  = "pending"
	ExceptionStatusApproved = "approved"
	ExceptionStatusRejected = "rejected"
)

// ExceptionRequest is a staff request to amend an attendance day (missed
// clock-in, leave, and so on), moderated by an admin.
type ExceptionRequest struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
