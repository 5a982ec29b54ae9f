package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"staffroom/internal/events"
	"staffroom/internal/export"
	"staffroom/internal/interval"
	"staffroom/internal/models"
	"staffroom/internal/worktime"
)

// ErrExceptionTypeRequired is returned when a filed exception request names
// no type.
var ErrExceptionTypeRequired = errors.New("service: exception type is required")

// DurationPlaceholder is rendered for sessions with no clock-out yet. It is
// deliberately not "0m": an open session has no duration, not a zero one.
const DurationPlaceholder = "-"

// AttendanceStore is the persistence surface the attendance service needs.
type AttendanceStore interface {
	ListAttendance(ctx context.Context, userID int64) ([]models.AttendanceRecord, error)
	ListBreaks(ctx context.Context, attendanceID int64) ([]models.BreakEntry, error)
	ListExceptionRequests(ctx context.Context, userID int64) ([]models.ExceptionRequest, error)
	CreateExceptionRequest(ctx context.Context, req *models.ExceptionRequest) error
	DecideExceptionRequest(ctx context.Context, id int64, status string) error
}

// HistoryRow is an attendance record with its computed net duration, ready
// for rendering or export.
type HistoryRow struct {
	Record   models.AttendanceRecord `json:"record"`
	Duration string                  `json:"duration"`
}

// AttendanceService computes net work durations for attendance rows and
// handles exception-request moderation.
type AttendanceService struct {
	store  AttendanceStore
	bus    *events.Bus
	logger zerolog.Logger
}

// NewAttendanceService wires the service. The bus may be nil.
func NewAttendanceService(store AttendanceStore, bus *events.Bus, logger zerolog.Logger) *AttendanceService {
	return &AttendanceService{store: store, bus: bus, logger: logger}
}

// History returns a user's attendance rows with net durations. Breaks are
// subtracted from the clock-in/clock-out span; sessions without a clock-out
// get the placeholder.
func (s *AttendanceService) History(ctx context.Context, userID int64) ([]HistoryRow, error) {
	records, err := s.store.ListAttendance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	rows := make([]HistoryRow, 0, len(records))
	for _, rec := range records {
		entries, err := s.store.ListBreaks(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("load breaks for record %d: %w", rec.ID, err)
		}

		net, err := worktime.NetSession(rec.ClockIn, rec.ClockOut, toIntervals(entries))
		rendered := DurationPlaceholder
		switch {
		case err == nil:
			rendered = worktime.Format(net)
		case errors.Is(err, worktime.ErrIncomplete):
			// open session, keep placeholder
		default:
			s.logger.Warn().Err(err).Int64("record_id", rec.ID).Msg("unusable attendance interval")
		}

		rows = append(rows, HistoryRow{Record: rec, Duration: rendered})
	}
	return rows, nil
}

// ExportCSV writes a user's attendance history as CSV.
func (s *AttendanceService) ExportCSV(ctx context.Context, w io.Writer, userID int64) error {
	rows, err := s.History(ctx, userID)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, toExportRows(rows))
}

// ExportXLSX writes a user's attendance history as an Excel workbook.
func (s *AttendanceService) ExportXLSX(ctx context.Context, w io.Writer, userID int64) error {
	rows, err := s.History(ctx, userID)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, toExportRows(rows))
}

// Exceptions returns a user's exception requests.
func (s *AttendanceService) Exceptions(ctx context.Context, userID int64) ([]models.ExceptionRequest, error) {
	return s.store.ListExceptionRequests(ctx, userID)
}

// FileException records a new pending exception request.
func (s *AttendanceService) FileException(ctx context.Context, req *models.ExceptionRequest) error {
	if req.Type == "" {
		return ErrExceptionTypeRequired
	}
	return s.store.CreateExceptionRequest(ctx, req)
}

// DecideException applies an admin decision and announces it on the bus.
func (s *AttendanceService) DecideException(ctx context.Context, id int64, approve bool) error {
	status := models.ExceptionStatusRejected
	if approve {
		status = models.ExceptionStatusApproved
	}
	if err := s.store.DecideExceptionRequest(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info().Int64("request_id", id).Str("status", status).Msg("exception request decided")

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:      events.TopicExceptionDecided,
			Reference: strconv.FormatInt(id, 10),
			Detail:    status,
		})
	}
	return nil
}

func toIntervals(entries []models.BreakEntry) []interval.Interval {
	ivs := make([]interval.Interval, 0, len(entries))
	for _, e := range entries {
		ivs = append(ivs, interval.Interval{Start: e.StartTime, End: e.EndTime})
	}
	return ivs
}

func toExportRows(rows []HistoryRow) []export.Row {
	out := make([]export.Row, 0, len(rows))
	for _, row := range rows {
		clockOut := ""
		if row.Record.ClockOut != nil {
			clockOut = row.Record.ClockOut.Format("15:04")
		}
		out = append(out, export.Row{
			Date:     row.Record.Date.Format("2006-01-02"),
			ClockIn:  row.Record.ClockIn.Format("15:04"),
			ClockOut: clockOut,
			Duration: row.Duration,
			Status:   row.Record.Status,
		})
	}
	return out
}
