package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"staffroom/internal/metrics"
	"staffroom/internal/models"
	"staffroom/internal/service"
)

// handleAttendance returns a user's attendance history with computed net
// durations.
// GET /api/attendance?user_id=42
func (s *HTTPServer) handleAttendance(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("attendance")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}

	rows, err := s.attendance.History(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("attendance history failed")
		writeError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attendances": rows})
}

// handleAttendanceExport streams the history as a CSV or Excel download.
// GET /api/attendance/export?user_id=42&format=csv|xlsx
func (s *HTTPServer) handleAttendanceExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("attendance_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance_history.csv"`)
		if err := s.attendance.ExportCSV(r.Context(), w, userID); err != nil {
			s.logger.Error().Err(err).Msg("csv export failed")
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance_history.xlsx"`)
		if err := s.attendance.ExportXLSX(r.Context(), w, userID); err != nil {
			s.logger.Error().Err(err).Msg("xlsx export failed")
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
	}
}

// ExceptionRequestBody is the request body for POST /api/exceptions.
type ExceptionRequestBody struct {
	UserID int64  `json:"user_id"`
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
	Date   string `json:"date"` // YYYY-MM-DD
}

// handleExceptions lists or files exception requests.
// GET  /api/exceptions?user_id=42
// POST /api/exceptions
func (s *HTTPServer) handleExceptions(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exceptions")
	switch r.Method {
	case http.MethodGet:
		userID, ok := queryUserID(w, r)
		if !ok {
			return
		}
		requests, err := s.attendance.Exceptions(r.Context(), userID)
		if err != nil {
			s.logger.Error().Err(err).Msg("list exceptions failed")
			writeError(w, http.StatusInternalServerError, "failed to load exception requests")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exception_requests": requests})

	case http.MethodPost:
		var body ExceptionRequestBody
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		day, err := parseDay(body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req := &models.ExceptionRequest{
			UserID: body.UserID,
			Type:   body.Type,
			Reason: body.Reason,
			Date:   day,
		}
		if err := s.attendance.FileException(r.Context(), req); err != nil {
			if errors.Is(err, service.ErrExceptionTypeRequired) {
				writeError(w, http.StatusBadRequest, "exception type is required")
				return
			}
			s.logger.Error().Err(err).Msg("file exception failed")
			writeError(w, http.StatusInternalServerError, "failed to file exception request")
			return
		}
		writeJSON(w, http.StatusCreated, req)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// ExceptionDecisionRequest is the request body for POST /api/exceptions/decision.
type ExceptionDecisionRequest struct {
	RequestID int64 `json:"request_id"`
	Approve   bool  `json:"approve"`
}

// handleExceptionDecision applies an admin decision to a pending request.
// POST /api/exceptions/decision
func (s *HTTPServer) handleExceptionDecision(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exception_decision")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var body ExceptionDecisionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.attendance.DecideException(r.Context(), body.RequestID, body.Approve); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no pending request with that id")
			return
		}
		s.logger.Error().Err(err).Int64("request_id", body.RequestID).Msg("decide exception failed")
		writeError(w, http.StatusInternalServerError, "failed to decide exception request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "decided"})
}

func queryUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return 0, false
	}
	return userID, true
}
