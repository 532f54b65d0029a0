package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hejolabs/academy-manage/internal/calendar"
	"github.com/hejolabs/academy-manage/internal/db"
	"github.com/hejolabs/academy-manage/internal/operations"
	"github.com/hejolabs/academy-manage/internal/stats"
)

type createAttendanceRequest struct {
	StudentID string  `json:"student_id" validate:"required,uuid"`
	Date      string  `json:"date" validate:"required"`
	Status    string  `json:"status" validate:"required"`
	CheckIn   *string `json:"check_in" validate:"omitempty,datetime=15:04"`
	CheckOut  *string `json:"check_out" validate:"omitempty,datetime=15:04"`
	Note      string  `json:"note" validate:"max=500"`
}

type updateAttendanceRequest struct {
	Status   *string `json:"status"`
	CheckIn  *string `json:"check_in" validate:"omitempty,datetime=15:04"`
	CheckOut *string `json:"check_out" validate:"omitempty,datetime=15:04"`
	Note     *string `json:"note" validate:"omitempty,max=500"`
}

type attendanceResponse struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CheckIn   *string   `json:"check_in,omitempty"`
	CheckOut  *string   `json:"check_out,omitempty"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mapAttendance(rec db.Attendance) attendanceResponse {
	return attendanceResponse{
		ID:        rec.ID.String(),
		StudentID: rec.StudentID.String(),
		Date:      rec.Date.Format(dateLayout),
		Status:    string(rec.Status),
		CheckIn:   rec.CheckIn,
		CheckOut:  rec.CheckOut,
		Note:      rec.Note,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func (s *Server) handleCreateAttendance(w http.ResponseWriter, r *http.Request) {
	var req createAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	studentID := uuid.MustParse(req.StudentID)

	rec, err := operations.RecordAttendance(r.Context(), s.store, operations.RecordAttendanceInput{
		StudentID: studentID,
		Date:      date,
		Status:    status,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Note:      req.Note,
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}
	s.invalidateAttendanceStats(r.Context(), studentID)
	writeJSON(w, http.StatusCreated, mapAttendance(rec))
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	params := db.ListAttendanceParams{
		Limit:  parseLimit(r, 100),
		Offset: parseOffset(r),
	}
	if raw := r.URL.Query().Get("studentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_student_id")
			return
		}
		params.StudentID = &id
	}
	for query, field := range map[string]**time.Time{
		"date": &params.Date,
		"from": &params.From,
		"to":   &params.To,
	} {
		if raw := r.URL.Query().Get(query); raw != "" {
			parsed, err := parseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date")
				return
			}
			*field = &parsed
		}
	}

	records, err := s.store.ListAttendance(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	payload := make([]attendanceResponse, 0, len(records))
	for _, rec := range records {
		payload = append(payload, mapAttendance(rec))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleTodayAttendance(w http.ResponseWriter, r *http.Request) {
	today := calendar.Day(time.Now().UTC())
	records, err := s.store.ListAttendance(r.Context(), db.ListAttendanceParams{Date: &today})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	payload := make([]attendanceResponse, 0, len(records))
	for _, rec := range records {
		payload = append(payload, mapAttendance(rec))
	}
	writeJSON(w, http.StatusOK, payload)
}

type attendanceStatsResponse struct {
	StudentID        string                    `json:"student_id"`
	Period           string                    `json:"period"`
	From             string                    `json:"from"`
	To               string                    `json:"to"`
	AttendanceRate   *float64                  `json:"attendance_rate"`
	StatusCounts     map[string]int            `json:"status_counts"`
	MaxPresentStreak int                       `json:"max_present_streak"`
	MaxAbsentStreak  int                       `json:"max_absent_streak"`
	MonthlyTrend     []stats.MonthlyAttendance `json:"monthly_trend,omitempty"`
}

func (s *Server) handleAttendanceStats(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "monthly"
	}
	var windowDays int
	switch period {
	case "weekly":
		windowDays = 7
	case "monthly":
		windowDays = 30
	default:
		writeError(w, http.StatusBadRequest, "invalid_period")
		return
	}

	if _, err := s.store.GetStudent(r.Context(), studentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, operations.ErrStudentNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	cacheKey := attendanceStatsKey(studentID, period)
	if cached, ok := s.cachedJSON(r.Context(), cacheKey); ok {
		writeRawJSON(w, http.StatusOK, cached)
		return
	}

	today := calendar.Day(time.Now().UTC())
	from := today.AddDate(0, 0, -(windowDays - 1))
	records, err := s.store.ListStudentAttendanceSince(r.Context(), studentID, from)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	counts := map[string]int{}
	for _, rec := range records {
		counts[string(rec.Status)]++
	}
	maxPresent, maxAbsent := stats.Streaks(records)

	resp := attendanceStatsResponse{
		StudentID:        studentID.String(),
		Period:           period,
		From:             from.Format(dateLayout),
		To:               today.Format(dateLayout),
		AttendanceRate:   stats.AttendanceRate(records),
		StatusCounts:     counts,
		MaxPresentStreak: maxPresent,
		MaxAbsentStreak:  maxAbsent,
	}
	if period == "monthly" {
		yearBack := today.AddDate(-1, 0, 0)
		yearRecords, err := s.store.ListStudentAttendanceSince(r.Context(), studentID, yearBack)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		resp.MonthlyTrend = stats.MonthlyAttendanceTrend(yearRecords)
	}

	s.storeCachedJSON(r.Context(), cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

type bulkAttendanceItemRequest struct {
	StudentID string  `json:"student_id" validate:"required,uuid"`
	Status    string  `json:"status" validate:"required"`
	CheckIn   *string `json:"check_in" validate:"omitempty,datetime=15:04"`
	CheckOut  *string `json:"check_out" validate:"omitempty,datetime=15:04"`
	Note      string  `json:"note" validate:"max=500"`
}

type bulkAttendanceRequest struct {
	Date  string                      `json:"date"`
	Items []bulkAttendanceItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (s *Server) handleBulkAttendance(w http.ResponseWriter, r *http.Request) {
	var req bulkAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
		date = parsed
	}

	items := make([]operations.BulkAttendanceItem, 0, len(req.Items))
	for _, item := range req.Items {
		status, err := normalizeStatus(item.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		items = append(items, operations.BulkAttendanceItem{
			StudentID: uuid.MustParse(item.StudentID),
			Status:    status,
			CheckIn:   item.CheckIn,
			CheckOut:  item.CheckOut,
			Note:      item.Note,
		})
	}

	result, err := operations.BulkRecordAttendance(r.Context(), s.store, date, items)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	for _, rec := range result.Created {
		s.invalidateAttendanceStats(r.Context(), rec.StudentID)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "attendanceId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_attendance_id")
		return
	}
	var req updateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	rec, err := s.store.GetAttendance(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, operations.ErrAttendanceNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		rec.Status = status
	}
	if req.CheckIn != nil {
		rec.CheckIn = req.CheckIn
	}
	if req.CheckOut != nil {
		rec.CheckOut = req.CheckOut
	}
	if req.Note != nil {
		rec.Note = *req.Note
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateAttendance(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.invalidateAttendanceStats(r.Context(), rec.StudentID)
	writeJSON(w, http.StatusOK, mapAttendance(rec))
}

func (s *Server) handleDeleteAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "attendanceId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_attendance_id")
		return
	}

	rec, err := s.store.GetAttendance(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, operations.ErrAttendanceNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if err := s.store.DeleteAttendance(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.invalidateAttendanceStats(r.Context(), rec.StudentID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
