package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hejolabs/academy-manage/internal/calendar"
	"github.com/hejolabs/academy-manage/internal/db"
	"github.com/hejolabs/academy-manage/internal/operations"
	"github.com/hejolabs/academy-manage/internal/stats"
)

type createPaymentRequest struct {
	StudentID       string `json:"student_id" validate:"required,uuid"`
	Amount          string `json:"amount" validate:"required"`
	Method          string `json:"method" validate:"required"`
	StartDate       string `json:"start_date"`
	SessionsTotal   int32  `json:"sessions_total" validate:"required,min=1"`
	ExcludeWeekends *bool  `json:"exclude_weekends"`
}

type completeSessionRequest struct {
	AttendanceID *string `json:"attendance_id" validate:"omitempty,uuid"`
}

type extendPaymentRequest struct {
	AdditionalSessions int32  `json:"additional_sessions" validate:"required,min=1"`
	AdditionalAmount   string `json:"additional_amount" validate:"required"`
}

type paymentResponse struct {
	ID                string    `json:"id"`
	StudentID         string    `json:"student_id"`
	Amount            string    `json:"amount"`
	Method            string    `json:"method"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	SessionsTotal     int32     `json:"sessions_total"`
	SessionsCompleted int32     `json:"sessions_completed"`
	SessionsRemaining int32     `json:"sessions_remaining"`
	ProgressPercent   float64   `json:"progress_percent"`
	DaysUntilExpiry   int       `json:"days_until_expiry"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func mapPayment(p db.Payment) paymentResponse {
	remaining := p.SessionsTotal - p.SessionsCompleted
	if remaining < 0 {
		remaining = 0
	}
	return paymentResponse{
		ID:                p.ID.String(),
		StudentID:         p.StudentID.String(),
		Amount:            p.Amount.StringFixed(2),
		Method:            string(p.Method),
		StartDate:         p.StartDate.Format(dateLayout),
		EndDate:           p.EndDate.Format(dateLayout),
		SessionsTotal:     p.SessionsTotal,
		SessionsCompleted: p.SessionsCompleted,
		SessionsRemaining: remaining,
		ProgressPercent:   stats.ProgressPercent(p.SessionsCompleted, p.SessionsTotal),
		DaysUntilExpiry:   stats.DaysUntilExpiry(p.EndDate, time.Now().UTC()),
		Active:            p.Active,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	method, err := normalizeMethod(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_method")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, operations.ErrInvalidAmount)
		return
	}

	startDate := calendar.Day(time.Now().UTC())
	if req.StartDate != "" {
		startDate, err = parseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
	}
	excludeWeekends := true
	if req.ExcludeWeekends != nil {
		excludeWeekends = *req.ExcludeWeekends
	}

	payment, err := operations.CreatePayment(r.Context(), s.store, s.holidays, operations.CreatePaymentInput{
		StudentID:       uuid.MustParse(req.StudentID),
		Amount:          amount,
		Method:          method,
		StartDate:       startDate,
		SessionsTotal:   req.SessionsTotal,
		ExcludeWeekends: excludeWeekends,
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}
	s.invalidatePaymentStats(r.Context())
	writeJSON(w, http.StatusCreated, mapPayment(payment))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	params := db.ListPaymentsParams{
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
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		params.Active = &active
	}
	if raw := r.URL.Query().Get("expiringWithin"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		today := calendar.Day(time.Now().UTC())
		horizon := today.AddDate(0, 0, days)
		params.EndDateFrom = &today
		params.EndDateTo = &horizon
	}

	payments, err := s.store.ListPayments(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	payload := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		payload = append(payload, mapPayment(p))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleExpiringPayments(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		days = parsed
	}

	today := calendar.Day(time.Now().UTC())
	horizon := today.AddDate(0, 0, days)
	active := true
	payments, err := s.store.ListPayments(r.Context(), db.ListPaymentsParams{
		Active:      &active,
		EndDateFrom: &today,
		EndDateTo:   &horizon,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	payload := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		payload = append(payload, mapPayment(p))
	}
	writeJSON(w, http.StatusOK, payload)
}

type paymentStatsResponse struct {
	Period       string                `json:"period"`
	TotalRevenue string                `json:"total_revenue"`
	PaymentCount int                   `json:"payment_count"`
	ActiveCount  int                   `json:"active_count"`
	Trend        []stats.RevenueBucket `json:"trend"`
}

func (s *Server) handlePaymentStats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "monthly"
	}
	if period != "monthly" && period != "quarterly" {
		writeError(w, http.StatusBadRequest, "invalid_period")
		return
	}

	cacheKey := paymentStatsKey(period)
	if cached, ok := s.cachedJSON(r.Context(), cacheKey); ok {
		writeRawJSON(w, http.StatusOK, cached)
		return
	}

	payments, err := s.store.ListPayments(r.Context(), db.ListPaymentsParams{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	total := decimal.Zero
	activeCount := 0
	for _, p := range payments {
		total = total.Add(p.Amount)
		if p.Active {
			activeCount++
		}
	}
	var trend []stats.RevenueBucket
	if period == "quarterly" {
		trend = stats.QuarterlyRevenueTrend(payments)
	} else {
		trend = stats.MonthlyRevenueTrend(payments)
	}

	resp := paymentStatsResponse{
		Period:       period,
		TotalRevenue: total.StringFixed(2),
		PaymentCount: len(payments),
		ActiveCount:  activeCount,
		Trend:        trend,
	}
	s.storeCachedJSON(r.Context(), cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "paymentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payment_id")
		return
	}
	payment, err := s.store.GetPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, operations.ErrPaymentNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapPayment(payment))
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "paymentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payment_id")
		return
	}
	var req completeSessionRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
	}
	var attendanceID *uuid.UUID
	if req.AttendanceID != nil {
		parsed := uuid.MustParse(*req.AttendanceID)
		attendanceID = &parsed
	}

	payment, err := operations.CompleteSession(r.Context(), s.store, id, attendanceID)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	s.invalidatePaymentStats(r.Context())
	writeJSON(w, http.StatusOK, mapPayment(payment))
}

func (s *Server) handleExtendPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "paymentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payment_id")
		return
	}
	var req extendPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	amount, err := decimal.NewFromString(req.AdditionalAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, operations.ErrInvalidAmount)
		return
	}

	payment, err := operations.ExtendPayment(r.Context(), s.store, s.holidays, operations.ExtendPaymentInput{
		PaymentID:          id,
		AdditionalSessions: req.AdditionalSessions,
		AdditionalAmount:   amount,
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}
	s.invalidatePaymentStats(r.Context())
	writeJSON(w, http.StatusOK, mapPayment(payment))
}
