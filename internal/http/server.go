// Package http exposes the REST surface: roster management, daily
// attendance, and the session-package payment lifecycle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hejolabs/academy-manage/internal/calendar"
	"github.com/hejolabs/academy-manage/internal/config"
	"github.com/hejolabs/academy-manage/internal/db"
	"github.com/hejolabs/academy-manage/internal/operations"
)

type Server struct {
	cfg      config.Config
	store    *db.Store
	holidays calendar.HolidayProvider
	redis    *redis.Client
	validate *validator.Validate
	cacheTTL time.Duration
}

// NewServer wires the HTTP surface. redisClient may be nil; stats
// caching is simply skipped then.
func NewServer(cfg config.Config, store *db.Store, holidays calendar.HolidayProvider, redisClient *redis.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		holidays: holidays,
		redis:    redisClient,
		validate: validator.New(),
		cacheTTL: cfg.StatsCacheTTL,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/students", func(r chi.Router) {
		r.Post("/", s.handleCreateStudent)
		r.Get("/", s.handleListStudents)
		r.Get("/{studentId}", s.handleGetStudent)
		r.Put("/{studentId}", s.handleUpdateStudent)
		r.Delete("/{studentId}", s.handleDeleteStudent)
	})

	r.Route("/attendance", func(r chi.Router) {
		r.Post("/", s.handleCreateAttendance)
		r.Get("/", s.handleListAttendance)
		r.Get("/today", s.handleTodayAttendance)
		r.Get("/stats/{studentId}", s.handleAttendanceStats)
		r.Post("/bulk", s.handleBulkAttendance)
		r.Put("/{attendanceId}", s.handleUpdateAttendance)
		r.Delete("/{attendanceId}", s.handleDeleteAttendance)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", s.handleCreatePayment)
		r.Get("/", s.handleListPayments)
		r.Get("/expiring", s.handleExpiringPayments)
		r.Get("/stats", s.handlePaymentStats)
		r.Get("/{paymentId}", s.handleGetPayment)
		r.Put("/{paymentId}/complete-session", s.handleCompleteSession)
		r.Put("/{paymentId}/extend", s.handleExtendPayment)
	})

	return r
}

// Error mapping

func writeOperationError(w http.ResponseWriter, err error) {
	var opErr *operations.Error
	if !errors.As(err, &opErr) {
		writeError(w, http.StatusInternalServerError, operations.ErrServerError)
		return
	}
	switch opErr.Code {
	case operations.ErrStudentNotFound, operations.ErrPaymentNotFound, operations.ErrAttendanceNotFound:
		writeError(w, http.StatusNotFound, opErr.Code)
	case operations.ErrAttendanceExists:
		writeError(w, http.StatusConflict, opErr.Code)
	case operations.ErrInvalidAmount, operations.ErrInvalidSessionCount, operations.ErrInvalidStatus,
		operations.ErrFutureDate, operations.ErrPaymentInactive, operations.ErrSessionsExhausted,
		operations.ErrAttendanceMismatch:
		writeError(w, http.StatusBadRequest, opErr.Code)
	default:
		writeError(w, http.StatusInternalServerError, operations.ErrServerError)
	}
}

// Input normalization

func normalizeStatus(value string) (db.AttendanceStatus, error) {
	switch value {
	case "present", "absent", "late", "early_leave":
		return db.AttendanceStatus(value), nil
	default:
		return "", errInvalid
	}
}

func normalizeMethod(value string) (db.PaymentMethod, error) {
	switch value {
	case "cash", "card", "transfer":
		return db.PaymentMethod(value), nil
	default:
		return "", errInvalid
	}
}

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}

// Stats cache

func (s *Server) cachedJSON(ctx context.Context, key string) ([]byte, bool) {
	if s.redis == nil {
		return nil, false
	}
	value, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

func (s *Server) storeCachedJSON(ctx context.Context, key string, payload any) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, key, data, s.cacheTTL).Err()
}

func (s *Server) invalidateAttendanceStats(ctx context.Context, studentID uuid.UUID) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx,
		attendanceStatsKey(studentID, "weekly"),
		attendanceStatsKey(studentID, "monthly"),
	).Err()
}

func (s *Server) invalidatePaymentStats(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, paymentStatsKey("monthly"), paymentStatsKey("quarterly")).Err()
}

func attendanceStatsKey(studentID uuid.UUID, period string) string {
	return fmt.Sprintf("attendance_stats:%s:%s", studentID, period)
}

func paymentStatsKey(period string) string {
	return fmt.Sprintf("payment_stats:%s", period)
}

// Utilities

var errInvalid = errors.New("invalid value")

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}

func parseLimit(r *http.Request, fallback int32) int32 {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return int32(parsed)
		}
	}
	return fallback
}

func parseOffset(r *http.Request) int32 {
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return int32(parsed)
		}
	}
	return 0
}
