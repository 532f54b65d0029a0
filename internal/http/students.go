package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hejolabs/academy-manage/internal/db"
	"github.com/hejolabs/academy-manage/internal/operations"
)

type studentRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Grade    *string         `json:"grade" validate:"omitempty,max=20"`
	Phone    *string         `json:"phone" validate:"omitempty,max=20"`
	Email    *string         `json:"email" validate:"omitempty,email"`
	Memo     string          `json:"memo" validate:"max=500"`
	Subjects []string        `json:"subjects"`
	Schedule json.RawMessage `json:"schedule"`
	Active   *bool           `json:"active"`
}

type studentResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Grade     *string         `json:"grade,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Memo      string          `json:"memo"`
	Subjects  []string        `json:"subjects"`
	Schedule  json.RawMessage `json:"schedule,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func mapStudent(student db.Student) studentResponse {
	subjects := student.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return studentResponse{
		ID:        student.ID.String(),
		Name:      student.Name,
		Grade:     student.Grade,
		Phone:     student.Phone,
		Email:     student.Email,
		Memo:      student.Memo,
		Subjects:  subjects,
		Schedule:  student.Schedule,
		Active:    student.Active,
		CreatedAt: student.CreatedAt,
		UpdatedAt: student.UpdatedAt,
	}
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	now := time.Now().UTC()
	student := db.Student{
		ID:        uuid.New(),
		Name:      req.Name,
		Grade:     req.Grade,
		Phone:     req.Phone,
		Email:     req.Email,
		Memo:      req.Memo,
		Subjects:  req.Subjects,
		Schedule:  req.Schedule,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapStudent(student))
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	params := db.ListStudentsParams{
		Search: r.URL.Query().Get("q"),
		Limit:  parseLimit(r, 100),
		Offset: parseOffset(r),
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active := raw == "true"
		params.Active = &active
	}

	students, err := s.store.ListStudents(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	payload := make([]studentResponse, 0, len(students))
	for _, student := range students {
		payload = append(payload, mapStudent(student))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}
	student, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, operations.ErrStudentNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapStudent(student))
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	student, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, operations.ErrStudentNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	student.Name = req.Name
	student.Grade = req.Grade
	student.Phone = req.Phone
	student.Email = req.Email
	student.Memo = req.Memo
	student.Subjects = req.Subjects
	student.Schedule = req.Schedule
	if req.Active != nil {
		student.Active = *req.Active
	}
	student.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapStudent(student))
}

// handleDeleteStudent soft-deactivates by default. ?hard=true removes
// the student and every dependent attendance/payment row in one
// transaction.
func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}

	if r.URL.Query().Get("hard") == "true" {
		if err := s.store.DeleteStudentCascade(r.Context(), id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusNotFound, operations.ErrStudentNotFound)
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		s.invalidateAttendanceStats(r.Context(), id)
		s.invalidatePaymentStats(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	if err := s.store.SetStudentActive(r.Context(), id, false, time.Now().UTC()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, operations.ErrStudentNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
