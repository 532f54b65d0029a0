package operations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hejolabs/academy-manage/internal/calendar"
	"github.com/hejolabs/academy-manage/internal/db"
)

type RecordAttendanceInput struct {
	StudentID uuid.UUID
	Date      time.Time
	Status    db.AttendanceStatus
	CheckIn   *string
	CheckOut  *string
	Note      string
}

// RecordAttendance creates one attendance record, enforcing the
// one-record-per-student-per-date rule. The pre-check catches the
// common case; the unique constraint catches concurrent writers.
func RecordAttendance(ctx context.Context, store Store, input RecordAttendanceInput) (db.Attendance, error) {
	if _, err := store.GetStudent(ctx, input.StudentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Attendance{}, &Error{Code: ErrStudentNotFound}
		}
		return db.Attendance{}, &Error{Code: ErrServerError}
	}

	date := calendar.Day(input.Date)
	exists, err := store.HasAttendanceOn(ctx, input.StudentID, date)
	if err != nil {
		return db.Attendance{}, &Error{Code: ErrServerError}
	}
	if exists {
		return db.Attendance{}, &Error{Code: ErrAttendanceExists}
	}

	now := time.Now().UTC()
	rec := db.Attendance{
		ID:        uuid.New(),
		StudentID: input.StudentID,
		Date:      date,
		Status:    input.Status,
		CheckIn:   input.CheckIn,
		CheckOut:  input.CheckOut,
		Note:      input.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateAttendance(ctx, rec); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return db.Attendance{}, &Error{Code: ErrAttendanceExists}
		}
		return db.Attendance{}, &Error{Code: ErrServerError}
	}
	return rec, nil
}

type BulkAttendanceItem struct {
	StudentID uuid.UUID
	Status    db.AttendanceStatus
	CheckIn   *string
	CheckOut  *string
	Note      string
}

type BulkAttendanceError struct {
	StudentID uuid.UUID `json:"student_id"`
	Reason    string    `json:"reason"`
}

type BulkAttendanceResult struct {
	SuccessCount int                   `json:"success_count"`
	ErrorCount   int                   `json:"error_count"`
	Errors       []BulkAttendanceError `json:"errors"`
	Created      []db.Attendance       `json:"created"`
}

// BulkRecordAttendance applies a batch of attendance items for one
// date. A future target date rejects the whole batch; item-level
// failures are isolated so one bad entry never aborts its siblings.
func BulkRecordAttendance(ctx context.Context, store Store, date time.Time, items []BulkAttendanceItem) (BulkAttendanceResult, error) {
	today := calendar.Day(time.Now().UTC())
	if date.IsZero() {
		date = today
	}
	date = calendar.Day(date)
	if date.After(today) {
		return BulkAttendanceResult{}, &Error{Code: ErrFutureDate}
	}

	result := BulkAttendanceResult{
		Errors:  []BulkAttendanceError{},
		Created: []db.Attendance{},
	}
	for _, item := range items {
		rec, err := RecordAttendance(ctx, store, RecordAttendanceInput{
			StudentID: item.StudentID,
			Date:      date,
			Status:    item.Status,
			CheckIn:   item.CheckIn,
			CheckOut:  item.CheckOut,
			Note:      item.Note,
		})
		if err != nil {
			reason := ErrServerError
			var opErr *Error
			if errors.As(err, &opErr) {
				reason = opErr.Code
			}
			result.Errors = append(result.Errors, BulkAttendanceError{StudentID: item.StudentID, Reason: reason})
			result.ErrorCount++
			continue
		}
		result.Created = append(result.Created, rec)
		result.SuccessCount++
	}
	return result, nil
}
