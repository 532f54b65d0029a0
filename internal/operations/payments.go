// Package operations implements the write-side business rules: the
// payment package lifecycle and attendance recording. Handlers call in
// here; persistence goes through the Store interface.
package operations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hejolabs/academy-manage/internal/calendar"
	"github.com/hejolabs/academy-manage/internal/db"
)

const (
	MaxSessionsPerPackage   = 50
	MaxSessionsPerExtension = 20
)

type CreatePaymentInput struct {
	StudentID       uuid.UUID
	Amount          decimal.Decimal
	Method          db.PaymentMethod
	StartDate       time.Time
	SessionsTotal   int32
	ExcludeWeekends bool
}

// CreatePayment validates the input, resolves the package end date and
// inserts the package while deactivating any prior active package the
// student holds. Validation failures happen before any mutation.
func CreatePayment(ctx context.Context, store Store, holidays calendar.HolidayProvider, input CreatePaymentInput) (db.Payment, error) {
	if !input.Amount.IsPositive() {
		return db.Payment{}, &Error{Code: ErrInvalidAmount}
	}
	if input.SessionsTotal < 1 || input.SessionsTotal > MaxSessionsPerPackage {
		return db.Payment{}, &Error{Code: ErrInvalidSessionCount}
	}

	if _, err := store.GetStudent(ctx, input.StudentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Payment{}, &Error{Code: ErrStudentNotFound}
		}
		return db.Payment{}, &Error{Code: ErrServerError}
	}

	start := calendar.Day(input.StartDate)
	endDate := calendar.ResolveEndDate(start, int(input.SessionsTotal), input.ExcludeWeekends,
		holidaysForCreation(holidays, input.ExcludeWeekends))

	now := time.Now().UTC()
	payment := db.Payment{
		ID:                uuid.New(),
		StudentID:         input.StudentID,
		Amount:            input.Amount,
		Method:            input.Method,
		StartDate:         start,
		EndDate:           endDate,
		SessionsTotal:     input.SessionsTotal,
		SessionsCompleted: 0,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := store.InsertPaymentDeactivatingPrior(ctx, payment); err != nil {
		return db.Payment{}, &Error{Code: ErrServerError}
	}
	return payment, nil
}

// CompleteSession consumes one session from an active package. When
// the consumed count reaches the package total the active flag is
// cleared in the same update. A supplied attendance id is validated to
// exist and to belong to the package's student; the association itself
// is not persisted.
func CompleteSession(ctx context.Context, store Store, paymentID uuid.UUID, attendanceID *uuid.UUID) (db.Payment, error) {
	payment, err := store.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Payment{}, &Error{Code: ErrPaymentNotFound}
		}
		return db.Payment{}, &Error{Code: ErrServerError}
	}
	if !payment.Active {
		return db.Payment{}, &Error{Code: ErrPaymentInactive}
	}
	if payment.SessionsCompleted >= payment.SessionsTotal {
		return db.Payment{}, &Error{Code: ErrSessionsExhausted}
	}

	if attendanceID != nil {
		rec, err := store.GetAttendance(ctx, *attendanceID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return db.Payment{}, &Error{Code: ErrAttendanceNotFound}
			}
			return db.Payment{}, &Error{Code: ErrServerError}
		}
		if rec.StudentID != payment.StudentID {
			return db.Payment{}, &Error{Code: ErrAttendanceMismatch}
		}
	}

	payment.SessionsCompleted++
	payment.Active = payment.SessionsCompleted < payment.SessionsTotal
	payment.UpdatedAt = time.Now().UTC()
	if err := store.UpdatePaymentProgress(ctx, payment.ID, payment.SessionsCompleted, payment.Active, payment.UpdatedAt); err != nil {
		return db.Payment{}, &Error{Code: ErrServerError}
	}
	return payment, nil
}

type ExtendPaymentInput struct {
	PaymentID          uuid.UUID
	AdditionalSessions int32
	AdditionalAmount   decimal.Decimal
}

// ExtendPayment adds sessions and amount to an existing package. When
// sessions remain after the extension, the end date is re-resolved
// from today (weekends always excluded, current-year holidays) and the
// package is reactivated whatever its prior state.
func ExtendPayment(ctx context.Context, store Store, holidays calendar.HolidayProvider, input ExtendPaymentInput) (db.Payment, error) {
	if input.AdditionalSessions < 1 || input.AdditionalSessions > MaxSessionsPerExtension {
		return db.Payment{}, &Error{Code: ErrInvalidSessionCount}
	}
	if !input.AdditionalAmount.IsPositive() {
		return db.Payment{}, &Error{Code: ErrInvalidAmount}
	}

	payment, err := store.GetPayment(ctx, input.PaymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Payment{}, &Error{Code: ErrPaymentNotFound}
		}
		return db.Payment{}, &Error{Code: ErrServerError}
	}

	payment.SessionsTotal += input.AdditionalSessions
	payment.Amount = payment.Amount.Add(input.AdditionalAmount)
	payment.UpdatedAt = time.Now().UTC()

	remaining := payment.SessionsTotal - payment.SessionsCompleted
	if remaining > 0 {
		today := calendar.Day(time.Now().UTC())
		payment.EndDate = calendar.ResolveEndDate(today, int(remaining), true, holidays.HolidaysFor(today.Year()))
		payment.Active = true
	}

	if err := store.UpdatePaymentExtension(ctx, payment.ID, payment.SessionsTotal, payment.Amount,
		payment.EndDate, payment.Active, payment.UpdatedAt); err != nil {
		return db.Payment{}, &Error{Code: ErrServerError}
	}
	return payment, nil
}

// holidaysForCreation mirrors creation-time behavior: holidays apply
// only when weekends are excluded, and only the current year's table
// is consulted.
func holidaysForCreation(provider calendar.HolidayProvider, excludeWeekends bool) map[time.Time]bool {
	if !excludeWeekends {
		return nil
	}
	return provider.HolidaysFor(time.Now().UTC().Year())
}
