package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, student_id, amount::text, method, start_date, end_date, sessions_total, sessions_completed, active, created_at, updated_at`

// InsertPaymentDeactivatingPrior clears the active flag on every active
// package the student holds and inserts the new one, atomically. The
// one-active-package-per-student rule lives here rather than in a
// schema constraint.
func (s *Store) InsertPaymentDeactivatingPrior(ctx context.Context, payment Payment) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.db.Exec(ctx, `
			UPDATE payments SET active = FALSE, updated_at = $2
			WHERE student_id = $1 AND active
		`, payment.StudentID, payment.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.db.Exec(ctx, `
			INSERT INTO payments (id, student_id, amount, method, start_date, end_date, sessions_total, sessions_completed, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, payment.ID, payment.StudentID, payment.Amount.StringFixed(2), payment.Method,
			payment.StartDate, payment.EndDate, payment.SessionsTotal, payment.SessionsCompleted,
			payment.Active, payment.CreatedAt, payment.UpdatedAt)
		return err
	})
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	row := s.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

type ListPaymentsParams struct {
	StudentID   *uuid.UUID
	Active      *bool
	EndDateFrom *time.Time
	EndDateTo   *time.Time
	Limit       int32
	Offset      int32
}

func (s *Store) ListPayments(ctx context.Context, params ListPaymentsParams) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE TRUE`
	args := []any{}
	if params.StudentID != nil {
		args = append(args, *params.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if params.EndDateFrom != nil {
		args = append(args, *params.EndDateFrom)
		query += fmt.Sprintf(" AND end_date >= $%d", len(args))
	}
	if params.EndDateTo != nil {
		args = append(args, *params.EndDateTo)
		query += fmt.Sprintf(" AND end_date <= $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (s *Store) UpdatePaymentProgress(ctx context.Context, id uuid.UUID, sessionsCompleted int32, active bool, updatedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE payments SET sessions_completed = $2, active = $3, updated_at = $4 WHERE id = $1
	`, id, sessionsCompleted, active, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) UpdatePaymentExtension(ctx context.Context, id uuid.UUID, sessionsTotal int32, amount decimal.Decimal, endDate time.Time, active bool, updatedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE payments
		SET sessions_total = $2, amount = $3, end_date = $4, active = $5, updated_at = $6
		WHERE id = $1
	`, id, sessionsTotal, amount.StringFixed(2), endDate, active, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanPayment(row pgx.Row) (Payment, error) {
	var payment Payment
	var amount string
	err := row.Scan(
		&payment.ID,
		&payment.StudentID,
		&amount,
		&payment.Method,
		&payment.StartDate,
		&payment.EndDate,
		&payment.SessionsTotal,
		&payment.SessionsCompleted,
		&payment.Active,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return Payment{}, err
	}
	payment.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Payment{}, err
	}
	return payment, nil
}
