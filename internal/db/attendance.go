package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `id, student_id, date, status, check_in, check_out, note, created_at, updated_at`

func (s *Store) CreateAttendance(ctx context.Context, rec Attendance) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO attendance (id, student_id, date, status, check_in, check_out, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.StudentID, rec.Date, rec.Status, rec.CheckIn, rec.CheckOut, rec.Note,
		rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (s *Store) GetAttendance(ctx context.Context, id uuid.UUID) (Attendance, error) {
	row := s.db.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id)
	return scanAttendance(row)
}

// HasAttendanceOn reports whether the student already has a record for
// the given date. The unique constraint backs this check up against
// concurrent writers.
func (s *Store) HasAttendanceOn(ctx context.Context, studentID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendance WHERE student_id = $1 AND date = $2)
	`, studentID, date).Scan(&exists)
	return exists, err
}

type ListAttendanceParams struct {
	StudentID *uuid.UUID
	Date      *time.Time
	From      *time.Time
	To        *time.Time
	Limit     int32
	Offset    int32
}

func (s *Store) ListAttendance(ctx context.Context, params ListAttendanceParams) ([]Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE TRUE`
	args := []any{}
	if params.StudentID != nil {
		args = append(args, *params.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if params.Date != nil {
		args = append(args, *params.Date)
		query += fmt.Sprintf(" AND date = $%d", len(args))
	}
	if params.From != nil {
		args = append(args, *params.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if params.To != nil {
		args = append(args, *params.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC, created_at DESC"
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

	records := []Attendance{}
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListStudentAttendanceSince returns a student's records with date >=
// from, most recent first. Stats derivation depends on that ordering.
func (s *Store) ListStudentAttendanceSince(ctx context.Context, studentID uuid.UUID, from time.Time) ([]Attendance, error) {
	fromCopy := from
	return s.ListAttendance(ctx, ListAttendanceParams{StudentID: &studentID, From: &fromCopy})
}

func (s *Store) UpdateAttendance(ctx context.Context, rec Attendance) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE attendance
		SET status = $2, check_in = $3, check_out = $4, note = $5, updated_at = $6
		WHERE id = $1
	`, rec.ID, rec.Status, rec.CheckIn, rec.CheckOut, rec.Note, rec.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteAttendance(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAttendance(row pgx.Row) (Attendance, error) {
	var rec Attendance
	err := row.Scan(
		&rec.ID,
		&rec.StudentID,
		&rec.Date,
		&rec.Status,
		&rec.CheckIn,
		&rec.CheckOut,
		&rec.Note,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Attendance{}, err
	}
	return rec, nil
}
