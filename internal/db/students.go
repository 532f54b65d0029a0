package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const studentColumns = `id, name, grade, phone, email, memo, subjects, schedule, active, created_at, updated_at`

func (s *Store) CreateStudent(ctx context.Context, student Student) error {
	subjects, err := json.Marshal(student.Subjects)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO students (id, name, grade, phone, email, memo, subjects, schedule, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, student.ID, student.Name, student.Grade, student.Phone, student.Email, student.Memo,
		subjects, []byte(student.Schedule), student.Active, student.CreatedAt, student.UpdatedAt)
	return err
}

func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	row := s.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

type ListStudentsParams struct {
	Search string
	Active *bool
	Limit  int32
	Offset int32
}

func (s *Store) ListStudents(ctx context.Context, params ListStudentsParams) ([]Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE TRUE`
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	query += " ORDER BY name ASC, created_at ASC"
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

	students := []Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) UpdateStudent(ctx context.Context, student Student) error {
	subjects, err := json.Marshal(student.Subjects)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE students
		SET name = $2, grade = $3, phone = $4, email = $5, memo = $6, subjects = $7, schedule = $8, active = $9, updated_at = $10
		WHERE id = $1
	`, student.ID, student.Name, student.Grade, student.Phone, student.Email, student.Memo,
		subjects, []byte(student.Schedule), student.Active, student.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) SetStudentActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE students SET active = $2, updated_at = $3 WHERE id = $1
	`, id, active, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteStudentCascade hard-deletes a student together with every
// attendance record and payment that references them, in one
// transaction. Soft-deactivation via SetStudentActive is the default
// deletion path; this is the explicit destructive one.
func (s *Store) DeleteStudentCascade(ctx context.Context, id uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.db.Exec(ctx, `DELETE FROM attendance WHERE student_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.db.Exec(ctx, `DELETE FROM payments WHERE student_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func scanStudent(row pgx.Row) (Student, error) {
	var student Student
	var subjects []byte
	var schedule []byte
	err := row.Scan(
		&student.ID,
		&student.Name,
		&student.Grade,
		&student.Phone,
		&student.Email,
		&student.Memo,
		&subjects,
		&schedule,
		&student.Active,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return Student{}, err
	}
	if len(subjects) > 0 {
		if err := json.Unmarshal(subjects, &student.Subjects); err != nil {
			return Student{}, err
		}
	}
	student.Schedule = schedule
	return student, nil
}
