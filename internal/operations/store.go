package operations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hejolabs/academy-manage/internal/db"
)

// Store is the persistence surface the lifecycle operations need.
// *db.Store satisfies it; tests substitute an in-memory fake. Methods
// that cover a multi-statement sequence (InsertPaymentDeactivatingPrior,
// the progress/extension updates) are atomic at the store level.
type Store interface {
	GetStudent(ctx context.Context, id uuid.UUID) (db.Student, error)
	GetPayment(ctx context.Context, id uuid.UUID) (db.Payment, error)
	GetAttendance(ctx context.Context, id uuid.UUID) (db.Attendance, error)
	HasAttendanceOn(ctx context.Context, studentID uuid.UUID, date time.Time) (bool, error)
	CreateAttendance(ctx context.Context, rec db.Attendance) error
	InsertPaymentDeactivatingPrior(ctx context.Context, payment db.Payment) error
	UpdatePaymentProgress(ctx context.Context, id uuid.UUID, sessionsCompleted int32, active bool, updatedAt time.Time) error
	UpdatePaymentExtension(ctx context.Context, id uuid.UUID, sessionsTotal int32, amount decimal.Decimal, endDate time.Time, active bool, updatedAt time.Time) error
}
