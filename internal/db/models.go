package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent    AttendanceStatus = "present"
	AttendanceStatusAbsent     AttendanceStatus = "absent"
	AttendanceStatusLate       AttendanceStatus = "late"
	AttendanceStatusEarlyLeave AttendanceStatus = "early_leave"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

type Student struct {
	ID        uuid.UUID
	Name      string
	Grade     *string
	Phone     *string
	Email     *string
	Memo      string
	Subjects  []string
	Schedule  json.RawMessage
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attendance holds one record per student per calendar date; the
// (student_id, date) pair is unique at the schema level. CheckIn and
// CheckOut are clock times in "HH:MM" form.
type Attendance struct {
	ID        uuid.UUID
	StudentID uuid.UUID
	Date      time.Time
	Status    AttendanceStatus
	CheckIn   *string
	CheckOut  *string
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is a prepaid session package. EndDate is derived from
// StartDate, SessionsTotal and the calendar exclusion rules in force
// when the package was created or last extended.
type Payment struct {
	ID                uuid.UUID
	StudentID         uuid.UUID
	Amount            decimal.Decimal
	Method            PaymentMethod
	StartDate         time.Time
	EndDate           time.Time
	SessionsTotal     int32
	SessionsCompleted int32
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
