package operations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hejolabs/academy-manage/internal/db"
)

// fakeStore is an in-memory Store for exercising lifecycle rules
// without a database.
type fakeStore struct {
	students   map[uuid.UUID]db.Student
	attendance map[uuid.UUID]db.Attendance
	payments   map[uuid.UUID]db.Payment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students:   map[uuid.UUID]db.Student{},
		attendance: map[uuid.UUID]db.Attendance{},
		payments:   map[uuid.UUID]db.Payment{},
	}
}

func (f *fakeStore) addStudent(name string) uuid.UUID {
	id := uuid.New()
	f.students[id] = db.Student{ID: id, Name: name, Active: true}
	return id
}

func (f *fakeStore) GetStudent(_ context.Context, id uuid.UUID) (db.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return db.Student{}, pgx.ErrNoRows
	}
	return student, nil
}

func (f *fakeStore) GetPayment(_ context.Context, id uuid.UUID) (db.Payment, error) {
	payment, ok := f.payments[id]
	if !ok {
		return db.Payment{}, pgx.ErrNoRows
	}
	return payment, nil
}

func (f *fakeStore) GetAttendance(_ context.Context, id uuid.UUID) (db.Attendance, error) {
	rec, ok := f.attendance[id]
	if !ok {
		return db.Attendance{}, pgx.ErrNoRows
	}
	return rec, nil
}

func (f *fakeStore) HasAttendanceOn(_ context.Context, studentID uuid.UUID, date time.Time) (bool, error) {
	for _, rec := range f.attendance {
		if rec.StudentID == studentID && rec.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateAttendance(_ context.Context, rec db.Attendance) error {
	f.attendance[rec.ID] = rec
	return nil
}

func (f *fakeStore) InsertPaymentDeactivatingPrior(_ context.Context, payment db.Payment) error {
	for id, prior := range f.payments {
		if prior.StudentID == payment.StudentID && prior.Active {
			prior.Active = false
			f.payments[id] = prior
		}
	}
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakeStore) UpdatePaymentProgress(_ context.Context, id uuid.UUID, sessionsCompleted int32, active bool, updatedAt time.Time) error {
	payment, ok := f.payments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	payment.SessionsCompleted = sessionsCompleted
	payment.Active = active
	payment.UpdatedAt = updatedAt
	f.payments[id] = payment
	return nil
}

func (f *fakeStore) UpdatePaymentExtension(_ context.Context, id uuid.UUID, sessionsTotal int32, amount decimal.Decimal, endDate time.Time, active bool, updatedAt time.Time) error {
	payment, ok := f.payments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	payment.SessionsTotal = sessionsTotal
	payment.Amount = amount
	payment.EndDate = endDate
	payment.Active = active
	payment.UpdatedAt = updatedAt
	f.payments[id] = payment
	return nil
}

func (f *fakeStore) activePaymentsFor(studentID uuid.UUID) []db.Payment {
	active := []db.Payment{}
	for _, payment := range f.payments {
		if payment.StudentID == studentID && payment.Active {
			active = append(active, payment)
		}
	}
	return active
}

// emptyHolidays is a HolidayProvider with no holidays in any year.
type emptyHolidays struct{}

func (emptyHolidays) HolidaysFor(int) map[time.Time]bool { return map[time.Time]bool{} }
