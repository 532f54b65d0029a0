package operations

const (
	ErrStudentNotFound     = "student_not_found"
	ErrStudentInactive     = "student_inactive"
	ErrPaymentNotFound     = "payment_not_found"
	ErrAttendanceNotFound  = "attendance_not_found"
	ErrAttendanceMismatch  = "attendance_mismatch"
	ErrAttendanceExists    = "attendance_exists"
	ErrInvalidAmount       = "invalid_amount"
	ErrInvalidSessionCount = "invalid_session_count"
	ErrInvalidStatus       = "invalid_status"
	ErrPaymentInactive     = "payment_inactive"
	ErrSessionsExhausted   = "sessions_exhausted"
	ErrFutureDate          = "future_date"
	ErrServerError         = "server_error"
)

// Error carries a stable snake_case code that the HTTP layer maps to a
// status and the client can branch on.
type Error struct {
	Code string
}

func (e *Error) Error() string {
	return e.Code
}
