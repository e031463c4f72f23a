package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("User not found")
	ErrUserAlreadyExists   = errors.New("User already exists")
	ErrBonusAlreadyClaimed = errors.New("Bonus already claimed")
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrNotSubscribed       = errors.New("Subscribe to the channel first")
	ErrForbidden           = errors.New("telegram_id does not match init data")
)

// ValidationError reports malformed or missing input. Msg is shown to the caller as is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
