package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrDatasetNotFound is returned when a dataset does not exist or belongs to another user.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// InputError describes a request payload problem the caller should report
// as a bad request rather than an internal failure.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

func invalidInput(reason string) error {
	return &InputError{Reason: reason}
}
