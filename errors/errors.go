package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Delivery
	ErrValidation         = fmt.Errorf("validation failed")
	ErrEmptyMessage       = fmt.Errorf("text or image is required")
	ErrSelfMessage        = fmt.Errorf("cannot send messages to yourself")
	ErrRecipientNotFound  = fmt.Errorf("receiver not found")
	ErrMediaUpload        = fmt.Errorf("media upload failed")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")

	// Push
	ErrSinkFull   = fmt.Errorf("connection buffer full")
	ErrSinkClosed = fmt.Errorf("connection closed")

	// Accounts
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrUserAlreadyExists  = fmt.Errorf("email already in use")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnauthenticated    = fmt.Errorf("unauthorized")
)
