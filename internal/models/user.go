package models

import "errors"

// LocalUser is the identity used when the server runs in single-user mode.
const LocalUser = "local-user"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type SessionUser struct {
	UserID string `json:"user_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
