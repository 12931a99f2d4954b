package service

import "errors"

var (
	// ErrForbidden short-circuits an operation entirely: no partial state
	// change is ever committed on an authorization failure.
	ErrForbidden = errors.New("actor lacks required capability")

	ErrNotFound      = errors.New("record not found")
	ErrInvalidAction = errors.New("unknown review action")
)
