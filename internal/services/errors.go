package services

import "errors"

var (
	// ErrUserNotFound indicates the referenced user row does not exist.
	ErrUserNotFound = errors.New("services: user not found")
	// ErrEventNotFound indicates the referenced event row does not exist.
	ErrEventNotFound = errors.New("services: event not found")
)
