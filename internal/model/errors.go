package model

import "errors"

var (
	// ErrNotFound is returned when a resource doesn't exist.
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("resource not valid")
	// ErrConflict is returned when a request contains mutually exclusive settings.
	ErrConflict = errors.New("conflicting settings")
)
