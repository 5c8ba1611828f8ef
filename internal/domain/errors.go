package domain

import (
	"errors"
)

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey signals a malformed or parentless record key.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidInput signals a form or task parameter that cannot be parsed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptySubject signals an outbound mail without a subject.
	ErrEmptySubject = errors.New("mail subject must not be empty")
)
