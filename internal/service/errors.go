// Package service holds the share link engine and everything it leans on:
// code generation, the quota ledger, access evaluation, file lifecycle and
// reclamation. Handlers translate its errors to status codes.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("Link not found.")
	ErrExpired                = errors.New("Link has expired.")
	ErrLimitReached           = errors.New("Download limit reached.")
	ErrPasswordRequired       = errors.New("Password required.")
	ErrInvalidPassword        = errors.New("Invalid password.")
	ErrFileGone               = errors.New("File no longer exists.")
	ErrFileNotFound           = errors.New("File not found.")
	ErrUserQuotaExceeded      = errors.New("Storage quota exceeded.")
	ErrGlobalCapacityExceeded = errors.New("Storage capacity of the service is exhausted.")
	ErrStorageIO              = errors.New("object storage failure")
)

// ValidationError is returned for input that is out of range or malformed.
// It's always the caller's fault
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
