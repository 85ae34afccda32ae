package validators

import "errors"

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
)

const (
	minPasswordLen = 8
	maxPasswordLen = 255
)

// PasswordValidator checks account passwords. Link passwords only have the
// upper bound, see LinkPasswordValidator
func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < minPasswordLen {
		return ErrPasswordTooShort
	}

	return LinkPasswordValidator(p)
}

func LinkPasswordValidator(p string) error {
	if len(p) > maxPasswordLen {
		return ErrPasswordTooLong
	}

	return nil
}
