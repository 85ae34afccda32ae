package service

import (
	"context"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	CodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength   = 10
)

// GenerateCode returns a fresh share code drawn from crypto/rand
func GenerateCode() (string, error) {
	return gonanoid.Generate(CodeAlphabet, CodeLength)
}

// EnsureUnique keeps generating candidates until exists reports one as free.
// There is no retry cap, 62^10 codes make a second round unlikely enough.
// Only ctx or a failing callback stops the loop
func EnsureUnique(ctx context.Context, generate func() (string, error), exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := generate()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}

		if !taken {
			return code, nil
		}
	}
}
