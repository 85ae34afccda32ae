package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeShape(t *testing.T) {
	for range 1000 {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)

		for _, r := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestCodeAlphabet(t *testing.T) {
	assert.Len(t, CodeAlphabet, 62)
}

func TestEnsureUniqueRetriesUntilFree(t *testing.T) {
	taken := map[string]bool{"a": true, "b": true, "c": true}
	queue := []string{"a", "b", "c", "d"}

	gen := func() (string, error) {
		next := queue[0]
		queue = queue[1:]
		return next, nil
	}

	exists := func(_ context.Context, code string) (bool, error) {
		return taken[code], nil
	}

	code, err := EnsureUnique(context.Background(), gen, exists)
	require.NoError(t, err)
	assert.Equal(t, "d", code)
}

func TestEnsureUniqueHasNoRetryCap(t *testing.T) {
	calls := 0
	gen := func() (string, error) {
		calls++
		return "x", nil
	}

	exists := func(context.Context, string) (bool, error) {
		return calls < 10_000, nil
	}

	_, err := EnsureUnique(context.Background(), gen, exists)
	require.NoError(t, err)
	assert.Equal(t, 10_000, calls)
}

func TestEnsureUniqueStops(t *testing.T) {
	alwaysTaken := func(context.Context, string) (bool, error) { return true, nil }

	t.Run("context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := EnsureUnique(ctx, GenerateCode, alwaysTaken)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("exists error", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := EnsureUnique(context.Background(), GenerateCode, func(context.Context, string) (bool, error) {
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("generator error", func(t *testing.T) {
		boom := errors.New("no entropy")
		_, err := EnsureUnique(context.Background(), func() (string, error) { return "", boom }, alwaysTaken)
		assert.ErrorIs(t, err, boom)
	})
}
