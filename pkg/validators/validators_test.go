package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailValidator(t *testing.T) {
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("not-an-email"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("Bob <bob@example.com>"), ErrEmailInvalid)
	assert.NoError(t, EmailValidator("bob@example.com"))
}

func TestPasswordValidator(t *testing.T) {
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("a", 256)), ErrPasswordTooLong)
	assert.NoError(t, PasswordValidator("long enough"))

	assert.NoError(t, LinkPasswordValidator("x"))
	assert.ErrorIs(t, LinkPasswordValidator(strings.Repeat("a", 256)), ErrPasswordTooLong)
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	_, fh, err := req.FormFile("file")
	require.NoError(t, err)
	return fh
}

func TestFileValidator(t *testing.T) {
	t.Run("text passes", func(t *testing.T) {
		code, up, err := FileValidator(fileHeader(t, "notes.txt", []byte("plain text content")), 1<<20, nil)
		require.NoError(t, err)
		defer up.File.Close()

		assert.Zero(t, code)
		assert.Equal(t, "notes.txt", up.Name)
		assert.EqualValues(t, 18, up.Size)
		assert.True(t, strings.HasPrefix(up.MimeType, "text/plain"))
	})

	t.Run("empty", func(t *testing.T) {
		code, _, err := FileValidator(fileHeader(t, "empty.txt", nil), 1<<20, nil)
		assert.ErrorIs(t, err, ErrFileEmpty)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("too large", func(t *testing.T) {
		code, _, err := FileValidator(fileHeader(t, "big.txt", bytes.Repeat([]byte("a"), 100)), 99, nil)
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	})

	t.Run("type not allowed", func(t *testing.T) {
		code, _, err := FileValidator(fileHeader(t, "notes.txt", []byte("plain text content")), 1<<20, []string{"image/"})
		assert.ErrorIs(t, err, ErrFileTypeUnsupported)
		assert.Equal(t, http.StatusUnsupportedMediaType, code)
	})

	t.Run("no file", func(t *testing.T) {
		_, _, err := FileValidator(nil, 1, nil)
		assert.ErrorIs(t, err, ErrNoFile)
	})
}

func TestMimeAllowed(t *testing.T) {
	png := mimetype.Detect([]byte("\x89PNG\r\n\x1a\n0000"))
	assert.True(t, MimeAllowed(png, []string{"image/"}))
	assert.True(t, MimeAllowed(png, []string{"image/png"}))
	assert.False(t, MimeAllowed(png, []string{"application/pdf"}))

	// JSON is a child of text/plain
	js := mimetype.Detect([]byte(`{"a": 1}`))
	assert.True(t, MimeAllowed(js, []string{"text/"}))
	assert.True(t, MimeAllowed(js, nil))
}
