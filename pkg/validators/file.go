package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileEmpty           = errors.New("file is empty")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 200

// DefaultAllowedTypes is used when upload.allowed_types is empty. Entries
// ending with a slash match every subtype
var DefaultAllowedTypes = []string{
	"image/",
	"text/",
	"video/",
	"audio/",
	"application/pdf",
	"application/zip",
	"application/x-7z-compressed",
	"application/gzip",
	"application/json",
	"application/xml",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/octet-stream",
}

// Upload is a multipart file that passed validation. MimeType comes from
// the content, never from the client supplied header
type Upload struct {
	File     multipart.File
	Name     string
	Size     int64
	MimeType string
}

// FileValidator checks an uploaded file against the size limit and the MIME
// allow-list. On success the returned file is rewound and must be closed by
// the caller
func FileValidator(fh *multipart.FileHeader, maxSize int64, allowed []string) (int, *Upload, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrFileNameTooLong
	}

	if fh.Size <= 0 {
		return http.StatusBadRequest, nil, ErrFileEmpty
	}

	if fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if !MimeAllowed(mime, allowed) {
		f.Close()
		return http.StatusUnsupportedMediaType, nil, ErrFileTypeUnsupported
	}

	// The header size is client supplied, make sure nothing follows
	_, err = f.Seek(maxSize, io.SeekStart)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	buf := make([]byte, 1)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if n > 0 {
		f.Close()
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	return 0, &Upload{
		File:     f,
		Name:     fh.Filename,
		Size:     fh.Size,
		MimeType: mime.String(),
	}, nil
}

// MimeAllowed matches a detected type, or any of its parents, against the
// allow-list
func MimeAllowed(mime *mimetype.MIME, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}

	for m := mime; m != nil; m = m.Parent() {
		base, _, _ := strings.Cut(m.String(), ";")

		for _, a := range allowed {
			if strings.HasSuffix(a, "/") {
				if strings.HasPrefix(base, a) {
					return true
				}
				continue
			}

			if m.Is(a) {
				return true
			}
		}
	}

	return false
}
