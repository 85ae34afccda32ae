package util

import (
	"regexp"
	"strings"
)

var (
	unsafeKeyChars   = regexp.MustCompile(`[^\w.\-]`)
	duplicateSlashes = regexp.MustCompile(`/+`)
)

// SafeFilename makes a file name usable inside an object storage key
func SafeFilename(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// DispositionFilename strips the characters that would break out of a quoted
// Content-Disposition filename
func DispositionFilename(name string) string {
	if name == "" {
		return "download"
	}

	return strings.NewReplacer(`"`, "_", `\`, "_", "\r", "_", "\n", "_").Replace(name)
}

// NormalizeFolder turns user supplied folder paths into "a/b/c" form.
// Anything empty or equal to "root" is the root folder "/"
func NormalizeFolder(folder string) string {
	cleaned := strings.TrimSpace(folder)
	cleaned = strings.ReplaceAll(cleaned, `\`, "/")
	cleaned = duplicateSlashes.ReplaceAllString(cleaned, "/")
	cleaned = strings.TrimPrefix(cleaned, "/")
	cleaned = strings.TrimSuffix(cleaned, "/")

	if cleaned == "" || strings.EqualFold(cleaned, "root") {
		return "/"
	}

	return cleaned
}

// InlineType reports whether browsers can render mime without running
// anything
func InlineType(mime string) bool {
	return strings.HasPrefix(mime, "image/") ||
		strings.HasPrefix(mime, "text/") ||
		strings.HasPrefix(mime, "application/pdf")
}
