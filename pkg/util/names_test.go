package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFolder(t *testing.T) {
	cases := map[string]string{
		"":              "/",
		"   ":           "/",
		"/":             "/",
		"root":          "/",
		"ROOT":          "/",
		"docs":          "docs",
		"/docs/":        "docs",
		`docs\\reports`: "docs/reports",
		"a//b///c":      "a/b/c",
		" /a/b/ ":       "a/b",
	}

	for in, want := range cases {
		assert.Equal(t, want, NormalizeFolder(in), "input %q", in)
	}
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "my_report__final_.pdf", SafeFilename("my report (final).pdf"))
	assert.Equal(t, "a-b_c.txt", SafeFilename("a-b_c.txt"))
}

func TestDispositionFilename(t *testing.T) {
	assert.Equal(t, "download", DispositionFilename(""))
	assert.Equal(t, "a_b_c_.txt", DispositionFilename("a\"b\\c\n.txt"))
}

func TestInlineType(t *testing.T) {
	assert.True(t, InlineType("image/png"))
	assert.True(t, InlineType("text/plain; charset=utf-8"))
	assert.True(t, InlineType("application/pdf"))
	assert.False(t, InlineType("application/zip"))
	assert.False(t, InlineType("text"))
}
