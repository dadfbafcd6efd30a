package http_utils

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsContentDispositionInline(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		set      bool
		expected bool
	}{
		{"missing header", "", false, true},
		{"blank header", "   ", true, true},
		{"inline", "inline", true, true},
		{"inline uppercase", "INLINE", true, true},
		{"inline with filename", `inline; filename="a.html"`, true, true},
		{"attachment", "attachment", true, false},
		{"attachment with filename", `attachment; filename="a.html"`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.set {
				header.Set("Content-Disposition", tt.value)
			}
			assert.Equal(t, tt.expected, IsContentDispositionInline(header))
		})
	}
}

func TestIsScriptExecutableContentType(t *testing.T) {
	assert.True(t, IsScriptExecutableContentType("text/html"))
	assert.True(t, IsScriptExecutableContentType("text/html; charset=utf-8"))
	assert.True(t, IsScriptExecutableContentType("Image/SVG+XML"))
	assert.True(t, IsScriptExecutableContentType("application/xhtml+xml"))
	assert.False(t, IsScriptExecutableContentType("text/plain"))
	assert.False(t, IsScriptExecutableContentType(""))
}

func TestIsXMLContentType(t *testing.T) {
	assert.True(t, IsXMLContentType("text/xml"))
	assert.True(t, IsXMLContentType("Application/XML; charset=utf-8"))
	assert.False(t, IsXMLContentType("image/svg+xml"))
	assert.False(t, IsXMLContentType("text/html"))
	assert.False(t, IsXMLContentType(""))
}

func TestMediaTypeAndCharset(t *testing.T) {
	assert.Equal(t, "text/html", MediaType("Text/HTML; charset=UTF-8"))
	assert.Equal(t, "text/html", MediaType("text/html; charset"))
	assert.Equal(t, "UTF-8", Charset("text/html; charset=UTF-8"))
	assert.Equal(t, "", Charset("text/html"))
	assert.Equal(t, "", Charset(""))
}

func TestCopyAuthenticationHeaders(t *testing.T) {
	src := http.Header{}
	src.Add("Cookie", "session=1")
	src.Set("Authorization", "Bearer token")
	src.Set("Content-Type", "multipart/form-data")

	dst := http.Header{}
	CopyAuthenticationHeaders(dst, src)

	assert.Equal(t, "session=1", dst.Get("Cookie"))
	assert.Equal(t, "Bearer token", dst.Get("Authorization"))
	assert.Empty(t, dst.Get("Content-Type"))

	src.Set("Cookie", "session=2")
	assert.Equal(t, "session=1", dst.Get("Cookie"))
}
