package http_utils

import (
	"mime"
	"net/http"
	"strings"
)

// Content types browsers execute scripts from when rendered inline
var scriptExecutableContentTypes = []string{
	"text/html",
	"application/xhtml+xml",
	"image/svg+xml",
}

// Generic XML media types. Scripts run under them when the document root is
// an SVG or XHTML element.
var xmlContentTypes = []string{
	"text/xml",
	"application/xml",
}

// IsXMLContentType reports whether the media type of a Content-Type header
// value is one of the generic XML types.
func IsXMLContentType(contentType string) bool {
	mediaType := MediaType(contentType)
	for _, xmlType := range xmlContentTypes {
		if mediaType == xmlType {
			return true
		}
	}
	return false
}

// IsContentDispositionInline reports whether a response would be rendered by a
// browser rather than downloaded: the Content-Disposition header is missing,
// blank, or of the inline type.
func IsContentDispositionInline(header http.Header) bool {
	value := strings.TrimSpace(header.Get("Content-Disposition"))
	if value == "" {
		return true
	}
	dispositionType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.EqualFold(value, "inline")
	}
	return dispositionType == "inline"
}

// IsScriptExecutableContentType reports whether the media type of a
// Content-Type header value lets browsers run embedded scripts.
func IsScriptExecutableContentType(contentType string) bool {
	mediaType := MediaType(contentType)
	for _, executable := range scriptExecutableContentTypes {
		if mediaType == executable {
			return true
		}
	}
	return false
}

// MediaType returns the lowercase media type of a Content-Type value without parameters.
func MediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Charset returns the charset parameter of a Content-Type value, if any.
func Charset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

// CopyAuthenticationHeaders copies the headers that carry the session from src to dst.
func CopyAuthenticationHeaders(dst, src http.Header) {
	for _, name := range []string{"Cookie", "Authorization"} {
		if values := src.Values(name); len(values) > 0 {
			dst[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
}
