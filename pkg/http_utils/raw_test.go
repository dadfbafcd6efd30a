package http_utils

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawUpload = "POST /upload?folder=avatars HTTP/1.1\n" +
	"Host: victim.local:8080\n" +
	"Content-Type: multipart/form-data; boundary=XYZ\n" +
	"Content-Length: 9999\n" +
	"Cookie: JSESSIONID=1\n" +
	"\n" +
	"--XYZ\r\n" +
	"Content-Disposition: form-data; name=\"file\"; filename=\"cv.pdf\"\r\n" +
	"Content-Type: application/pdf\r\n" +
	"\r\n" +
	"%PDF-1.4\r\n" +
	"--XYZ--\r\n"

func TestParseRawRequest(t *testing.T) {
	req, err := ParseRawRequest([]byte(rawUpload), "http")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "http://victim.local:8080/upload?folder=avatars", req.URL.String())
	assert.Empty(t, req.RequestURI)
	assert.Empty(t, req.Header.Get("Content-Length"))
	assert.Equal(t, "JSESSIONID=1", req.Header.Get("Cookie"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), req.ContentLength)
	assert.Contains(t, string(body), `filename="cv.pdf"`)
}

func TestParseRawRequestToUploadRequest(t *testing.T) {
	req, err := ParseRawRequest([]byte(rawUpload), "")
	require.NoError(t, err)
	assert.Equal(t, "https", req.URL.Scheme)

	upload, err := ParseUploadRequest(req)
	require.NoError(t, err)
	file, ok := upload.FilePart("file")
	require.True(t, ok)
	assert.Equal(t, "cv.pdf", file.FileName)
	assert.Equal(t, []byte("%PDF-1.4"), file.Content)
}

func TestParseRawRequestWithoutHost(t *testing.T) {
	_, err := ParseRawRequest([]byte("GET / HTTP/1.1\r\n\r\n"), "http")
	assert.Error(t, err)
}

func TestSplitHTTPMessage(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		wantHeader string
		wantBody   string
		wantErr    bool
	}{
		{"crlf", "GET / HTTP/1.1\r\nHost: a\r\n\r\nbody", "GET / HTTP/1.1\r\nHost: a", "body", false},
		{"lf", "GET / HTTP/1.1\nHost: a\n\nbody", "GET / HTTP/1.1\nHost: a", "body", false},
		{"lf headers with crlf multipart body", "POST / HTTP/1.1\nHost: a\n\n--B\r\nX: y\r\n\r\nv\r\n--B--", "POST / HTTP/1.1\nHost: a", "--B\r\nX: y\r\n\r\nv\r\n--B--", false},
		{"empty body", "GET / HTTP/1.1\r\nHost: a\r\n\r\n", "GET / HTTP/1.1\r\nHost: a", "", false},
		{"no separator", "GET / HTTP/1.1\r\nHost: a", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, err := splitHTTPMessage([]byte(tt.message))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, string(header))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}
