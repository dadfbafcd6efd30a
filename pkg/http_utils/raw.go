package http_utils

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ParseRawRequest parses a raw HTTP/1.x request as saved by an intercepting
// proxy. The body is taken verbatim from everything after the header block so
// stale Content-Length values left by manual edits are ignored. scheme is used
// when the request line carries a path instead of an absolute URL.
func ParseRawRequest(raw []byte, scheme string) (*http.Request, error) {
	headerBlock, body, err := splitHTTPMessage(raw)
	if err != nil {
		headerBlock, body = bytes.TrimRight(raw, "\r\n"), nil
	}
	normalized := bytes.ReplaceAll(headerBlock, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\n"), []byte("\r\n"))

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(append(normalized, []byte("\r\n\r\n")...))))
	if err != nil {
		return nil, fmt.Errorf("parsing raw request: %w", err)
	}

	if scheme == "" {
		scheme = "https"
	}
	if req.URL.Scheme == "" {
		req.URL.Scheme = strings.ToLower(scheme)
	}
	if req.URL.Host == "" {
		req.URL.Host = req.Host
	}
	if req.URL.Host == "" {
		return nil, fmt.Errorf("parsing raw request: missing Host header")
	}
	req.RequestURI = ""
	req.Header.Del("Content-Length")
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	return req, nil
}

// splitHTTPMessage separates the header block from the body at the first
// blank line. Proxies save messages with CRLF line endings but hand edited
// files often use LF, sometimes mixed with a CRLF multipart body.
func splitHTTPMessage(message []byte) (header, body []byte, err error) {
	idx, size := -1, 0
	for _, separator := range [][]byte{[]byte("\r\n\r\n"), []byte("\n\n"), []byte("\n\r\n")} {
		if i := bytes.Index(message, separator); i >= 0 && (idx < 0 || i < idx) {
			idx, size = i, len(separator)
		}
	}
	if idx < 0 {
		return nil, nil, errors.New("invalid HTTP message format")
	}
	return message[:idx], message[idx+size:], nil
}
