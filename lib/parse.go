package lib

import (
	"net/http"
	"strings"
)

// ParseHeaders parses "Name: value" pairs separated by commas or new lines.
// A segment without a header name continues the previous value, so values
// such as "Accept: text/html, application/json" survive the split.
func ParseHeaders(headersStr string) http.Header {
	headers := http.Header{}
	var name string
	for _, line := range strings.FieldsFunc(headersStr, func(r rune) bool { return r == '\n' || r == '\r' }) {
		for _, segment := range strings.Split(line, ",") {
			key, value, found := strings.Cut(segment, ":")
			key = strings.TrimSpace(key)
			if found && key != "" && !strings.ContainsAny(key, " \t;=") {
				name = http.CanonicalHeaderKey(key)
				headers.Add(name, strings.TrimSpace(value))
				continue
			}
			if name == "" || strings.TrimSpace(segment) == "" {
				continue
			}
			values := headers[name]
			values[len(values)-1] += "," + segment
		}
		name = ""
	}
	return headers
}
