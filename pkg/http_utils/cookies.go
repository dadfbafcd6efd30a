package http_utils

import (
	"net/http"
	"strings"
)

// ParseCookies is a helper function to parse multiple cookies from a string
func ParseCookies(cookieStr string) []*http.Cookie {
	cookies := []*http.Cookie{}
	for _, part := range strings.Split(cookieStr, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// JoinCookies is a helper function to join cookies into a string
func JoinCookies(cookies []*http.Cookie) string {
	cookieStrings := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie != nil {
			cookieStrings = append(cookieStrings, cookie.Name+"="+cookie.Value)
		}
	}
	return strings.Join(cookieStrings, "; ")
}

// MergeCookieHeader adds the cookies to the Cookie header, replacing cookies
// that already exist with the same name.
func MergeCookieHeader(header http.Header, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	existing := ParseCookies(strings.Join(header.Values("Cookie"), "; "))
	merged := make([]*http.Cookie, 0, len(existing)+len(cookies))
	overridden := make(map[string]bool, len(cookies))
	for _, cookie := range cookies {
		overridden[cookie.Name] = true
	}
	for _, cookie := range existing {
		if !overridden[cookie.Name] {
			merged = append(merged, cookie)
		}
	}
	merged = append(merged, cookies...)
	header.Set("Cookie", JoinCookies(merged))
}
