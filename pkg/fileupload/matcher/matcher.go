// Package matcher decides whether a fetched response proves that an uploaded
// payload was stored or executed.
package matcher

import (
	"bytes"
	"crypto"
	_ "crypto/md5"
	_ "crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/pyneda/upload-scanner/pkg/http_utils"
)

// ContentMatcher evaluates a fetched response. Match must be a pure function of
// the exchange.
type ContentMatcher interface {
	Match(exchange *http_utils.Exchange) bool
}

// Precondition gates a matcher. A false result means no match.
type Precondition func(exchange *http_utils.Exchange) bool

// Always is the default precondition.
func Always(*http_utils.Exchange) bool { return true }

// ContentDispositionInline holds when the response would be rendered inline by a browser.
func ContentDispositionInline(exchange *http_utils.Exchange) bool {
	if exchange == nil || exchange.Response == nil {
		return false
	}
	return http_utils.IsContentDispositionInline(exchange.Response.Header)
}

// ScriptExecutable holds when the response Content-Type is missing, leaving the
// browser to sniff it, or is a type browsers execute scripts from.
func ScriptExecutable(exchange *http_utils.Exchange) bool {
	if exchange == nil || exchange.Response == nil {
		return false
	}
	contentType := strings.TrimSpace(exchange.Response.Header.Get("Content-Type"))
	return contentType == "" || http_utils.IsScriptExecutableContentType(contentType)
}

// SVGScriptExecutable also accepts the generic XML media types, under which
// an SVG rooted document still runs its scripts.
func SVGScriptExecutable(exchange *http_utils.Exchange) bool {
	if exchange == nil || exchange.Response == nil {
		return false
	}
	if ScriptExecutable(exchange) {
		return true
	}
	return http_utils.IsXMLContentType(exchange.Response.Header.Get("Content-Type"))
}

// All combines preconditions, holding only when every one of them does.
func All(preconditions ...Precondition) Precondition {
	return func(exchange *http_utils.Exchange) bool {
		for _, precondition := range preconditions {
			if !precondition(exchange) {
				return false
			}
		}
		return true
	}
}

// Hash matches when the digest of the response body equals the digest of the
// expected value encoded with the declared charset. Both sides are normalised
// through base64 before hashing.
type Hash struct {
	Expected     string
	Precondition Precondition
	Algorithm    crypto.Hash
}

// NewHash returns an MD5 based Hash matcher.
func NewHash(expected string, precondition Precondition) Hash {
	return Hash{Expected: expected, Precondition: precondition, Algorithm: crypto.MD5}
}

func (m Hash) Match(exchange *http_utils.Exchange) bool {
	if exchange == nil || exchange.Response == nil {
		return false
	}
	if m.Precondition != nil && !m.Precondition(exchange) {
		return false
	}
	algorithm := m.Algorithm
	if algorithm == 0 {
		algorithm = crypto.MD5
	}
	if !algorithm.Available() {
		log.Debug().Str("algorithm", algorithm.String()).Msg("Hash algorithm not available, treating as no match")
		return false
	}

	reference, err := requestEncoding(exchange).NewEncoder().Bytes([]byte(m.Expected))
	if err != nil {
		log.Debug().Err(err).Msg("Could not encode the expected value with the declared charset")
		return false
	}
	return bytes.Equal(digest(algorithm, exchange.Body()), digest(algorithm, reference))
}

func (m Hash) String() string {
	return "hash(" + m.Expected + ")"
}

func digest(algorithm crypto.Hash, data []byte) []byte {
	h := algorithm.New()
	h.Write([]byte(base64.StdEncoding.EncodeToString(data)))
	return h.Sum(nil)
}

// requestEncoding resolves the charset declared by the upload request and
// defaults to ISO-8859-1. The response label is ignored so a file echoed back
// byte for byte still matches when the server mislabels it.
func requestEncoding(exchange *http_utils.Exchange) encoding.Encoding {
	charset := http_utils.Charset(exchange.RequestHeader("Content-Type"))
	if charset == "" {
		return charmap.ISO8859_1
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		log.Debug().Err(err).Str("charset", charset).Msg("Unknown charset")
		return charmap.ISO8859_1
	}
	return enc
}

// Contains matches when the response body contains the expected value verbatim.
type Contains struct {
	Expected     string
	Precondition Precondition
}

func NewContains(expected string, precondition Precondition) Contains {
	return Contains{Expected: expected, Precondition: precondition}
}

func (m Contains) Match(exchange *http_utils.Exchange) bool {
	if exchange == nil || exchange.Response == nil {
		return false
	}
	if m.Precondition != nil && !m.Precondition(exchange) {
		return false
	}
	return bytes.Contains(exchange.Body(), []byte(m.Expected))
}

func (m Contains) String() string {
	return "contains(" + m.Expected + ")"
}
