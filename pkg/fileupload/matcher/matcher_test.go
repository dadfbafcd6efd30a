package matcher

import (
	"crypto"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyneda/upload-scanner/pkg/http_utils"
)

func exchangeWith(body string, header http.Header) *http_utils.Exchange {
	if header == nil {
		header = http.Header{}
	}
	return &http_utils.Exchange{
		Request:      &http.Request{Header: http.Header{}},
		Response:     &http.Response{StatusCode: http.StatusOK, Header: header},
		ResponseData: http_utils.FullResponseData{Body: []byte(body), BodySize: len(body)},
	}
}

const htmlPayload = "<html><head></head><body>Testing XSS</body></html>"

func TestHashMatcherIsReflexive(t *testing.T) {
	m := NewHash(htmlPayload, nil)
	exchange := exchangeWith(htmlPayload, nil)
	assert.True(t, m.Match(exchange))
	assert.True(t, m.Match(exchange), "evaluating twice yields the same result")
}

func TestHashMatcherRejectsSingleByteMutation(t *testing.T) {
	m := NewHash(htmlPayload, nil)
	mutated := []byte(htmlPayload)
	mutated[10] ^= 0x01
	assert.False(t, m.Match(exchangeWith(string(mutated), nil)))
	assert.False(t, m.Match(exchangeWith(htmlPayload+"\n", nil)))
}

func TestHashMatcherIgnoresResponseCharset(t *testing.T) {
	m := NewHash(htmlPayload, nil)
	utf16Header := http.Header{}
	utf16Header.Set("Content-Type", "text/html; charset=utf-16")
	assert.True(t, m.Match(exchangeWith(htmlPayload, utf16Header)))

	accented := NewHash("café", nil)
	utf8Header := http.Header{}
	utf8Header.Set("Content-Type", "text/html; charset=utf-8")
	assert.True(t, accented.Match(exchangeWith("caf\xe9", utf8Header)), "defaults to latin-1")
	assert.False(t, accented.Match(exchangeWith("café", utf8Header)))
}

func TestHashMatcherUsesRequestCharset(t *testing.T) {
	m := NewHash("café", nil)
	exchange := exchangeWith("café", nil)
	exchange.Request.Header.Set("Content-Type", "multipart/form-data; charset=utf-8")
	assert.True(t, m.Match(exchange))

	latin1 := exchangeWith("caf\xe9", nil)
	latin1.Request.Header.Set("Content-Type", "multipart/form-data; charset=utf-8")
	assert.False(t, m.Match(latin1))

	unknown := exchangeWith("caf\xe9", nil)
	unknown.Request.Header.Set("Content-Type", "multipart/form-data; charset=no-such-charset")
	assert.True(t, m.Match(unknown), "unknown charsets fall back to latin-1")
}

func TestHashMatcherUnavailableAlgorithmNeverMatches(t *testing.T) {
	m := Hash{Expected: htmlPayload, Algorithm: crypto.MD4}
	assert.False(t, m.Match(exchangeWith(htmlPayload, nil)))
}

func TestHashMatcherPrecondition(t *testing.T) {
	m := NewHash(htmlPayload, ContentDispositionInline)

	inline := http.Header{}
	inline.Set("Content-Disposition", "inline")
	assert.True(t, m.Match(exchangeWith(htmlPayload, inline)))

	attachment := http.Header{}
	attachment.Set("Content-Disposition", `attachment; filename="a.html"`)
	assert.False(t, m.Match(exchangeWith(htmlPayload, attachment)))
}

func TestContainsMatcher(t *testing.T) {
	m := NewContains("SimplePHPFileUpload_SasanLabs_ZAP_Identifier", nil)
	assert.True(t, m.Match(exchangeWith("<html>SimplePHPFileUpload_SasanLabs_ZAP_Identifier</html>", nil)))
	assert.False(t, m.Match(exchangeWith(`<?php echo "SimplePHPFileUpload"."_SasanLabs_ZAP_Identifier" ?>`, nil)))
	assert.False(t, m.Match(exchangeWith("", nil)))
	assert.False(t, m.Match(nil))
	assert.False(t, m.Match(&http_utils.Exchange{}))
}

func TestContainsMatcherPrecondition(t *testing.T) {
	never := func(*http_utils.Exchange) bool { return false }
	m := NewContains("Index of /", never)
	assert.False(t, m.Match(exchangeWith("Index of /uploads", nil)))
}

func TestScriptExecutable(t *testing.T) {
	assert.True(t, ScriptExecutable(exchangeWith("", nil)))

	html := http.Header{}
	html.Set("Content-Type", "text/html; charset=utf-8")
	assert.True(t, ScriptExecutable(exchangeWith("", html)))

	plain := http.Header{}
	plain.Set("Content-Type", "text/plain")
	assert.False(t, ScriptExecutable(exchangeWith("", plain)))
	assert.False(t, ScriptExecutable(nil))
}

func TestSVGScriptExecutable(t *testing.T) {
	for _, contentType := range []string{"image/svg+xml", "text/xml", "application/xml; charset=utf-8", "text/html"} {
		header := http.Header{}
		header.Set("Content-Type", contentType)
		assert.True(t, SVGScriptExecutable(exchangeWith("", header)), contentType)
		assert.Equal(t, contentType == "image/svg+xml" || contentType == "text/html", ScriptExecutable(exchangeWith("", header)), contentType)
	}

	plain := http.Header{}
	plain.Set("Content-Type", "text/plain")
	assert.False(t, SVGScriptExecutable(exchangeWith("", plain)))
	assert.True(t, SVGScriptExecutable(exchangeWith("", nil)))
	assert.False(t, SVGScriptExecutable(nil))
}

func TestAll(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "image/svg+xml")
	exchange := exchangeWith("", header)
	assert.True(t, All(ContentDispositionInline, ScriptExecutable)(exchange))
	assert.True(t, All()(exchange))

	header.Set("Content-Disposition", "attachment")
	assert.False(t, All(ContentDispositionInline, ScriptExecutable)(exchange))
	assert.True(t, Always(exchange))
}
