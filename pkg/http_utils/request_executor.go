package http_utils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

// drainBody reads all of b to memory and then returns two equivalent
// ReadClosers yielding the same bytes.
func drainBody(b io.ReadCloser) (r1, r2 io.ReadCloser, err error) {
	if b == nil || b == http.NoBody {
		return http.NoBody, http.NoBody, nil
	}
	var buf bytes.Buffer
	if _, err = buf.ReadFrom(b); err != nil {
		return nil, b, err
	}
	if err = b.Close(); err != nil {
		return nil, b, err
	}
	return io.NopCloser(&buf), io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// FullResponseData holds the response body and its raw dump
type FullResponseData struct {
	Body     []byte
	BodySize int
	Raw      []byte
	RawSize  int
}

// Exchange is a request as it was sent together with the response it received.
// The response body has already been read into ResponseData.
type Exchange struct {
	Request      *http.Request
	RequestBody  []byte
	RequestDump  []byte
	Response     *http.Response
	ResponseData FullResponseData
	Duration     time.Duration
}

// StatusCode returns the response status code, or 0 when there is no response
func (e *Exchange) StatusCode() int {
	if e == nil || e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Body returns the response body bytes
func (e *Exchange) Body() []byte {
	if e == nil {
		return nil
	}
	return e.ResponseData.Body
}

// ResponseHeader returns a response header value
func (e *Exchange) ResponseHeader(name string) string {
	if e == nil || e.Response == nil {
		return ""
	}
	return e.Response.Header.Get(name)
}

// RequestHeader returns a request header value
func (e *Exchange) RequestHeader(name string) string {
	if e == nil || e.Request == nil {
		return ""
	}
	return e.Request.Header.Get(name)
}

// Dump returns the raw request followed by the raw response
func (e *Exchange) Dump() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.Write(e.RequestDump)
	if len(e.ResponseData.Raw) > 0 {
		b.WriteString("\n\n")
		b.Write(e.ResponseData.Raw)
	}
	return b.String()
}

// RequestExecutionResult contains the complete result of an HTTP request execution
type RequestExecutionResult struct {
	Exchange *Exchange
	Duration time.Duration
	Err      error
	TimedOut bool
}

// RequestExecutionOptions contains options for executing HTTP requests
type RequestExecutionOptions struct {
	Client  *http.Client
	Timeout time.Duration
}

// ExecuteRequest executes an HTTP request and captures the request and response
func ExecuteRequest(req *http.Request, options RequestExecutionOptions) RequestExecutionResult {
	startTime := time.Now()

	client := options.Client
	if client == nil {
		client = CreateHttpClient("")
	}

	if options.Timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), options.Timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	result := RequestExecutionResult{}

	var savedBodyBytes []byte
	if req.Body != nil && req.Body != http.NoBody {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			result.Err = err
			result.Duration = time.Since(startTime)
			return result
		}
		savedBodyBytes = bodyBytes
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		req.ContentLength = int64(len(bodyBytes))
	}

	requestDump := dumpRequest(req, savedBodyBytes)

	response, err := client.Do(req)
	result.Duration = time.Since(startTime)
	result.Err = err

	if err != nil {
		result.TimedOut = IsTimeoutError(err)
		return result
	}

	responseBody1, responseBody2, err := drainBody(response.Body)
	if err != nil {
		result.Err = err
		return result
	}

	response.Body = responseBody1
	responseDump, err := httputil.DumpResponse(response, true)
	if err != nil {
		result.Err = err
		return result
	}

	bodyBytes, err := io.ReadAll(responseBody2)
	if err != nil {
		result.Err = err
		return result
	}
	responseBody2.Close()
	response.Body = http.NoBody

	result.Exchange = &Exchange{
		Request:     req,
		RequestBody: savedBodyBytes,
		RequestDump: requestDump,
		Response:    response,
		ResponseData: FullResponseData{
			Body:     bodyBytes,
			BodySize: len(bodyBytes),
			Raw:      responseDump,
			RawSize:  len(responseDump),
		},
		Duration: result.Duration,
	}
	return result
}

func dumpRequest(req *http.Request, body []byte) []byte {
	clone := req.Clone(req.Context())
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
	}
	dump, err := httputil.DumpRequestOut(clone, body != nil)
	if err != nil {
		return nil
	}
	return dump
}

// IsTimeoutError checks if an error is due to timeout
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	errorStr := err.Error()
	return strings.Contains(errorStr, "timeout") ||
		strings.Contains(errorStr, "deadline exceeded") ||
		strings.Contains(errorStr, "context deadline exceeded") ||
		strings.Contains(errorStr, "operation timed out")
}
