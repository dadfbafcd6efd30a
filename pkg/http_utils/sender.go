package http_utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Sender sends a request and captures the full exchange.
type Sender interface {
	Send(ctx context.Context, req *http.Request) (*Exchange, error)
}

// SenderOptions configures an HTTPSender.
type SenderOptions struct {
	Timeout         time.Duration `validate:"min=0"`
	RateLimit       float64       `validate:"min=0"`
	MaxRetries      int           `validate:"min=0,max=10"`
	RetryDelay      time.Duration `validate:"min=0"`
	UserAgent       string
	Proxy           string `validate:"omitempty,url"`
	HTTPVersion     string `validate:"omitempty,oneof=1.1 2 3"`
	FollowRedirects bool
	UseCookieJar    bool
}

// HTTPSender is the Sender used against real targets. It paces requests with a
// token bucket and retries transport failures. Timeouts are not retried.
type HTTPSender struct {
	client  *http.Client
	limiter *rate.Limiter
	options SenderOptions
}

var ErrEmptyResponse = errors.New("empty response")

// NewHTTPSender validates the options and builds a sender.
func NewHTTPSender(options SenderOptions) (*HTTPSender, error) {
	if err := validator.New().Struct(options); err != nil {
		return nil, err
	}
	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if options.RateLimit > 0 {
		limit = rate.Limit(options.RateLimit)
	}
	return &HTTPSender{
		client: CreateClient(ClientOptions{
			Proxy:           options.Proxy,
			HTTPVersion:     options.HTTPVersion,
			FollowRedirects: options.FollowRedirects,
			UseCookieJar:    options.UseCookieJar,
		}),
		limiter: rate.NewLimiter(limit, 1),
		options: options,
	}, nil
}

// NewHTTPSenderWithClient builds a sender around an existing client.
func NewHTTPSenderWithClient(client *http.Client, options SenderOptions) *HTTPSender {
	limit := rate.Inf
	if options.RateLimit > 0 {
		limit = rate.Limit(options.RateLimit)
	}
	return &HTTPSender{client: client, limiter: rate.NewLimiter(limit, 1), options: options}
}

// Send executes the request, retrying failed attempts up to MaxRetries times.
func (s *HTTPSender) Send(ctx context.Context, req *http.Request) (*Exchange, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	if s.options.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.options.UserAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= s.options.MaxRetries; attempt++ {
		if attempt > 0 && s.options.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.options.RetryDelay):
			}
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
			attemptReq.ContentLength = int64(len(body))
		}
		result := ExecuteRequest(attemptReq, RequestExecutionOptions{
			Client:  s.client,
			Timeout: s.options.Timeout,
		})
		if result.Err == nil {
			if result.Exchange == nil {
				return nil, ErrEmptyResponse
			}
			return result.Exchange, nil
		}
		lastErr = result.Err
		if result.TimedOut || ctx.Err() != nil {
			break
		}
		log.Debug().Err(result.Err).Str("url", req.URL.String()).Int("attempt", attempt+1).Msg("Request failed")
	}
	return nil, lastErr
}
