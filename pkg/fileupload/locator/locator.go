// Package locator finds the URL an uploaded file can be retrieved from.
package locator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/pyneda/upload-scanner/pkg/http_utils"
)

// FileNamePlaceholder is replaced by the uploaded file name in URL templates.
const FileNamePlaceholder = "${filename}"

var (
	ErrDelimiterNotFound = errors.New("response delimiters not found")
	ErrInvalidTemplate   = errors.New("invalid location template")
	ErrNoStrategy        = errors.New("no location strategy configured")
)

// Config selects how uploaded files are located. It is immutable once passed to New.
//
// StaticURITemplate resolves directly. DynamicURITemplate is fetched and the
// URL template is scraped from its body between StartIdentifier and
// EndIdentifier. When only the identifiers are set the upload response itself
// is scraped.
type Config struct {
	StaticURITemplate  string `json:"static_uri_template" validate:"excluded_with=DynamicURITemplate StartIdentifier EndIdentifier"`
	DynamicURITemplate string `json:"dynamic_uri_template"`
	StartIdentifier    string `json:"start_identifier" validate:"required_with=EndIdentifier DynamicURITemplate"`
	EndIdentifier      string `json:"end_identifier" validate:"required_with=StartIdentifier"`
}

// Validate checks that static and dynamic location settings are not mixed,
// that delimiters come in pairs and that a dynamic template has delimiters.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// Strategy reports the strategy the configuration selects.
func (c Config) Strategy() Strategy {
	switch {
	case strings.TrimSpace(c.StaticURITemplate) != "":
		return StrategyStatic
	case strings.TrimSpace(c.DynamicURITemplate) != "":
		return StrategyDynamic
	case strings.TrimSpace(c.StartIdentifier) != "" && strings.TrimSpace(c.EndIdentifier) != "":
		return StrategyUploadResponse
	default:
		return StrategyNone
	}
}

type Strategy string

const (
	StrategyNone           Strategy = "none"
	StrategyStatic         Strategy = "static"
	StrategyDynamic        Strategy = "dynamic"
	StrategyUploadResponse Strategy = "upload_response"
)

type Status int

const (
	NotFound Status = iota
	Found
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Failed:
		return "failed"
	default:
		return "not_found"
	}
}

// Result is the outcome of locating a file. Probe holds the dynamic probe
// exchange when one was sent.
type Result struct {
	Status Status
	URL    *url.URL
	Err    error
	Probe  *http_utils.Exchange
}

func found(u *url.URL) Result {
	return Result{Status: Found, URL: u}
}

func notFound(err error) Result {
	return Result{Status: NotFound, Err: err}
}

func failed(err error) Result {
	return Result{Status: Failed, Err: err}
}

// Locator resolves uploaded file locations. It holds no per scan state and is
// safe for concurrent use.
type Locator struct {
	config Config
	sender http_utils.Sender
}

// New validates the configuration and builds a Locator. The sender is used for
// dynamic probe requests.
func New(config Config, sender http_utils.Sender) (*Locator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid location configuration: %w", err)
	}
	return &Locator{config: config, sender: sender}, nil
}

func (l *Locator) Config() Config {
	return l.config
}

// Locate determines where the file uploaded as fileName can be fetched from.
// original is the upload request, used for the authority of relative
// templates and for the session of probe requests. upload is the exchange
// returned by the upload itself.
func (l *Locator) Locate(ctx context.Context, original *http_utils.UploadRequest, upload *http_utils.Exchange, fileName string) Result {
	switch l.config.Strategy() {
	case StrategyStatic:
		u, err := Resolve(l.config.StaticURITemplate, fileName, original.URL)
		if err != nil {
			return failed(err)
		}
		return found(u)
	case StrategyDynamic:
		return l.locateDynamic(ctx, original, fileName)
	case StrategyUploadResponse:
		if upload == nil {
			return notFound(ErrDelimiterNotFound)
		}
		result := l.scrape(upload.Body(), fileName, original.URL)
		if result.Status != Found {
			log.Debug().Err(result.Err).Str("file", fileName).Msg("Uploaded file location not present in upload response")
		}
		return result
	default:
		return notFound(ErrNoStrategy)
	}
}

func (l *Locator) locateDynamic(ctx context.Context, original *http_utils.UploadRequest, fileName string) Result {
	probeURL, err := Resolve(l.config.DynamicURITemplate, fileName, original.URL)
	if err != nil {
		return failed(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL.String(), nil)
	if err != nil {
		return failed(err)
	}
	http_utils.CopyAuthenticationHeaders(req.Header, original.Header)
	if ua := original.Header.Get("User-Agent"); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	probe, err := l.sender.Send(ctx, req)
	if err != nil {
		log.Debug().Err(err).Str("url", probeURL.String()).Msg("Location probe request failed")
		return failed(err)
	}
	result := l.scrape(probe.Body(), fileName, original.URL)
	result.Probe = probe
	return result
}

func (l *Locator) scrape(body []byte, fileName string, base *url.URL) Result {
	template, err := Scrape(body, l.config.StartIdentifier, l.config.EndIdentifier)
	if err != nil {
		return notFound(err)
	}
	u, err := Resolve(template, fileName, base)
	if err != nil {
		return failed(err)
	}
	return found(u)
}

// Scrape returns the text between the first start delimiter and the first end
// delimiter that follows it.
func Scrape(body []byte, start, end string) (string, error) {
	if start == "" || end == "" {
		return "", ErrDelimiterNotFound
	}
	startIdx := bytes.Index(body, []byte(start))
	if startIdx < 0 {
		return "", fmt.Errorf("%w: start %q", ErrDelimiterNotFound, start)
	}
	contentStart := startIdx + len(start)
	endIdx := bytes.Index(body[contentStart:], []byte(end))
	if endIdx < 0 {
		return "", fmt.Errorf("%w: end %q after start", ErrDelimiterNotFound, end)
	}
	return strings.TrimSpace(string(body[contentStart : contentStart+endIdx])), nil
}

// Resolve substitutes the file name into template and resolves the result.
// File names are cut at the first null byte, mirroring filesystems, and path
// escaped. Templates that are not absolute http(s) URLs are resolved as
// absolute paths against the scheme and authority of base.
//
// Escaping means an already encoded name such as "shell.php%00.png" is
// requested as "shell.php%2500.png", the literal name a server keeps when it
// does not decode the upload's file name.
func Resolve(template, fileName string, base *url.URL) (*url.URL, error) {
	if idx := strings.Index(fileName, "\x00"); idx >= 0 {
		fileName = fileName[:idx]
	}
	fragment := strings.ReplaceAll(strings.TrimSpace(template), FileNamePlaceholder, url.PathEscape(fileName))
	if fragment == "" {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidTemplate)
	}

	lower := strings.ToLower(fragment)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		u, err := url.Parse(fragment)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		return u, nil
	}

	if base == nil || base.Host == "" {
		return nil, fmt.Errorf("%w: relative template without base url", ErrInvalidTemplate)
	}
	if !strings.HasPrefix(fragment, "/") {
		fragment = "/" + fragment
	}
	ref, err := url.Parse(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return &url.URL{
		Scheme:   base.Scheme,
		User:     base.User,
		Host:     base.Host,
		Path:     ref.Path,
		RawPath:  ref.RawPath,
		RawQuery: ref.RawQuery,
	}, nil
}
