// Package fileupload probes multipart upload endpoints for unsafe handling of
// uploaded files. Each attack vector uploads crafted files, locates them and
// fetches them back to prove execution or unsafe serving.
package fileupload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pyneda/upload-scanner/pkg/fileupload/locator"
	"github.com/pyneda/upload-scanner/pkg/fileupload/mutation"
	"github.com/pyneda/upload-scanner/pkg/fileupload/vectors"
	"github.com/pyneda/upload-scanner/pkg/http_utils"
	"github.com/pyneda/upload-scanner/pkg/scan/control"
	"github.com/pyneda/upload-scanner/pkg/scan/options"
)

// Options are the scan settings shared by every vector of an executor.
type Options struct {
	ScanID string           `json:"scan_id"`
	Mode   options.ScanMode `json:"mode" validate:"omitempty,oneof=fast smart fuzz"`
	// SendRequestsAfterFinding keeps running the remaining vectors after one succeeds.
	SendRequestsAfterFinding bool `json:"send_requests_after_finding"`
}

func (o Options) Validate() error {
	return validator.New().Struct(o)
}

// Target is one upload opportunity: a multipart request and the file field
// under test.
type Target struct {
	Request             *http_utils.UploadRequest
	FileField           string
	OriginalFileName    string
	OriginalContentType string
}

// NewTarget reads the original file name and content type of field.
func NewTarget(request *http_utils.UploadRequest, field string) (*Target, error) {
	if request == nil {
		return nil, errors.New("upload request is required")
	}
	part, ok := request.FilePart(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", http_utils.ErrFileFieldNotFound, field)
	}
	if part.FileName == "" {
		return nil, fmt.Errorf("file field %s: %w", field, mutation.ErrMissingOriginalFileName)
	}
	return &Target{
		Request:             request,
		FileField:           field,
		OriginalFileName:    part.FileName,
		OriginalContentType: part.ContentType,
	}, nil
}

// Stats counts the requests sent by the vectors. It is safe for concurrent use.
type Stats struct {
	Attempts atomic.Int64
	Uploads  atomic.Int64
	Located  atomic.Int64
	Fetches  atomic.Int64
	Findings atomic.Int64
	Failures atomic.Int64
}

// Env holds the collaborators vectors run with.
type Env struct {
	Sender  http_utils.Sender
	Locator *locator.Locator
	Alerts  AlertHandler
	Control *control.ScanControl
	Options Options
	Stats   *Stats
}

func (e Env) stats() *Stats {
	if e.Stats == nil {
		return &Stats{}
	}
	return e.Stats
}

// RunVector uploads the vector's payloads under each of its mutations in
// order until the matcher proves the vulnerability, which is reported once.
// Extended rounds only run at the top scan mode. Mutations that cannot be
// uploaded, located or fetched are skipped. It returns false when the control
// is cancelled.
func RunVector(ctx context.Context, env Env, target *Target, vector *vectors.Vector) bool {
	logger := log.With().Str("vector", vector.Name).Str("field", target.FileField).Str("scan_id", env.Options.ScanID).Logger()
	stats := env.stats()

	for _, round := range vector.ActiveRounds(env.Options.Mode) {
		for _, provider := range round.Mutations {
			if env.Control != nil && !env.Control.Checkpoint(ctx) {
				logger.Debug().Msg("Scan stopped, skipping remaining mutations")
				return false
			}
			stats.Attempts.Add(1)
			if attempt(ctx, env, target, vector, round.Payload, provider, logger) {
				return true
			}
		}
	}
	return false
}

func attempt(ctx context.Context, env Env, target *Target, vector *vectors.Vector, payload vectors.Payload, provider mutation.FileInformationProvider, logger zerolog.Logger) bool {
	stats := env.stats()

	fileName, err := provider.FileName(target.OriginalFileName)
	if err != nil {
		logger.Debug().Err(err).Msg("Could not compute mutated file name")
		return false
	}
	contentType := provider.ContentType(target.OriginalContentType)
	logger = logger.With().Str("file_name", fileName).Str("content_type", contentType).Logger()

	mutated := target.Request.Clone()
	if err := mutated.SetFile(target.FileField, fileName, contentType, payload.Content); err != nil {
		logger.Debug().Err(err).Msg("Could not set file part")
		return false
	}
	uploadRequest, err := mutated.Build(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("Could not build upload request")
		return false
	}
	upload, err := env.Sender.Send(ctx, uploadRequest)
	stats.Uploads.Add(1)
	if err != nil {
		stats.Failures.Add(1)
		logger.Debug().Err(err).Msg("Upload request failed")
		return false
	}

	location := env.Locator.Locate(ctx, mutated, upload, fileName)
	if location.Status != locator.Found {
		if location.Status == locator.Failed {
			stats.Failures.Add(1)
		}
		logger.Debug().Err(location.Err).Str("status", location.Status.String()).Msg("Uploaded file could not be located")
		return false
	}
	stats.Located.Add(1)
	fileURL := location.URL
	if vector.LocationRewrite != nil {
		fileURL = vector.LocationRewrite(fileURL)
	}

	fetchRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL.String(), nil)
	if err != nil {
		logger.Debug().Err(err).Msg("Could not build retrieval request")
		return false
	}
	http_utils.CopyAuthenticationHeaders(fetchRequest.Header, target.Request.Header)
	if ua := target.Request.Header.Get("User-Agent"); ua != "" {
		fetchRequest.Header.Set("User-Agent", ua)
	}
	retrieval, err := env.Sender.Send(ctx, fetchRequest)
	stats.Fetches.Add(1)
	if err != nil {
		stats.Failures.Add(1)
		logger.Debug().Err(err).Str("url", fileURL.String()).Msg("Uploaded file retrieval failed")
		return false
	}

	if !vector.Matcher.Match(retrieval) {
		logger.Debug().Str("url", fileURL.String()).Int("status", retrieval.StatusCode()).Msg("Retrieved file does not prove the vulnerability")
		return false
	}

	stats.Findings.Add(1)
	alert := newAlert(target, vector.Name, vector.Classification, payload.Name, fileName, contentType, upload, retrieval, fileURL.String())
	alert.ScanID = env.Options.ScanID
	if env.Alerts != nil {
		if err := env.Alerts.HandleAlert(ctx, alert); err != nil {
			logger.Error().Err(err).Msg("Failed to handle alert")
		}
	}
	return true
}
