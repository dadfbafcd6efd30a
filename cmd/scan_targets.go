package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/pyneda/upload-scanner/lib"
	"github.com/pyneda/upload-scanner/pkg/fileupload"
	"github.com/pyneda/upload-scanner/pkg/http_utils"
	"github.com/pyneda/upload-scanner/pkg/web"
)

// targetsFromUploadRequest returns one target per selected file field of request.
// An empty selection attacks every file field.
func targetsFromUploadRequest(request *http_utils.UploadRequest, fields []string) ([]*fileupload.Target, error) {
	available := request.FileFields()
	if len(available) == 0 {
		return nil, fmt.Errorf("request to %s has no file fields", request.URL)
	}
	selected := available
	if len(fields) > 0 {
		selected = nil
		for _, field := range fields {
			if lib.SliceContains(available, field) {
				selected = append(selected, field)
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("none of the fields %v found in request to %s, available: %v", fields, request.URL, available)
		}
	}

	var targets []*fileupload.Target
	for _, field := range selected {
		target, err := fileupload.NewTarget(request, field)
		if err != nil {
			log.Warn().Err(err).Str("field", field).Str("url", request.URL.String()).Msg("Skipping file field")
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// uploadRequestFromRawFile reads a raw multipart request saved from a proxy.
func uploadRequestFromRawFile(path, scheme string, extraHeaders http.Header) (*http_utils.UploadRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	req, err := http_utils.ParseRawRequest(raw, scheme)
	if err != nil {
		return nil, err
	}
	request, err := http_utils.ParseUploadRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	applyHeaders(request.Header, extraHeaders)
	return request, nil
}

func applyHeaders(dst, src http.Header) {
	for name, values := range src {
		dst[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
}

// collectTargets gathers the targets of raw request files and of the upload
// forms found on the given pages.
func collectTargets(ctx context.Context, sender http_utils.Sender, requestFiles, pageURLs []string, scheme string, fields []string, header http.Header) []*fileupload.Target {
	var targets []*fileupload.Target
	for _, path := range requestFiles {
		request, err := uploadRequestFromRawFile(path, scheme, header)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Could not read upload request")
			continue
		}
		found, err := targetsFromUploadRequest(request, fields)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("No targets in upload request")
			continue
		}
		targets = append(targets, found...)
	}

	for _, pageURL := range pageURLs {
		forms, err := web.FetchUploadForms(ctx, sender, pageURL, header)
		if err != nil {
			log.Error().Err(err).Str("url", pageURL).Msg("Could not discover upload forms")
			continue
		}
		for _, form := range forms {
			applyHeaders(form.Request.Header, header)
			found, err := targetsFromUploadRequest(form.Request, fields)
			if err != nil {
				log.Warn().Err(err).Str("action", form.Action).Msg("Skipping upload form")
				continue
			}
			targets = append(targets, found...)
		}
	}
	return targets
}
