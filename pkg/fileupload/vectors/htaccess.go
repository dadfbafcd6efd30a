package vectors

import (
	"net/url"
	"strings"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
	"github.com/pyneda/upload-scanner/pkg/fileupload/mutation"
)

const (
	HTAccessVectorName     = "htaccess"
	htaccessFileName       = ".htaccess"
	htaccessPayload        = "Options +Indexes"
	htaccessExpectedOutput = "Index of /"
)

// htaccessWithOriginalExtension names the file .htaccess followed by the
// given null byte marker and the original extension.
func htaccessWithOriginalExtension(marker, contentType string) mutation.Func {
	f := mutation.Func{
		Name: func(originalFileName string) string {
			return htaccessFileName + marker + mutation.PrefixPeriod(mutation.Extension(originalFileName))
		},
	}
	if contentType != "" {
		f.Type = func(string) string { return contentType }
	}
	return f
}

// ParentDirectory rewrites a located file URL to the directory holding it.
func ParentDirectory(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	rewritten := *u
	if idx := strings.LastIndex(rewritten.Path, "/"); idx >= 0 {
		rewritten.Path = rewritten.Path[:idx+1]
		rewritten.RawPath = ""
	}
	rewritten.RawQuery = ""
	return &rewritten
}

// NewHTAccessVector uploads an Apache .htaccess enabling directory listings
// and checks the upload directory for an index page.
func NewHTAccessVector() *Vector {
	providers := []mutation.FileInformationProvider{
		mutation.Constant(htaccessFileName, ""),
		mutation.Constant(htaccessFileName, ContentTypeText),
		htaccessWithOriginalExtension(mutation.NullByte, ""),
		htaccessWithOriginalExtension(mutation.NullByte, ContentTypeHTML),
		htaccessWithOriginalExtension(mutation.EncodedNullByte, ""),
		htaccessWithOriginalExtension(mutation.EncodedNullByte, ContentTypeText),
	}
	return &Vector{
		Name:            HTAccessVectorName,
		Classification:  db.FileUploadHtaccessCode,
		Rounds:          []Round{{Payload: Payload{Name: "htaccess", Content: []byte(htaccessPayload)}, Mutations: providers}},
		Matcher:         matcher.NewContains(htaccessExpectedOutput, nil),
		LocationRewrite: ParentDirectory,
	}
}
