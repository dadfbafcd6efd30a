// Package vectors holds the catalog of file upload attack vectors. Vectors are
// plain data built once at start-up and shared read-only between scans.
package vectors

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/matcher"
	"github.com/pyneda/upload-scanner/pkg/fileupload/mutation"
	"github.com/pyneda/upload-scanner/pkg/scan/options"
)

var ErrInvalidVector = errors.New("invalid attack vector")

// Content types commonly accepted by servers for the uploaded scripts.
const (
	ContentTypeJSP  = "application/x-jsp"
	ContentTypePHP  = "application/x-httpd-php"
	ContentTypeHTML = "text/html"
	ContentTypeText = "text/plain"
	ContentTypeSVG  = "image/svg+xml"
	ContentTypeXML  = "text/xml"
)

// Payload is the content written into the file part of the upload.
type Payload struct {
	Name    string
	Content []byte
}

// Round pairs a payload with an ordered mutation list. Extended rounds only
// run at the top scan intensity.
type Round struct {
	Payload   Payload
	Mutations []mutation.FileInformationProvider
	Extended  bool
}

// Vector is one exploit technique: the rounds of payloads and mutations to
// try, the matcher proving success and the classification reported.
type Vector struct {
	Name           string
	Classification db.IssueCode
	Rounds         []Round
	Matcher        matcher.ContentMatcher
	// LocationRewrite, when set, adjusts the located URL before it is fetched.
	LocationRewrite func(*url.URL) *url.URL
}

// Validate reports authoring mistakes in a vector definition.
func (v *Vector) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidVector)
	}
	if v.Matcher == nil {
		return fmt.Errorf("%w: %s has no matcher", ErrInvalidVector, v.Name)
	}
	if _, ok := db.GetIssueTemplate(v.Classification); !ok {
		return fmt.Errorf("%w: %s has unknown classification %q", ErrInvalidVector, v.Name, v.Classification)
	}
	if len(v.Rounds) == 0 {
		return fmt.Errorf("%w: %s has no rounds", ErrInvalidVector, v.Name)
	}
	for i, round := range v.Rounds {
		if len(round.Payload.Content) == 0 {
			return fmt.Errorf("%w: %s round %d has an empty payload", ErrInvalidVector, v.Name, i)
		}
		if len(round.Mutations) == 0 {
			return fmt.Errorf("%w: %s round %d has no mutations", ErrInvalidVector, v.Name, i)
		}
	}
	return nil
}

// ActiveRounds returns the rounds to run at the given scan mode, in order.
func (v *Vector) ActiveRounds(mode options.ScanMode) []Round {
	rounds := make([]Round, 0, len(v.Rounds))
	for _, round := range v.Rounds {
		if round.Extended && !mode.IsTop() {
			continue
		}
		rounds = append(rounds, round)
	}
	return rounds
}

// MaxAttempts is the number of mutations tried when nothing matches.
func (v *Vector) MaxAttempts(mode options.ScanMode) int {
	total := 0
	for _, round := range v.ActiveRounds(mode) {
		total += len(round.Mutations)
	}
	return total
}

func (v *Vector) String() string {
	return v.Name
}

// defaultAndExtended is the usual shape of a vector: one payload over the
// default mutations followed by the extended ones.
func defaultAndExtended(payload Payload, defaults, extended []mutation.FileInformationProvider) []Round {
	rounds := []Round{{Payload: payload, Mutations: defaults}}
	if len(extended) > 0 {
		rounds = append(rounds, Round{Payload: payload, Mutations: extended, Extended: true})
	}
	return rounds
}

type parameter struct {
	extension   string
	contentType string
	operation   mutation.ExtensionOperation
}

func onlyProvided(extension, contentType string) parameter {
	return parameter{extension: extension, contentType: contentType, operation: mutation.OnlyProvidedExtension}
}

func prefixOriginal(extension, contentType string) parameter {
	return parameter{extension: extension, contentType: contentType, operation: mutation.PrefixOriginalExtension}
}

func suffixOriginal(extension, contentType string) parameter {
	return parameter{extension: extension, contentType: contentType, operation: mutation.SuffixOriginalExtension}
}

// build turns parameters into providers sharing the base name. Each provider
// gets its own random suffix.
func build(baseName string, parameters ...parameter) []mutation.FileInformationProvider {
	providers := make([]mutation.FileInformationProvider, 0, len(parameters))
	for _, p := range parameters {
		builder := mutation.NewBuilder(baseName).WithOperation(p.operation).WithContentType(p.contentType)
		if p.operation.RequiresExtension() {
			builder.WithExtension(p.extension)
		}
		providers = append(providers, builder.MustBuild())
	}
	return providers
}

// eachExtension applies every parameter factory to every extension, grouping
// by factory first.
func eachExtension(extensions []string, contentType string, factories ...func(string, string) parameter) []parameter {
	var parameters []parameter
	for _, factory := range factories {
		for _, extension := range extensions {
			parameters = append(parameters, factory(extension, contentType))
		}
	}
	return parameters
}

// withNullByte appends a null byte to the extension and keeps the original
// extension after it.
func withNullByte(extension, contentType string) parameter {
	return suffixOriginal(extension+mutation.NullByte, contentType)
}

// withEncodedNullByte is withNullByte using the URL encoded form.
func withEncodedNullByte(extension, contentType string) parameter {
	return suffixOriginal(extension+mutation.EncodedNullByte, contentType)
}

// jspDefaultParameters is the default list shared by the JSP based vectors.
func jspDefaultParameters(extension string) []parameter {
	return []parameter{
		onlyProvided(extension, ""),
		onlyProvided(extension, ContentTypeJSP),
		prefixOriginal(extension, ""),
		prefixOriginal(extension, ContentTypeJSP),
		withNullByte(extension, ""),
		withNullByte(extension, ContentTypeJSP),
		withEncodedNullByte(extension, ""),
		withEncodedNullByte(extension, ContentTypeJSP),
	}
}

// caseVariantParameters returns the mixed case variants with and without the
// content type, for each of the given operations.
func caseVariantParameters(variants []string, contentType string, factories ...func(string, string) parameter) []parameter {
	var parameters []parameter
	for _, factory := range factories {
		parameters = append(parameters, eachExtension(variants, "", factory)...)
		parameters = append(parameters, eachExtension(variants, contentType, factory)...)
	}
	return parameters
}
