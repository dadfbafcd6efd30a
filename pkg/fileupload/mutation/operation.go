// Package mutation builds the candidate file names and content types that are
// uploaded to a target while probing its upload validation.
package mutation

import (
	"errors"
	"fmt"
	"strings"
)

// NullByte is the raw null byte used by suffix mutations to truncate the stored
// file name on filesystems that stop reading at it.
const NullByte = "\x00"

// EncodedNullByte is the percent-encoded variant of NullByte.
const EncodedNullByte = "%00"

var (
	ErrMissingExtension        = errors.New("extension is required for this operation")
	ErrInvalidCombination      = errors.New("extension cannot be set for this operation")
	ErrMissingOriginalFileName = errors.New("original file name is missing")
	ErrUnknownOperation        = errors.New("unknown extension operation")
)

// ExtensionOperation defines how a provided extension is combined with the
// extension of the file that was originally uploaded.
type ExtensionOperation int

const (
	// NoExtension produces a file name without any extension.
	NoExtension ExtensionOperation = iota
	// OnlyProvidedExtension uses only the provided extension: "html" -> ".html".
	OnlyProvidedExtension
	// OnlyOriginalExtension keeps the original upload's extension: "x.pdf" -> ".pdf".
	OnlyOriginalExtension
	// PrefixOriginalExtension places the original extension before the provided one: ".pdf.html".
	PrefixOriginalExtension
	// SuffixOriginalExtension places the original extension after the provided one: ".html%00.pdf".
	SuffixOriginalExtension
)

func (o ExtensionOperation) String() string {
	switch o {
	case NoExtension:
		return "no_extension"
	case OnlyProvidedExtension:
		return "only_provided_extension"
	case OnlyOriginalExtension:
		return "only_original_extension"
	case PrefixOriginalExtension:
		return "prefix_original_extension"
	case SuffixOriginalExtension:
		return "suffix_original_extension"
	default:
		return "unknown"
	}
}

// RequiresExtension reports whether the operation needs a non blank provided extension.
func (o ExtensionOperation) RequiresExtension() bool {
	return o == OnlyProvidedExtension || o == PrefixOriginalExtension || o == SuffixOriginalExtension
}

// Operate returns the final extension, including its leading period, that
// results from applying the operation to the provided extension and the
// original file name.
func (o ExtensionOperation) Operate(provided, originalFileName string) (string, error) {
	if o.RequiresExtension() && isBlank(provided) {
		return "", fmt.Errorf("%s: %w", o, ErrMissingExtension)
	}
	original := Extension(originalFileName)
	switch o {
	case NoExtension:
		return "", nil
	case OnlyProvidedExtension:
		return PrefixPeriod(provided), nil
	case OnlyOriginalExtension:
		return PrefixPeriod(original), nil
	case PrefixOriginalExtension:
		return PrefixPeriod(original + PrefixPeriod(provided)), nil
	case SuffixOriginalExtension:
		return PrefixPeriod(provided + PrefixPeriod(original)), nil
	default:
		return "", fmt.Errorf("%d: %w", int(o), ErrUnknownOperation)
	}
}

// Extension returns everything after the first period of a file name, or an
// empty string when the name has no period.
func Extension(fileName string) string {
	idx := strings.Index(fileName, ".")
	if idx < 0 {
		return ""
	}
	return fileName[idx+1:]
}

// PrefixPeriod prepends a period to an extension unless it is blank or already starts with one.
func PrefixPeriod(extension string) string {
	if isBlank(extension) || strings.HasPrefix(extension, ".") {
		return extension
	}
	return "." + extension
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
