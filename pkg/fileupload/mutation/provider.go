package mutation

import (
	"fmt"
	"strings"

	"github.com/pyneda/upload-scanner/lib"
)

const randomSuffixLength = 12

// FileInformationProvider produces the file name and content type of a single
// mutation given the values of the original upload. Implementations are
// immutable and safe for concurrent use.
type FileInformationProvider interface {
	FileName(originalFileName string) (string, error)
	ContentType(originalContentType string) string
}

// FileParameter is the FileInformationProvider produced by Builder.
type FileParameter struct {
	baseName    string
	extension   string
	contentType string
	operation   ExtensionOperation
}

// FileName returns the base name followed by the extension the operation produces.
func (p *FileParameter) FileName(originalFileName string) (string, error) {
	if originalFileName == "" {
		return "", ErrMissingOriginalFileName
	}
	extension, err := p.operation.Operate(p.extension, originalFileName)
	if err != nil {
		return "", err
	}
	return p.baseName + extension, nil
}

// ContentType returns the configured content type, falling back to the original one.
func (p *FileParameter) ContentType(originalContentType string) string {
	if p.contentType == "" {
		return originalContentType
	}
	return p.contentType
}

func (p *FileParameter) BaseName() string {
	return p.baseName
}

func (p *FileParameter) Extension() string {
	return p.extension
}

func (p *FileParameter) Operation() ExtensionOperation {
	return p.operation
}

func (p *FileParameter) String() string {
	contentType := p.contentType
	if contentType == "" {
		contentType = "original"
	}
	return fmt.Sprintf("%s extension=%q content-type=%s", p.operation, p.extension, contentType)
}

// Builder assembles a FileParameter, validating the extension and operation
// combination when Build is called.
type Builder struct {
	baseName    string
	extension   *string
	contentType string
	operation   ExtensionOperation
}

// NewBuilder starts a FileParameter whose name begins with baseName followed by a
// random suffix, so parallel probes never collide on the stored file.
func NewBuilder(baseName string) *Builder {
	return &Builder{
		baseName:  baseName + lib.GenerateRandomAlphanumericString(randomSuffixLength),
		operation: NoExtension,
	}
}

func (b *Builder) WithExtension(extension string) *Builder {
	b.extension = &extension
	return b
}

func (b *Builder) WithContentType(contentType string) *Builder {
	b.contentType = contentType
	return b
}

func (b *Builder) WithOperation(operation ExtensionOperation) *Builder {
	b.operation = operation
	return b
}

// Build validates the configuration and returns the resulting provider.
func (b *Builder) Build() (*FileParameter, error) {
	if b.operation < NoExtension || b.operation > SuffixOriginalExtension {
		return nil, fmt.Errorf("%d: %w", int(b.operation), ErrUnknownOperation)
	}
	if !b.operation.RequiresExtension() && b.extension != nil {
		return nil, fmt.Errorf("%s with extension %q: %w", b.operation, *b.extension, ErrInvalidCombination)
	}
	if b.operation.RequiresExtension() && (b.extension == nil || strings.TrimSpace(*b.extension) == "") {
		return nil, fmt.Errorf("%s: %w", b.operation, ErrMissingExtension)
	}
	parameter := &FileParameter{
		baseName:    b.baseName,
		contentType: b.contentType,
		operation:   b.operation,
	}
	if b.extension != nil {
		parameter.extension = *b.extension
	}
	return parameter, nil
}

// MustBuild is like Build but panics if the configuration is invalid. It is
// meant for catalogs assembled at start-up.
func (b *Builder) MustBuild() *FileParameter {
	parameter, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("mutation: invalid file parameter for %q: %v", b.baseName, err))
	}
	return parameter
}

// Func is a FileInformationProvider backed by plain functions. A nil Type
// passes the original content type through.
type Func struct {
	Name func(originalFileName string) string
	Type func(originalContentType string) string
}

func (f Func) FileName(originalFileName string) (string, error) {
	return f.Name(originalFileName), nil
}

func (f Func) ContentType(originalContentType string) string {
	if f.Type == nil {
		return originalContentType
	}
	return f.Type(originalContentType)
}

// Constant returns a provider that always uses the given file name and, when
// not empty, the given content type.
func Constant(fileName, contentType string) Func {
	f := Func{Name: func(string) string { return fileName }}
	if contentType != "" {
		f.Type = func(string) string { return contentType }
	}
	return f
}

// Describe renders a provider for log and alert output.
func Describe(provider FileInformationProvider, originalFileName, originalContentType string) string {
	name, err := provider.FileName(originalFileName)
	if err != nil {
		name = "<" + err.Error() + ">"
	}
	return fmt.Sprintf("file name %q with content type %q", name, provider.ContentType(originalContentType))
}
