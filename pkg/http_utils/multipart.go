package http_utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/pyneda/upload-scanner/lib"
)

const maxMultipartPartSize = 32 << 20

var (
	ErrNotMultipart      = errors.New("request is not multipart/form-data")
	ErrMissingBoundary   = errors.New("invalid Content-Type, boundary not found")
	ErrFileFieldNotFound = errors.New("file field not found")
)

// MultipartPart is a single part of a multipart/form-data body. Parts with a
// FileName are file parts, the rest are ordinary form fields.
type MultipartPart struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     []byte
	IsFile      bool
}

// UploadRequest is an editable multipart/form-data request. Parts keep the
// order in which they were received so rebuilt requests stay close to what
// the application itself sends.
type UploadRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Parts  []MultipartPart
}

// ParseUploadRequest reads a multipart/form-data request into an UploadRequest.
// The request body is consumed.
func ParseUploadRequest(req *http.Request) (*UploadRequest, error) {
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return nil, ErrNotMultipart
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return nil, ErrMissingBoundary
	}
	if req.Body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrNotMultipart)
	}
	defer req.Body.Close()

	upload := &UploadRequest{
		Method: req.Method,
		URL:    cloneURL(req.URL),
		Header: req.Header.Clone(),
	}
	upload.Header.Del("Content-Type")
	upload.Header.Del("Content-Length")
	if req.Host != "" && upload.URL.Host == "" {
		upload.URL.Host = req.Host
	}

	reader := multipart.NewReader(req.Body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading multipart body: %w", err)
		}
		content, err := io.ReadAll(io.LimitReader(part, maxMultipartPartSize))
		if err != nil {
			return nil, fmt.Errorf("reading part %q: %w", part.FormName(), err)
		}
		_, dispositionParams, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
		_, isFile := dispositionParams["filename"]
		upload.Parts = append(upload.Parts, MultipartPart{
			FieldName:   part.FormName(),
			FileName:    dispositionParams["filename"],
			ContentType: part.Header.Get("Content-Type"),
			Content:     content,
			IsFile:      isFile,
		})
		part.Close()
	}
	return upload, nil
}

// Clone returns a deep copy of the request.
func (u *UploadRequest) Clone() *UploadRequest {
	clone := &UploadRequest{
		Method: u.Method,
		URL:    cloneURL(u.URL),
		Header: u.Header.Clone(),
		Parts:  make([]MultipartPart, len(u.Parts)),
	}
	for i, part := range u.Parts {
		part.Content = append([]byte(nil), part.Content...)
		clone.Parts[i] = part
	}
	return clone
}

// FileFields returns the names of the fields carrying files, in order.
func (u *UploadRequest) FileFields() []string {
	var fields []string
	for _, part := range u.Parts {
		if part.IsFile {
			fields = append(fields, part.FieldName)
		}
	}
	return lib.GetUniqueItems(fields)
}

// FilePart returns the first file part for the given field.
func (u *UploadRequest) FilePart(field string) (MultipartPart, bool) {
	for _, part := range u.Parts {
		if part.IsFile && part.FieldName == field {
			return part, true
		}
	}
	return MultipartPart{}, false
}

// SetFile overrides the file name, content type and content of the first file
// part named field. Every other part is left untouched.
func (u *UploadRequest) SetFile(field, fileName, contentType string, content []byte) error {
	for i := range u.Parts {
		if u.Parts[i].IsFile && u.Parts[i].FieldName == field {
			u.Parts[i].FileName = fileName
			u.Parts[i].ContentType = contentType
			u.Parts[i].Content = content
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFileFieldNotFound, field)
}

// Cookies returns the cookies carried by the request.
func (u *UploadRequest) Cookies() []*http.Cookie {
	return ParseCookies(strings.Join(u.Header.Values("Cookie"), "; "))
}

// Body encodes the parts and returns the body together with its Content-Type.
// File names are written verbatim, which lets null bytes reach the server.
func (u *UploadRequest) Body() ([]byte, string, error) {
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	for _, part := range u.Parts {
		header := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(part.FieldName))
		if part.IsFile {
			disposition += fmt.Sprintf(`; filename="%s"`, escapeQuotes(part.FileName))
		}
		header.Set("Content-Disposition", disposition)
		if part.ContentType != "" {
			header.Set("Content-Type", part.ContentType)
		}
		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(part.Content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return b.Bytes(), writer.FormDataContentType(), nil
}

// Build creates the http.Request for the current state of the upload.
func (u *UploadRequest) Build(ctx context.Context) (*http.Request, error) {
	body, contentType, err := u.Body()
	if err != nil {
		return nil, err
	}
	method := u.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, u.URL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = u.Header.Clone()
	req.Header.Set("Content-Type", contentType)
	if host := u.Header.Get("Host"); host != "" {
		req.Host = host
		req.Header.Del("Host")
	}
	return req, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	clone := *u
	if u.User != nil {
		user := *u.User
		clone.User = &user
	}
	return &clone
}
