package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/pyneda/upload-scanner/pkg/http_utils"
)

// Benign file sent in place of the user's file when an upload request is
// assembled from a form.
const (
	PlaceholderFileName    = "photo.png"
	PlaceholderContentType = "image/png"
	placeholderPNG         = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
)

type InputNameValue struct {
	Name  string
	Value string
}

type InputTypeValue struct {
	Type  string
	Value string
}

var predefinedTypeValues = []InputTypeValue{
	{Type: "text", Value: "defaultText"},
	{Type: "password", Value: "password"},
	{Type: "email", Value: "test@example.com"},
	{Type: "number", Value: "12345"},
	{Type: "search", Value: "defaultSearch"},
	{Type: "tel", Value: "1234567890"},
	{Type: "url", Value: "http://www.example.com"},
	{Type: "date", Value: "2023-06-16"},
	{Type: "time", Value: "12:00"},
	{Type: "datetime-local", Value: "2023-06-16T12:00"},
	{Type: "month", Value: "2023-06"},
	{Type: "week", Value: "2023-W24"},
	{Type: "color", Value: "#ffffff"},
	{Type: "range", Value: "50"},
	{Type: "hidden", Value: "defaultHidden"},
}

var predefinedNameValues = []InputNameValue{
	{Name: "username", Value: "admin"},
	{Name: "password", Value: "password"},
	{Name: "email", Value: "test@example.com"},
	{Name: "firstName", Value: "John"},
	{Name: "lastName", Value: "Doe"},
	{Name: "phone", Value: "1234567890"},
	{Name: "title", Value: "Holiday"},
	{Name: "name", Value: "John Doe"},
	{Name: "description", Value: "This is a default description"},
	{Name: "website", Value: "http://www.example.com"},
	{Name: "bio", Value: "This is a default bio"},
}

const defaultTextareaValue = "This is a default textarea input."

// UploadForm is an HTML form containing at least one file input, together
// with the multipart request a browser would submit for it.
type UploadForm struct {
	ID         string                    `json:"id,omitempty"`
	Action     string                    `json:"action"`
	Method     string                    `json:"method"`
	FileFields []string                  `json:"file_fields"`
	Request    *http_utils.UploadRequest `json:"-"`
}

func (f UploadForm) String() string {
	return fmt.Sprintf("%s %s %s", f.Method, f.Action, strings.Join(f.FileFields, ","))
}

func (f UploadForm) Pretty() string {
	return fmt.Sprintf("%s %s\n  file fields: %s\n", f.Method, f.Action, strings.Join(f.FileFields, ", "))
}

func (f UploadForm) TableHeaders() []string {
	return []string{"ID", "Method", "Action", "File fields"}
}

func (f UploadForm) TableRow() []string {
	return []string{f.ID, f.Method, f.Action, strings.Join(f.FileFields, ", ")}
}

func placeholderContent() []byte {
	content, _ := base64.StdEncoding.DecodeString(placeholderPNG)
	return content
}

// FindUploadForms parses an HTML page and builds an upload request for every
// form with a file input. Text fields keep their default values or get a
// plausible one, file fields carry a placeholder PNG.
func FindUploadForms(body []byte, pageURL *url.URL) ([]UploadForm, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && pageURL != nil {
		if resolved, err := pageURL.Parse(strings.TrimSpace(href)); err == nil {
			base = resolved
		}
	}

	var forms []UploadForm
	doc.Find("form").Each(func(i int, form *goquery.Selection) {
		if form.Find("input").FilterFunction(isFileInput).Length() == 0 {
			return
		}
		uploadForm, err := buildUploadForm(form, base, pageURL)
		if err != nil {
			log.Debug().Err(err).Int("form", i).Msg("Skipping upload form")
			return
		}
		forms = append(forms, uploadForm)
	})
	return forms, nil
}

func isFileInput(_ int, s *goquery.Selection) bool {
	return strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), "file")
}

func buildUploadForm(form *goquery.Selection, base, pageURL *url.URL) (UploadForm, error) {
	action, err := resolveAction(form.AttrOr("action", ""), base)
	if err != nil {
		return UploadForm{}, err
	}
	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", "")))
	if method != http.MethodPost {
		// Browsers only send file contents in POST multipart submissions
		log.Debug().Str("method", method).Str("action", action.String()).Msg("File upload form does not use POST, submitting as POST")
		method = http.MethodPost
	}

	header := http.Header{}
	if pageURL != nil {
		header.Set("Referer", pageURL.String())
		header.Set("Origin", pageURL.Scheme+"://"+pageURL.Host)
	}
	request := &http_utils.UploadRequest{Method: method, URL: action, Header: header}

	form.Find("input, textarea, select").Each(func(_ int, field *goquery.Selection) {
		if part, ok := formPart(field); ok {
			request.Parts = append(request.Parts, part)
		}
	})

	return UploadForm{
		ID:         form.AttrOr("id", ""),
		Action:     action.String(),
		Method:     method,
		FileFields: request.FileFields(),
		Request:    request,
	}, nil
}

func resolveAction(action string, base *url.URL) (*url.URL, error) {
	action = strings.TrimSpace(action)
	if base == nil {
		u, err := url.Parse(action)
		if err != nil {
			return nil, err
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("relative form action %q without page url", action)
		}
		return u, nil
	}
	if action == "" {
		u := *base
		u.Fragment = ""
		return &u, nil
	}
	return base.Parse(action)
}

// formPart returns the part a browser submits for a field, if any.
func formPart(field *goquery.Selection) (http_utils.MultipartPart, bool) {
	name := strings.TrimSpace(field.AttrOr("name", ""))
	if name == "" {
		return http_utils.MultipartPart{}, false
	}
	if _, disabled := field.Attr("disabled"); disabled {
		return http_utils.MultipartPart{}, false
	}

	switch goquery.NodeName(field) {
	case "textarea":
		value := field.Text()
		if value == "" {
			value = defaultTextareaValue
		}
		return http_utils.MultipartPart{FieldName: name, Content: []byte(value)}, true
	case "select":
		option := field.Find("option[selected]").First()
		if option.Length() == 0 {
			option = field.Find("option").First()
		}
		if option.Length() == 0 {
			return http_utils.MultipartPart{}, false
		}
		value, ok := option.Attr("value")
		if !ok {
			value = strings.TrimSpace(option.Text())
		}
		return http_utils.MultipartPart{FieldName: name, Content: []byte(value)}, true
	}

	inputType := strings.ToLower(strings.TrimSpace(field.AttrOr("type", "text")))
	switch inputType {
	case "file":
		return http_utils.MultipartPart{
			FieldName:   name,
			FileName:    PlaceholderFileName,
			ContentType: PlaceholderContentType,
			Content:     placeholderContent(),
			IsFile:      true,
		}, true
	case "submit", "button", "reset", "image":
		return http_utils.MultipartPart{}, false
	case "checkbox", "radio":
		if _, checked := field.Attr("checked"); !checked {
			return http_utils.MultipartPart{}, false
		}
		return http_utils.MultipartPart{FieldName: name, Content: []byte(field.AttrOr("value", "on"))}, true
	}

	if value, ok := field.Attr("value"); ok && value != "" {
		return http_utils.MultipartPart{FieldName: name, Content: []byte(value)}, true
	}
	return http_utils.MultipartPart{FieldName: name, Content: []byte(defaultValue(name, inputType))}, true
}

// defaultValue picks a value for an empty field by name, then by type.
func defaultValue(name, inputType string) string {
	for _, v := range predefinedNameValues {
		if strings.EqualFold(v.Name, name) {
			return v.Value
		}
	}
	for _, v := range predefinedTypeValues {
		if v.Type == inputType {
			return v.Value
		}
	}
	return ""
}

// FetchUploadForms requests pageURL with the given headers and returns the
// upload forms it contains. Session headers are carried over to the built
// upload requests.
func FetchUploadForms(ctx context.Context, sender http_utils.Sender, pageURL string, header http.Header) ([]UploadForm, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		req.Header[key] = append([]string(nil), values...)
	}
	exchange, err := sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if status := exchange.StatusCode(); status >= 400 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", status, pageURL)
	}

	forms, err := FindUploadForms(exchange.Body(), req.URL)
	if err != nil {
		return nil, err
	}
	for _, form := range forms {
		http_utils.CopyAuthenticationHeaders(form.Request.Header, header)
		if ua := header.Get("User-Agent"); ua != "" {
			form.Request.Header.Set("User-Agent", ua)
		}
		if exchange.Response != nil {
			http_utils.MergeCookieHeader(form.Request.Header, exchange.Response.Cookies())
		}
	}
	log.Info().Str("url", pageURL).Int("forms", len(forms)).Msg("Upload forms discovered")
	return forms, nil
}
