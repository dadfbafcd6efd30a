package fileupload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/fileupload/locator"
	"github.com/pyneda/upload-scanner/pkg/fileupload/mutation"
	"github.com/pyneda/upload-scanner/pkg/fileupload/vectors"
	"github.com/pyneda/upload-scanner/pkg/http_utils"
	"github.com/pyneda/upload-scanner/pkg/scan/options"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

type storedFile struct {
	name        string
	contentType string
	content     []byte
}

// uploadApp is a minimal application storing files posted to /upload and
// serving them back from /uploads/.
type uploadApp struct {
	mu          sync.Mutex
	files       map[string]storedFile
	uploads     int
	fetches     int
	fetchCookie string
	accept      func(storedFile) bool
	serve       func(http.ResponseWriter, storedFile)
	serveDir    func(http.ResponseWriter, map[string]storedFile)
}

func newUploadApp(t *testing.T, accept func(storedFile) bool, serve func(http.ResponseWriter, storedFile)) (*uploadApp, *httptest.Server) {
	t.Helper()
	app := &uploadApp{files: map[string]storedFile{}, accept: accept, serve: serve}
	server := httptest.NewServer(http.HandlerFunc(app.handle))
	t.Cleanup(server.Close)
	return app, server
}

func (a *uploadApp) handle(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		a.uploads++
		reader, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			if part.FormName() != "file" {
				continue
			}
			content, _ := io.ReadAll(part)
			f := storedFile{name: part.FileName(), contentType: part.Header.Get("Content-Type"), content: content}
			if a.accept != nil && !a.accept(f) {
				http.Error(w, "file type not allowed", http.StatusBadRequest)
				return
			}
			a.files[f.name] = f
		}
		w.Write([]byte("<p>Uploaded</p>"))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/uploads/"):
		a.fetches++
		a.fetchCookie = r.Header.Get("Cookie")
		name := strings.TrimPrefix(r.URL.Path, "/uploads/")
		if name == "" && a.serveDir != nil {
			a.serveDir(w, a.files)
			return
		}
		f, ok := a.files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		a.serve(w, f)
	default:
		http.NotFound(w, r)
	}
}

func (a *uploadApp) counts() (uploads, fetches int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploads, a.fetches
}

// serveByExtension serves .html files as HTML and everything else as a download.
func serveByExtension(w http.ResponseWriter, f storedFile) {
	if strings.HasSuffix(f.name, ".html") {
		w.Header().Set("Content-Type", "text/html")
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="download"`)
	}
	w.Write(f.content)
}

func serveAsAttachment(w http.ResponseWriter, f storedFile) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment")
	w.Write(f.content)
}

func originalUpload(t *testing.T, serverURL string) *http_utils.UploadRequest {
	t.Helper()
	u, err := url.Parse(serverURL + "/upload")
	require.NoError(t, err)
	header := http.Header{}
	header.Set("Cookie", "session=abc")
	header.Set("User-Agent", "upload-scanner-test")
	return &http_utils.UploadRequest{
		Method: http.MethodPost,
		URL:    u,
		Header: header,
		Parts: []http_utils.MultipartPart{
			{FieldName: "title", Content: []byte("holiday")},
			{FieldName: "file", FileName: "photo.png", ContentType: "image/png", Content: pngHeader, IsFile: true},
		},
	}
}

func newTestTarget(t *testing.T, serverURL string) *Target {
	t.Helper()
	target, err := NewTarget(originalUpload(t, serverURL), "file")
	require.NoError(t, err)
	return target
}

func newTestEnv(t *testing.T, server *httptest.Server, mode options.ScanMode) (Env, *CollectorAlertHandler) {
	t.Helper()
	sender := http_utils.NewHTTPSenderWithClient(server.Client(), http_utils.SenderOptions{})
	l, err := locator.New(locator.Config{StaticURITemplate: server.URL + "/uploads/${filename}"}, sender)
	require.NoError(t, err)
	alerts := &CollectorAlertHandler{}
	return Env{
		Sender:  sender,
		Locator: l,
		Alerts:  alerts,
		Options: Options{ScanID: "scan-test", Mode: mode},
		Stats:   &Stats{},
	}, alerts
}

type senderFunc func(ctx context.Context, req *http.Request) (*http_utils.Exchange, error)

func (f senderFunc) Send(ctx context.Context, req *http.Request) (*http_utils.Exchange, error) {
	return f(ctx, req)
}

var errConnectionRefused = errors.New("connection refused")

func failingSender() senderFunc {
	return func(context.Context, *http.Request) (*http_utils.Exchange, error) {
		return nil, errConnectionRefused
	}
}

// countingMatcher records every evaluation and returns a fixed result.
type countingMatcher struct {
	calls  atomic.Int32
	result bool
	panics bool
}

func (m *countingMatcher) Match(*http_utils.Exchange) bool {
	m.calls.Add(1)
	if m.panics {
		panic("matcher failure")
	}
	return m.result
}

func stubVector(name string, m *countingMatcher) *vectors.Vector {
	return &vectors.Vector{
		Name:           name,
		Classification: db.FileUploadXssHtmlCode,
		Rounds: []vectors.Round{{
			Payload:   vectors.Payload{Name: name, Content: []byte("payload " + name)},
			Mutations: []mutation.FileInformationProvider{mutation.Constant(name+".txt", "text/plain")},
		}},
		Matcher: m,
	}
}

// serveAll answers every request with 200 so stub vectors always reach their matcher.
func serveAll(w http.ResponseWriter, f storedFile) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write(f.content)
}
