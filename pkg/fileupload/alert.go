package fileupload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/lib"
	"github.com/pyneda/upload-scanner/pkg/http_utils"
)

// ConfidenceMedium is the confidence attached to file upload findings.
const ConfidenceMedium = 50

// Alert is a confirmed file upload vulnerability.
type Alert struct {
	ScanID         string       `json:"scan_id" yaml:"scan_id"`
	Vector         string       `json:"vector" yaml:"vector"`
	Classification db.IssueCode `json:"classification" yaml:"classification"`
	Severity       string       `json:"severity" yaml:"severity"`
	Confidence     int          `json:"confidence" yaml:"confidence"`
	Name           string       `json:"name" yaml:"name"`
	Description    string       `json:"description" yaml:"description"`
	Remediation    string       `json:"remediation" yaml:"remediation"`
	References     []string     `json:"references" yaml:"references"`
	Cwe            int          `json:"cwe" yaml:"cwe"`
	// URI is where the uploaded file was retrieved from.
	URI string `json:"uri" yaml:"uri"`
	// Parameter is the multipart file field that was attacked.
	Parameter string `json:"parameter" yaml:"parameter"`
	// Attack is the retrieval request and response proving the issue.
	Attack string `json:"attack" yaml:"attack"`
	// UploadEvidence is the upload request and response.
	UploadEvidence string    `json:"upload_evidence" yaml:"upload_evidence"`
	OtherInfo      string    `json:"other_info" yaml:"other_info"`
	FileName       string    `json:"file_name" yaml:"file_name"`
	ContentType    string    `json:"content_type" yaml:"content_type"`
	Payload        string    `json:"payload" yaml:"payload"`
	FoundAt        time.Time `json:"found_at" yaml:"found_at"`

	Upload    *http_utils.Exchange `json:"-" yaml:"-"`
	Retrieval *http_utils.Exchange `json:"-" yaml:"-"`
}

func newAlert(target *Target, vectorName string, code db.IssueCode, payloadName, fileName, contentType string, upload, retrieval *http_utils.Exchange, retrievedFrom string) Alert {
	alert := Alert{
		Vector:         vectorName,
		Classification: code,
		Confidence:     ConfidenceMedium,
		URI:            retrievedFrom,
		Parameter:      target.FileField,
		Attack:         retrieval.Dump(),
		UploadEvidence: upload.Dump(),
		OtherInfo:      fmt.Sprintf("Uploaded %s as %q with content type %q", payloadName, fileName, contentType),
		FileName:       fileName,
		ContentType:    contentType,
		Payload:        payloadName,
		FoundAt:        time.Now(),
		Upload:         upload,
		Retrieval:      retrieval,
	}
	if template, ok := db.GetIssueTemplate(code); ok {
		alert.Name = template.Title
		alert.Description = template.Description
		alert.Remediation = template.Remediation
		alert.References = template.References
		alert.Severity = template.Severity
		alert.Cwe = template.Cwe
	}
	return alert
}

// Issue converts the alert into an issue record.
func (a Alert) Issue() db.Issue {
	issue := db.Issue{
		Code:          a.Classification.String(),
		Title:         a.Name,
		Description:   a.Description,
		Details:       a.OtherInfo,
		Remediation:   a.Remediation,
		Cwe:           a.Cwe,
		URL:           a.URI,
		HTTPMethod:    "GET",
		Payload:       fmt.Sprintf("%s (%s)", a.FileName, a.ContentType),
		UploadRequest: []byte(a.UploadEvidence),
		Confidence:    a.Confidence,
		References:    db.StringSlice(a.References),
		Severity:      db.NewSeverity(a.Severity),
		ScanID:        a.ScanID,
	}
	if a.Retrieval != nil {
		issue.StatusCode = a.Retrieval.StatusCode()
		issue.Request = a.Retrieval.RequestDump
		issue.Response = a.Retrieval.ResponseData.Raw
	}
	return issue
}

func (a Alert) String() string {
	return fmt.Sprintf("[%s] %s: %s", a.Severity, a.Name, a.URI)
}

func (a Alert) Pretty() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", lib.Colorize(a.Name, lib.SeverityColor(a.Severity)))
	fmt.Fprintf(&b, "  %s %s\n", lib.Label("Severity"), a.Severity)
	fmt.Fprintf(&b, "  %s %s\n", lib.Label("URL"), a.URI)
	fmt.Fprintf(&b, "  %s %s\n", lib.Label("Parameter"), a.Parameter)
	fmt.Fprintf(&b, "  %s %q (%s)\n", lib.Label("File"), a.FileName, a.ContentType)
	return b.String()
}

func (a Alert) TableHeaders() []string {
	return []string{"Vector", "Severity", "Parameter", "URL", "File name", "Content type"}
}

func (a Alert) TableRow() []string {
	return []string{a.Vector, a.Severity, a.Parameter, a.URI, fmt.Sprintf("%q", a.FileName), a.ContentType}
}

// AlertHandler receives confirmed vulnerabilities. It is called once per
// vulnerability per vector per scan.
type AlertHandler interface {
	HandleAlert(ctx context.Context, alert Alert) error
}

// AlertHandlerFunc adapts a function to AlertHandler.
type AlertHandlerFunc func(ctx context.Context, alert Alert) error

func (f AlertHandlerFunc) HandleAlert(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}

// LogAlertHandler logs alerts at warn level.
type LogAlertHandler struct{}

func (LogAlertHandler) HandleAlert(_ context.Context, alert Alert) error {
	log.Warn().
		Str("scan_id", alert.ScanID).
		Str("vector", alert.Vector).
		Str("classification", alert.Classification.String()).
		Str("severity", alert.Severity).
		Str("url", alert.URI).
		Str("parameter", alert.Parameter).
		Str("file_name", alert.FileName).
		Str("content_type", alert.ContentType).
		Msg("New issue found")
	return nil
}

// DatabaseAlertHandler stores alerts as issues.
type DatabaseAlertHandler struct {
	Connection *db.DatabaseConnection
}

func (h DatabaseAlertHandler) HandleAlert(_ context.Context, alert Alert) error {
	issue, err := h.Connection.CreateIssue(alert.Issue())
	if err != nil {
		return fmt.Errorf("failed to store issue: %w", err)
	}
	log.Debug().Uint("id", issue.ID).Str("code", issue.Code).Msg("Issue stored")
	return nil
}

// CollectorAlertHandler keeps alerts in memory. It is safe for concurrent use.
type CollectorAlertHandler struct {
	mu     sync.Mutex
	alerts []Alert
}

func (c *CollectorAlertHandler) HandleAlert(_ context.Context, alert Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return nil
}

// Alerts returns a copy of the collected alerts.
func (c *CollectorAlertHandler) Alerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	alerts := make([]Alert, len(c.alerts))
	copy(alerts, c.alerts)
	return alerts
}

// EvidenceAlertHandler writes the evidence of every alert to its own file in Dir.
type EvidenceAlertHandler struct {
	Dir string
}

// EvidencePath returns the file the evidence of alert is written to.
func (h EvidenceAlertHandler) EvidencePath(alert Alert) string {
	name := slug.Make(fmt.Sprintf("%s %s %s", alert.ScanID, alert.Vector, alert.URI))
	return filepath.Join(h.Dir, name+".txt")
}

func (h EvidenceAlertHandler) HandleAlert(_ context.Context, alert Alert) error {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\nURL: %s\nParameter: %s\n%s\n", alert.Name, alert.Description, alert.URI, alert.Parameter, alert.OtherInfo)
	fmt.Fprintf(&b, "\n==== Upload ====\n%s\n", alert.UploadEvidence)
	fmt.Fprintf(&b, "\n==== Retrieval ====\n%s\n", alert.Attack)
	return os.WriteFile(h.EvidencePath(alert), []byte(b.String()), 0o644)
}

// MultiAlertHandler forwards alerts to every handler, joining their errors.
type MultiAlertHandler []AlertHandler

func (m MultiAlertHandler) HandleAlert(ctx context.Context, alert Alert) error {
	var errs []error
	for _, handler := range m {
		if handler == nil {
			continue
		}
		if err := handler.HandleAlert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
