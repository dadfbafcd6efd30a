package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection(t *testing.T) *DatabaseConnection {
	t.Helper()
	conn, err := NewConnection(Config{Type: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewConnectionUnknownType(t *testing.T) {
	_, err := NewConnection(Config{Type: "mysql"})
	assert.ErrorIs(t, err, ErrUnknownDatabaseType)

	_, err = NewConnection(Config{Type: "postgres"})
	assert.Error(t, err)
}

func TestCreateIssueDeduplicates(t *testing.T) {
	conn := newTestConnection(t)

	issue := GetIssueTemplateByCode(FileUploadRcePhpCode)
	require.NotNil(t, issue)
	issue.URL = "http://victim.local/uploads/SimplePHPFileUpload_abc.php"
	issue.Payload = "SimplePHPFileUpload_abc.php (application/x-httpd-php)"
	issue.ScanID = "scan-1"
	issue.Response = []byte("SimplePHPFileUpload_SasanLabs_ZAP_Identifier")

	created, err := conn.CreateIssue(*issue)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.Fingerprint)

	again, err := conn.CreateIssue(*issue)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	stored, err := conn.GetIssue(created.ID)
	require.NoError(t, err)
	assert.Equal(t, Critical, stored.Severity)
	assert.Equal(t, issue.References, stored.References)
	assert.Equal(t, issue.Response, stored.Response)
}

func TestListIssuesFilters(t *testing.T) {
	conn := newTestConnection(t)

	for _, tc := range []struct {
		code   IssueCode
		scanID string
		url    string
	}{
		{FileUploadRcePhpCode, "scan-1", "http://a/1.php"},
		{FileUploadXssHtmlCode, "scan-1", "http://a/1.html"},
		{FileUploadXssHtmlCode, "scan-2", "http://a/2.html"},
	} {
		issue := GetIssueTemplateByCode(tc.code)
		issue.ScanID = tc.scanID
		issue.URL = tc.url
		_, err := conn.CreateIssue(*issue)
		require.NoError(t, err)
	}

	issues, count, err := conn.ListIssues(IssueFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, issues, 3)

	issues, count, err = conn.ListIssues(IssueFilter{ScanID: "scan-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, issues, 2)
	assert.Equal(t, Critical, issues[0].Severity, "most severe issues come first")

	issues, count, err = conn.ListIssues(IssueFilter{Codes: []string{FileUploadXssHtmlCode.String()}, ScanID: "scan-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, issues, 1)
	assert.Equal(t, "http://a/2.html", issues[0].URL)
}

func TestIssueTableRowTruncatesURL(t *testing.T) {
	issue := Issue{Code: "c", Title: "t", Severity: High, URL: "http://victim.local/" + strings.Repeat("a", 100)}
	row := issue.TableRow()
	assert.Len(t, row, len(issue.TableHeaders()))
	assert.Len(t, row[4], PrintMaxURLLength+3)
}
