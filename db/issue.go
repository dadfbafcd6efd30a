package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pyneda/upload-scanner/lib"
)

// PrintMaxURLLength max length a URL can have when printing as table
const PrintMaxURLLength = 65

// Issue holds table for storing issues found
type Issue struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Code          string      `gorm:"index" json:"code"`
	Title         string      `gorm:"index" json:"title"`
	Description   string      `json:"description"`
	Details       string      `json:"details"`
	Remediation   string      `json:"remediation"`
	Cwe           int         `json:"cwe"`
	URL           string      `gorm:"index" json:"url"`
	StatusCode    int         `gorm:"index" json:"status_code"`
	HTTPMethod    string      `gorm:"index" json:"http_method"`
	Payload       string      `json:"payload"`
	UploadRequest []byte      `json:"upload_request"`
	Request       []byte      `json:"request"`
	Response      []byte      `json:"response"`
	Confidence    int         `json:"confidence"`
	References    StringSlice `gorm:"type:text" json:"references"`
	Severity      Severity    `gorm:"type:varchar(16);default:'Info'" json:"severity"`
	Note          string      `json:"note"`
	ScanID        string      `gorm:"index" json:"scan_id"`
	Fingerprint   string      `gorm:"uniqueIndex" json:"fingerprint"`
}

// ComputeFingerprint identifies an issue by what was found and where, so
// repeated scans of the same target do not duplicate findings.
func (i Issue) ComputeFingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{i.ScanID, i.Code, i.URL, i.Payload}, "|")))
	return hex.EncodeToString(sum[:])
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s %s (%s)", i.Severity, i.Title, i.URL, i.Payload)
}

func (i Issue) Pretty() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", lib.Colorize(i.Title, lib.SeverityColor(i.Severity.String())))
	fmt.Fprintf(&b, "  %s %s\n", lib.Label("Severity"), i.Severity)
	fmt.Fprintf(&b, "  %s %s\n", lib.Label("URL"), i.URL)
	fmt.Fprintf(&b, "  %s %s\n", lib.Label("Mutation"), i.Payload)
	if i.Cwe != 0 {
		fmt.Fprintf(&b, "  %s %d\n", lib.Label("CWE"), i.Cwe)
	}
	return b.String()
}

func (i Issue) TableHeaders() []string {
	return []string{"ID", "Code", "Title", "Severity", "URL", "Mutation"}
}

func (i Issue) TableRow() []string {
	formattedURL := i.URL
	if len(formattedURL) > PrintMaxURLLength {
		formattedURL = formattedURL[0:PrintMaxURLLength] + "..."
	}
	return []string{
		strconv.FormatUint(uint64(i.ID), 10),
		i.Code,
		i.Title,
		i.Severity.String(),
		formattedURL,
		i.Payload,
	}
}

// IssueFilter represents available issue filters
type IssueFilter struct {
	Codes  []string
	ScanID string
}

// ListIssues Lists issues
func (d *DatabaseConnection) ListIssues(filter IssueFilter) (issues []*Issue, count int64, err error) {
	query := d.db.Model(&Issue{})

	if len(filter.Codes) > 0 {
		query = query.Where("code IN ?", filter.Codes)
	}

	if filter.ScanID != "" {
		query = query.Where("scan_id = ?", filter.ScanID)
	}

	if err = query.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err = query.Order("created_at desc").Find(&issues).Error; err != nil {
		return nil, 0, err
	}
	sort.SliceStable(issues, func(a, b int) bool {
		return issues[a].Severity.Rank() < issues[b].Severity.Rank()
	})
	return issues, count, nil
}

// CreateIssue saves an issue to the database, returning the stored one when
// an issue with the same fingerprint already exists
func (d *DatabaseConnection) CreateIssue(issue Issue) (Issue, error) {
	if issue.Fingerprint == "" {
		issue.Fingerprint = issue.ComputeFingerprint()
	}
	result := d.db.Where(Issue{Fingerprint: issue.Fingerprint}).FirstOrCreate(&issue)
	if result.Error != nil {
		log.Error().Err(result.Error).Str("code", issue.Code).Str("url", issue.URL).Msg("Failed to create issue")
	}
	return issue, result.Error
}

// GetIssue get a single issue by ID
func (d *DatabaseConnection) GetIssue(id uint) (issue Issue, err error) {
	err = d.db.First(&issue, id).Error
	return issue, err
}
