package db

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Severity of an issue. Stored as its name.
type Severity string

const (
	Unknown  Severity = "Unknown"
	Info     Severity = "Info"
	Low      Severity = "Low"
	Medium   Severity = "Medium"
	High     Severity = "High"
	Critical Severity = "Critical"
)

var severityRanks = map[Severity]int{
	Critical: 1,
	High:     2,
	Medium:   3,
	Low:      4,
	Info:     5,
	Unknown:  6,
}

func (s Severity) String() string {
	return string(s)
}

// Rank orders severities, most severe first. Unrecognised values sort last.
func (s Severity) Rank() int {
	if rank, ok := severityRanks[s]; ok {
		return rank
	}
	return len(severityRanks) + 1
}

// NewSeverity parses a severity name case insensitively, defaulting to Unknown.
func NewSeverity(s string) Severity {
	candidate := strings.ToLower(strings.TrimSpace(s))
	for severity := range severityRanks {
		if strings.ToLower(string(severity)) == candidate {
			return severity
		}
	}
	return Unknown
}

func (s *Severity) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*s = NewSeverity(string(v))
	case string:
		*s = NewSeverity(v)
	default:
		return fmt.Errorf("unsupported type: %T", v)
	}
	return nil
}

func (s Severity) Value() (driver.Value, error) {
	return string(s), nil
}
