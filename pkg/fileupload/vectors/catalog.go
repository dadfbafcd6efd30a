package vectors

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/pkg/scan/options"
)

// Default returns the catalog in registration order. Every call builds fresh
// providers, and so fresh random file names.
func Default() []*Vector {
	return []*Vector{
		NewHTMLVector(),
		NewSVGVector(),
		NewJSPVector(),
		NewJSPXVector(),
		NewImageJSPVector(),
		NewPHPVector(),
		NewHTAccessVector(),
		NewEICARVector(),
	}
}

// Names lists the vector names in registration order.
func Names() []string {
	catalog := Default()
	names := make([]string, 0, len(catalog))
	for _, v := range catalog {
		names = append(names, v.Name)
	}
	return names
}

// Select returns the named vectors from the catalog, keeping registration
// order. An empty selection returns the whole catalog.
func Select(names []string) ([]*Vector, error) {
	catalog := Default()
	if len(names) == 0 {
		return catalog, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.ToLower(strings.TrimSpace(name))] = true
	}
	var selected []*Vector
	for _, v := range catalog {
		if wanted[v.Name] {
			selected = append(selected, v)
			delete(wanted, v.Name)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for name := range wanted {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown attack vectors: %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}

// Summary describes a vector for listings.
type Summary struct {
	Name             string `json:"name" yaml:"name"`
	Classification   string `json:"classification" yaml:"classification"`
	Title            string `json:"title" yaml:"title"`
	Severity         string `json:"severity" yaml:"severity"`
	Payloads         int    `json:"payloads" yaml:"payloads"`
	DefaultRequests  int    `json:"default_requests" yaml:"default_requests"`
	ExtendedRequests int    `json:"extended_requests" yaml:"extended_requests"`
}

// Summarize describes v, counting the upload attempts it makes at most.
func Summarize(v *Vector) Summary {
	summary := Summary{
		Name:             v.Name,
		Classification:   v.Classification.String(),
		DefaultRequests:  v.MaxAttempts(options.ScanModeSmart),
		ExtendedRequests: v.MaxAttempts(options.ScanModeFuzz),
	}
	if template, ok := db.GetIssueTemplate(v.Classification); ok {
		summary.Title = template.Title
		summary.Severity = template.Severity
	}
	payloads := map[string]bool{}
	for _, round := range v.Rounds {
		payloads[round.Payload.Name] = true
	}
	summary.Payloads = len(payloads)
	return summary
}

func (s Summary) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Classification)
}

func (s Summary) Pretty() string {
	return fmt.Sprintf("%s: %s [%s] payloads=%d attempts=%d/%d", s.Name, s.Title, s.Severity, s.Payloads, s.DefaultRequests, s.ExtendedRequests)
}

func (s Summary) TableHeaders() []string {
	return []string{"Name", "Classification", "Severity", "Payloads", "Attempts", "Attempts (fuzz)"}
}

func (s Summary) TableRow() []string {
	return []string{
		s.Name,
		s.Classification,
		s.Severity,
		strconv.Itoa(s.Payloads),
		strconv.Itoa(s.DefaultRequests),
		strconv.Itoa(s.ExtendedRequests),
	}
}
