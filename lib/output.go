package lib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type FormatType string

const (
	Pretty FormatType = "pretty"
	Text   FormatType = "text"
	JSON   FormatType = "json"
	YAML   FormatType = "yaml"
	Table  FormatType = "table"
)

var formatTypes = []FormatType{Pretty, Text, JSON, YAML, Table}

// Formattable is implemented by everything the CLI prints: findings, stored
// issues, vectors and discovered upload forms.
type Formattable interface {
	String() string
	Pretty() string
	TableHeaders() []string
	TableRow() []string
}

// FormatTypes returns the names of the supported output formats.
func FormatTypes() []string {
	names := make([]string, len(formatTypes))
	for i, f := range formatTypes {
		names[i] = string(f)
	}
	return names
}

// ParseFormatType converts a string format to a FormatType.
func ParseFormatType(format string) (FormatType, error) {
	normalized := FormatType(strings.ToLower(strings.TrimSpace(format)))
	for _, f := range formatTypes {
		if f == normalized {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format: %s, valid formats: %s", format, strings.Join(FormatTypes(), ", "))
}

func FormatOutput[T Formattable](data []T, format FormatType) (string, error) {
	switch format {
	case Text, Pretty:
		lines := make([]string, 0, len(data))
		for _, item := range data {
			if format == Text {
				lines = append(lines, item.String())
			} else {
				lines = append(lines, item.Pretty())
			}
		}
		return strings.Join(lines, "\n"), nil
	case JSON, YAML:
		return marshal(data, format)
	case Table:
		var headers []string
		rows := make([][]string, 0, len(data))
		for i, item := range data {
			if i == 0 {
				headers = item.TableHeaders()
			}
			rows = append(rows, item.TableRow())
		}
		return renderTable(headers, rows), nil
	default:
		return "", fmt.Errorf("unknown format: %v", format)
	}
}

// FormatSingleOutput formats one item. JSON and YAML render the item itself
// rather than a one element list.
func FormatSingleOutput[T Formattable](item T, format FormatType) (string, error) {
	if format == JSON || format == YAML {
		return marshal(item, format)
	}
	return FormatOutput([]T{item}, format)
}

// WriteOutput formats data and writes it to w followed by a new line.
func WriteOutput[T Formattable](w io.Writer, data []T, format FormatType) error {
	formatted, err := FormatOutput(data, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, formatted)
	return err
}

func FormatOutputToFile[T Formattable](data []T, format FormatType, filepath string) error {
	formatted, err := FormatOutput(data, format)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, []byte(formatted), 0o644)
}

func marshal(v any, format FormatType) (string, error) {
	if format == YAML {
		y, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(y), nil
	}
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(j), nil
}

func renderTable(headers []string, rows [][]string) string {
	buffer := new(bytes.Buffer)
	table := tablewriter.NewWriter(buffer)
	if len(headers) > 0 {
		table.SetHeader(headers)
	}
	table.SetBorder(true)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
	return buffer.String()
}
