package lib

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestGenerateRandomString(t *testing.T) {
	r1 := GenerateRandomString(20)
	if len(r1) != 20 {
		t.Error()
	}
	r2 := GenerateRandomString(5000)
	if len(r2) != 5000 {
		t.Error()
	}
}

func TestGenerateRandomAlphanumericString(t *testing.T) {
	r := GenerateRandomAlphanumericString(64)
	if len(r) != 64 {
		t.Errorf("expected 64 characters, got %d", len(r))
	}
	for _, c := range r {
		if !strings.ContainsRune(alphanumericCharset, c) {
			t.Errorf("unexpected character %q", c)
		}
	}
}

func TestSliceContains(t *testing.T) {
	tests := []struct {
		name     string
		slice    []string
		item     string
		expected bool
	}{
		{
			name:     "Item is in the slice",
			slice:    []string{"apple", "banana", "cherry"},
			item:     "banana",
			expected: true,
		},
		{
			name:     "Item is not in the slice",
			slice:    []string{"apple", "banana", "cherry"},
			item:     "grape",
			expected: false,
		},
		{
			name:     "Slice is empty",
			slice:    []string{},
			item:     "apple",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SliceContains(tt.slice, tt.item); got != tt.expected {
				t.Errorf("SliceContains() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetUniqueItems(t *testing.T) {
	got := GetUniqueItems([]string{"file", "avatar", "file", "document"})
	want := []string{"file", "avatar", "document"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetUniqueItems() = %v, want %v", got, want)
	}
}

func TestReadFileByLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	if err := os.WriteFile(path, []byte("http://a/upload\n\nhttp://b/upload\n"), 0644); err != nil {
		t.Fatal(err)
	}
	lines, err := ReadFileByLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"http://a/upload", "http://b/upload"}) {
		t.Errorf("unexpected lines %v", lines)
	}
	if !LocalFileExists(path) {
		t.Error("expected file to exist")
	}
}
