package lib

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
)

// DefaultRandomStringsCharset Default charset used for random string generation
const DefaultRandomStringsCharset = "abcdedfghijklmnopqrstABCDEFGHIJKLMNOP"

const alphanumericCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SliceContains utility function to check if a slice of strings contains the specified string
func SliceContains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func generateRandom(charSet string, length int) string {
	var output strings.Builder
	output.Grow(length)
	for i := 0; i < length; i++ {
		output.WriteByte(charSet[rand.Intn(len(charSet))])
	}
	return output.String()
}

// GenerateRandomString returns a random string of the defined length
func GenerateRandomString(length int) string {
	return generateRandom(DefaultRandomStringsCharset, length)
}

// GenerateRandomAlphanumericString returns a random string safe to use inside file names
func GenerateRandomAlphanumericString(length int) string {
	return generateRandom(alphanumericCharset, length)
}

func LocalFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetUniqueItems takes a slice of strings and returns a new slice with unique items, keeping the first occurrence order.
func GetUniqueItems(items []string) []string {
	seen := make(map[string]bool, len(items))
	uniqueItems := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		uniqueItems = append(uniqueItems, item)
	}
	return uniqueItems
}

func ReadFileByLines(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
