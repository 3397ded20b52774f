package util

import (
	"errors"
	"strings"
)

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// SanitizeFileName strips path separators from an uploaded file name and
// rejects traversal sequences and names that reduce to nothing.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := separatorReplacer.Replace(strings.TrimSpace(name))
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
