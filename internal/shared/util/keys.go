package util

import (
	"encoding/base64"
	"strings"
)

// StorageKey derives a flat key for an attachment from its (subject, field)
// pair. The base64 form only keeps keys unambiguous in a shared namespace
// (field names may contain the separator); it is not a confidentiality
// mechanism.
func StorageKey(subjectID, fieldName string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(subjectID + "/" + fieldName))
}

// ParseStorageKey reverses StorageKey. It returns ok=false for keys that do
// not decode to a subject/field pair.
func ParseStorageKey(key string) (subjectID, fieldName string, ok bool) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(string(raw), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
