package attachments

import (
	"fmt"
	"path/filepath"
	"strings"
)

// blockedExtensions are rejected outright regardless of declared MIME type.
var blockedExtensions = map[string]struct{}{
	".exe": {}, ".bat": {}, ".cmd": {}, ".com": {}, ".pif": {},
	".scr": {}, ".vbs": {}, ".js": {}, ".jar": {}, ".msi": {},
	".dll": {}, ".sys": {}, ".scf": {}, ".lnk": {}, ".inf": {},
	".reg": {}, ".ps1": {}, ".sh": {}, ".sql": {}, ".db": {},
	".mdb": {}, ".accdb": {},
}

// allowedMimeTypes is the declared-type allowlist for uploads.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/jpg":          {},
	"image/png":          {},
	"image/gif":          {},
	"image/bmp":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain":      {},
	"application/rtf": {},
}

// lenientExtensions are accepted even when the client declares an unknown or
// generic MIME type. Browsers and mobile cameras are unreliable about the
// declared type for these.
var lenientExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {},
	".webp": {}, ".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {},
	".rtf": {},
}

// ValidateUpload checks name, declared type, and size against the upload
// policy. maxBytes <= 0 means no ceiling.
func ValidateUpload(fileName, mimeType string, sizeBytes int64, maxBytes int64) error {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return fmt.Errorf("%w: file name required", ErrInvalidInput)
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, maxBytes)
	}
	if sizeBytes <= 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if _, blocked := blockedExtensions[ext]; blocked {
		return fmt.Errorf("%w: file type %s is not accepted", ErrInvalidInput, ext)
	}

	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if _, ok := allowedMimeTypes[mt]; ok {
		return nil
	}
	if _, ok := lenientExtensions[ext]; ok {
		return nil
	}
	return fmt.Errorf("%w: file type %q is not accepted", ErrInvalidInput, mimeType)
}
