package attachments

import (
	"errors"
	"testing"
)

func TestValidateUploadBlockedExtensionWinsOverMime(t *testing.T) {
	err := ValidateUpload("payload.exe", "image/png", 100, 50<<20)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for .exe, got %v", err)
	}
}

func TestValidateUploadAcceptsPNG(t *testing.T) {
	if err := ValidateUpload("licence.png", "image/png", 1024, 50<<20); err != nil {
		t.Fatalf("expected png to pass, got %v", err)
	}
}

func TestValidateUploadLenientOnDeclaredMime(t *testing.T) {
	// Phone cameras often declare application/octet-stream for photos.
	if err := ValidateUpload("passport.jpg", "application/octet-stream", 1024, 50<<20); err != nil {
		t.Fatalf("expected recognized extension to pass, got %v", err)
	}
}

func TestValidateUploadRejectsUnknownTypeAndExtension(t *testing.T) {
	err := ValidateUpload("archive.zip", "application/zip", 1024, 50<<20)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestValidateUploadSizeCeiling(t *testing.T) {
	max := int64(50 << 20)
	if err := ValidateUpload("doc.pdf", "application/pdf", max, max); err != nil {
		t.Fatalf("expected size at the ceiling to pass, got %v", err)
	}
	if err := ValidateUpload("doc.pdf", "application/pdf", max+1, max); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput above the ceiling, got %v", err)
	}
}

func TestValidateUploadEmptyFile(t *testing.T) {
	if err := ValidateUpload("doc.pdf", "application/pdf", 0, 50<<20); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty file, got %v", err)
	}
}

func TestValidateUploadMimeParameters(t *testing.T) {
	if err := ValidateUpload("notes.txt", "text/plain; charset=utf-8", 10, 50<<20); err != nil {
		t.Fatalf("expected parameterized mime to pass, got %v", err)
	}
}
