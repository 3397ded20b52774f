package attachments

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"intake-backend/internal/activitylog"
	"intake-backend/internal/shared/storage/object"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/shared/util"
)

const (
	putAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

// Service stores attachments in the repo and archives raw bytes to the object
// store. The database write is authoritative; archival is best effort.
type Service struct {
	Repo     Repo
	Archive  object.ObjectStore
	Activity *activitylog.Log

	MaxBytes int64

	now   func() time.Time
	sleep func(time.Duration)
}

// NewService constructs a Service. archive may be nil to disable raw-byte
// archival.
func NewService(repo Repo, archive object.ObjectStore, activity *activitylog.Log, maxBytes int64) *Service {
	return &Service{
		Repo:     repo,
		Archive:  archive,
		Activity: activity,
		MaxBytes: maxBytes,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// UploadInput is one incoming file for a subject's form field.
type UploadInput struct {
	SubjectID string
	FieldName string
	FileName  string
	MimeType  string
	Data      []byte
}

// Upload validates and stores the file, replacing any previous attachment for
// the same field. The repo write is retried; a failed archive write is logged
// and the attachment is kept without an archive key.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Ref, error) {
	if in.SubjectID == "" || in.FieldName == "" {
		return Ref{}, fmt.Errorf("%w: subject id and field name required", ErrInvalidInput)
	}
	if err := ValidateUpload(in.FileName, in.MimeType, int64(len(in.Data)), s.MaxBytes); err != nil {
		return Ref{}, err
	}
	cleanName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	a := Attachment{
		SubjectID:      in.SubjectID,
		FieldName:      in.FieldName,
		OriginalName:   cleanName,
		MimeType:       in.MimeType,
		ByteSize:       int64(len(in.Data)),
		EncodedPayload: base64.StdEncoding.EncodeToString(in.Data),
		UploadedAt:     s.now().UTC(),
	}

	if s.Archive != nil {
		key, _, _, err := s.Archive.Save(ctx, in.SubjectID, a.OriginalName, bytes.NewReader(in.Data))
		if err != nil {
			telemetry.Warn("attachment archive failed", map[string]any{
				"subject_id": in.SubjectID,
				"field":      in.FieldName,
				"error":      err.Error(),
			})
			if s.Activity != nil {
				s.Activity.Record("attachment archive failed", in.SubjectID, 0, err)
			}
		} else {
			a.ArchiveKey = key
		}
	}

	if err := s.putWithRetry(ctx, a); err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return a.AsRef(), nil
}

// putWithRetry attempts the repo write up to putAttempts times with a fixed
// doubling backoff between attempts.
func (s *Service) putWithRetry(ctx context.Context, a Attachment) error {
	backoff := retryBackoff
	var err error
	for attempt := 1; attempt <= putAttempts; attempt++ {
		err = s.Repo.Put(ctx, a)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt < putAttempts {
			telemetry.Warn("attachment write retry", map[string]any{
				"subject_id": a.SubjectID,
				"field":      a.FieldName,
				"attempt":    attempt,
				"error":      err.Error(),
			})
			s.sleep(backoff)
			backoff *= 2
		}
	}
	return err
}

// Open returns the stored attachment with its payload decoded.
func (s *Service) Open(ctx context.Context, subjectID, fieldName string) (Attachment, []byte, error) {
	a, err := s.Repo.Get(ctx, subjectID, fieldName)
	if err != nil {
		return Attachment{}, nil, err
	}
	data, err := base64.StdEncoding.DecodeString(a.EncodedPayload)
	if err != nil {
		return Attachment{}, nil, fmt.Errorf("%w: decode payload: %v", ErrStorage, err)
	}
	return a, data, nil
}

// ListRefs returns metadata-only views for one subject.
func (s *Service) ListRefs(ctx context.Context, subjectID string) ([]Ref, error) {
	all, err := s.Repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, 0, len(all))
	for _, a := range all {
		refs = append(refs, a.AsRef())
	}
	return refs, nil
}

// ListAll returns every attachment including payloads. Intended for export.
func (s *Service) ListAll(ctx context.Context) ([]Attachment, error) {
	return s.Repo.ListAll(ctx)
}

// DeleteAll removes every attachment.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.Repo.DeleteAll(ctx)
}
