package attachments

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"intake-backend/internal/activitylog"
)

func newTestService(repo Repo) *Service {
	svc := NewService(repo, nil, activitylog.New(10), 50<<20)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestUploadRoundTripsBytes(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	ctx := context.Background()
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02, 0xff}

	ref, err := svc.Upload(ctx, UploadInput{
		SubjectID: "subj-1",
		FieldName: "idFile1",
		FileName:  "licence.png",
		MimeType:  "image/png",
		Data:      payload,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ref.ByteSize != int64(len(payload)) {
		t.Fatalf("ref size = %d, want %d", ref.ByteSize, len(payload))
	}

	_, data, err := svc.Open(ctx, "subj-1", "idFile1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload not byte-identical after round trip")
	}
}

func TestUploadReplacesPriorAttachment(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	ctx := context.Background()

	for _, name := range []string{"first.pdf", "second.pdf"} {
		if _, err := svc.Upload(ctx, UploadInput{
			SubjectID: "subj-1",
			FieldName: "idFile1",
			FileName:  name,
			MimeType:  "application/pdf",
			Data:      []byte(name),
		}); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}

	refs, err := svc.ListRefs(ctx, "subj-1")
	if err != nil {
		t.Fatalf("ListRefs: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 attachment after replace, got %d", len(refs))
	}
	if refs[0].OriginalName != "second.pdf" {
		t.Fatalf("expected latest upload to win, got %s", refs[0].OriginalName)
	}
}

// flakyRepo fails the first n Put calls.
type flakyRepo struct {
	*MemoryRepo
	failures int
	calls    int
}

func (r *flakyRepo) Put(ctx context.Context, a Attachment) error {
	r.calls++
	if r.calls <= r.failures {
		return errors.New("transient")
	}
	return r.MemoryRepo.Put(ctx, a)
}

func TestUploadRetriesTransientPutFailure(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failures: 2}
	svc := newTestService(repo)

	_, err := svc.Upload(context.Background(), UploadInput{
		SubjectID: "subj-1",
		FieldName: "idFile1",
		FileName:  "licence.png",
		MimeType:  "image/png",
		Data:      []byte("img"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if repo.calls != 3 {
		t.Fatalf("expected 3 Put attempts, got %d", repo.calls)
	}
}

func TestUploadSurfacesStorageErrorAfterExhaustion(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failures: 10}
	svc := newTestService(repo)

	_, err := svc.Upload(context.Background(), UploadInput{
		SubjectID: "subj-1",
		FieldName: "idFile1",
		FileName:  "licence.png",
		MimeType:  "image/png",
		Data:      []byte("img"),
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if repo.calls != 3 {
		t.Fatalf("expected exactly 3 Put attempts, got %d", repo.calls)
	}
}

// failingStore always refuses to archive.
type failingStore struct{}

func (failingStore) Save(ctx context.Context, subjectID, fileName string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("archive down")
}

func (failingStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return nil, errors.New("archive down")
}

func TestUploadSucceedsWhenArchiveFails(t *testing.T) {
	activity := activitylog.New(10)
	svc := NewService(NewMemoryRepo(), failingStore{}, activity, 50<<20)
	svc.sleep = func(time.Duration) {}

	ref, err := svc.Upload(context.Background(), UploadInput{
		SubjectID: "subj-1",
		FieldName: "idFile1",
		FileName:  "licence.png",
		MimeType:  "image/png",
		Data:      []byte("img"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ref.OriginalName != "licence.png" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	stored, err := svc.Repo.Get(context.Background(), "subj-1", "idFile1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.ArchiveKey != "" {
		t.Fatalf("expected empty archive key, got %q", stored.ArchiveKey)
	}
	if activity.Len() == 0 {
		t.Fatalf("expected archive failure recorded in activity log")
	}
}

func TestOpenMissingAttachment(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	if _, _, err := svc.Open(context.Background(), "subj-1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
