package applications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService(now time.Time) *Service {
	svc := NewService(NewMemoryRepo())
	svc.now = func() time.Time { return now }
	return svc
}

func TestSaveProgressAppendsOneHistoryEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(now)
	ctx := context.Background()

	in := ProgressInput{
		SubjectID:   "subj-1",
		Category:    "driver",
		CurrentStep: 1,
		Fields:      map[string]any{"firstName": "Ada"},
	}
	if err := svc.SaveProgress(ctx, in); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	in.CurrentStep = 2
	in.Fields = map[string]any{"phone": "0400000000"}
	if err := svc.SaveProgress(ctx, in); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	got, err := svc.Get(ctx, "subj-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(got.History))
	}
	if got.History[0].Step != 1 || got.History[1].Step != 2 {
		t.Fatalf("unexpected history steps: %+v", got.History)
	}
	if got.History[1].Snapshot["phone"] != "0400000000" {
		t.Fatalf("history snapshot missing field: %+v", got.History[1].Snapshot)
	}
	if got.Status != StatusInProgress {
		t.Fatalf("expected in-progress, got %s", got.Status)
	}
}

func TestCompleteAssignsCompletionID(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(now)
	ctx := context.Background()

	subjectID := "0123456789abcdef"
	if err := svc.SaveProgress(ctx, ProgressInput{SubjectID: subjectID, Category: "warehouse", CurrentStep: 6}); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	completionID, err := svc.Complete(ctx, subjectID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	want := "APP-89abcdef-" + "1772359200000"
	if completionID != want {
		t.Fatalf("completion id = %q, want %q", completionID, want)
	}
	if !strings.HasPrefix(completionID, "APP-") {
		t.Fatalf("completion id missing prefix: %q", completionID)
	}

	got, err := svc.Get(ctx, subjectID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.CompletionID != completionID {
		t.Fatalf("record completion id = %q", got.CompletionID)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
		t.Fatalf("unexpected completedAt: %v", got.CompletedAt)
	}

	completed, err := svc.ListCompleted(ctx)
	if err != nil {
		t.Fatalf("ListCompleted: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed snapshot, got %d", len(completed))
	}
	if completed[0].CompletionID != completionID || completed[0].SubjectID != subjectID {
		t.Fatalf("unexpected completed snapshot: %+v", completed[0])
	}
}

func TestCompleteUnknownSubject(t *testing.T) {
	svc := newTestService(time.Now())
	if _, err := svc.Complete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteDoesNotDuplicateHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(now)
	ctx := context.Background()

	if err := svc.SaveProgress(ctx, ProgressInput{SubjectID: "subj-1", CurrentStep: 6}); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	if _, err := svc.Complete(ctx, "subj-1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := svc.Get(ctx, "subj-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.History) != 1 {
		t.Fatalf("expected history untouched by completion, got %d entries", len(got.History))
	}
}
