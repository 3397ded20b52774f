package activitylog

import (
	"errors"
	"fmt"
	"testing"
)

func TestLogEvictsOldestAtCapacity(t *testing.T) {
	l := New(3)
	for i := 1; i <= 5; i++ {
		l.Record(fmt.Sprintf("event %d", i), "subject", i, nil)
	}

	got := l.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Message != "event 3" || got[2].Message != "event 5" {
		t.Fatalf("expected oldest-first window [3..5], got %+v", got)
	}
}

func TestLogTruncatesSubject(t *testing.T) {
	l := New(5)
	l.Record("event", "0123456789abcdef", 1, nil)

	got := l.Snapshot()
	if got[0].Subject != "0123456789ab..." {
		t.Fatalf("expected truncated subject, got %q", got[0].Subject)
	}
}

func TestLogRecordsError(t *testing.T) {
	l := New(5)
	l.Record("event", "s", 0, errors.New("boom"))
	if got := l.Snapshot()[0].Err; got != "boom" {
		t.Fatalf("expected error string, got %q", got)
	}
}

func TestLogClear(t *testing.T) {
	l := New(5)
	l.Record("event", "s", 0, nil)
	l.Clear()
	if l.Len() != 0 {
		t.Fatalf("expected empty log after clear, got %d", l.Len())
	}
}
