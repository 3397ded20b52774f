package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoUpsertMergesInStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	app := Application{
		SubjectID:   "subj-1",
		Category:    "warehouse",
		CurrentStep: 2,
		Fields:      map[string]any{"firstName": "Ada"},
		History:     []HistoryEntry{{Step: 2, Timestamp: now}},
		Status:      StatusInProgress,
		CreatedAt:   now,
		LastUpdated: now,
	}

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(
			app.SubjectID,
			app.Category,
			app.CurrentStep,
			sqlmock.AnyArg(), // fields json
			sqlmock.AnyArg(), // history json
			string(app.Status),
			sqlmock.AnyArg(), // completion_id (null)
			sqlmock.AnyArg(), // environment json
			app.CreatedAt,
			app.LastUpdated,
			sqlmock.AnyArg(), // completed_at (null)
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Upsert(context.Background(), app); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery(`SELECT .* FROM applications`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}))

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetScansRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"subject_id", "category", "current_step", "fields", "history",
		"status", "completion_id", "environment", "created_at", "last_updated", "completed_at",
	}).AddRow(
		"subj-1", "driver", 3,
		[]byte(`{"firstName":"Ada"}`), []byte(`[{"step":1,"timestamp":"2026-03-01T10:00:00Z","snapshot":{}}]`),
		"in-progress", nil, []byte(`{"userAgent":"UA"}`), now, now, nil,
	)
	mock.ExpectQuery(`SELECT .* FROM applications`).
		WithArgs("subj-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "subj-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Fields["firstName"] != "Ada" {
		t.Fatalf("fields not decoded: %v", got.Fields)
	}
	if len(got.History) != 1 || got.History[0].Step != 1 {
		t.Fatalf("history not decoded: %+v", got.History)
	}
	if got.Environment.UserAgent != "UA" {
		t.Fatalf("environment not decoded: %+v", got.Environment)
	}
	if got.CompletedAt != nil {
		t.Fatalf("expected nil completedAt, got %v", got.CompletedAt)
	}
}
