package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. The shallow field merge and the
// append-only history concatenation run inside the upsert statement, so
// concurrent writers cannot drop each other's fields.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or merges a record by subject ID.
func (r *PGRepo) Upsert(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (
    subject_id,
    category,
    current_step,
    fields,
    history,
    status,
    completion_id,
    environment,
    created_at,
    last_updated,
    completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (subject_id) DO UPDATE SET
    category      = EXCLUDED.category,
    current_step  = EXCLUDED.current_step,
    fields        = applications.fields || EXCLUDED.fields,
    history       = applications.history || EXCLUDED.history,
    status        = CASE WHEN applications.status = 'completed' THEN applications.status ELSE EXCLUDED.status END,
    completion_id = COALESCE(EXCLUDED.completion_id, applications.completion_id),
    environment   = applications.environment || EXCLUDED.environment,
    last_updated  = EXCLUDED.last_updated,
    completed_at  = COALESCE(EXCLUDED.completed_at, applications.completed_at)`

	fieldsJSON, err := json.Marshal(nonNilFields(app.Fields))
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	historyJSON, err := json.Marshal(nonNilHistory(app.History))
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	envJSON, err := json.Marshal(app.Environment)
	if err != nil {
		return fmt.Errorf("marshal environment: %w", err)
	}

	var completionID sql.NullString
	if app.CompletionID != "" {
		completionID = sql.NullString{String: app.CompletionID, Valid: true}
	}
	var completedAt sql.NullTime
	if app.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *app.CompletedAt, Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		app.SubjectID,
		app.Category,
		app.CurrentStep,
		fieldsJSON,
		historyJSON,
		string(app.Status),
		completionID,
		envJSON,
		app.CreatedAt,
		app.LastUpdated,
		completedAt,
	)
	return err
}

// Get returns the record for a subject.
func (r *PGRepo) Get(ctx context.Context, subjectID string) (Application, error) {
	const query = `
SELECT subject_id, category, current_step, fields, history, status, completion_id, environment, created_at, last_updated, completed_at
FROM applications
WHERE subject_id = $1`

	row := r.DB.QueryRowContext(ctx, query, subjectID)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

// ListAll returns every record, most recently updated first.
func (r *PGRepo) ListAll(ctx context.Context) ([]Application, error) {
	const query = `
SELECT subject_id, category, current_step, fields, history, status, completion_id, environment, created_at, last_updated, completed_at
FROM applications
ORDER BY last_updated DESC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// AppendCompleted appends a frozen snapshot to the completed list.
func (r *PGRepo) AppendCompleted(ctx context.Context, completed CompletedApplication) error {
	const query = `
INSERT INTO completed_applications (completion_id, subject_id, snapshot, completed_at)
VALUES ($1, $2, $3, $4)`

	snapshotJSON, err := json.Marshal(completed.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query, completed.CompletionID, completed.SubjectID, snapshotJSON, completed.CompletedAt)
	return err
}

// ListCompleted returns completed snapshots in append order.
func (r *PGRepo) ListCompleted(ctx context.Context) ([]CompletedApplication, error) {
	const query = `
SELECT completion_id, subject_id, snapshot, completed_at
FROM completed_applications
ORDER BY completed_at ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CompletedApplication
	for rows.Next() {
		var completed CompletedApplication
		var snapshotJSON []byte
		if err := rows.Scan(&completed.CompletionID, &completed.SubjectID, &snapshotJSON, &completed.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshotJSON, &completed.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		out = append(out, completed)
	}
	return out, rows.Err()
}

// DeleteAll removes every record and completed snapshot.
func (r *PGRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM completed_applications`); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM applications`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var fieldsJSON, historyJSON, envJSON []byte
	var status string
	var completionID sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(
		&app.SubjectID,
		&app.Category,
		&app.CurrentStep,
		&fieldsJSON,
		&historyJSON,
		&status,
		&completionID,
		&envJSON,
		&app.CreatedAt,
		&app.LastUpdated,
		&completedAt,
	); err != nil {
		return Application{}, err
	}

	if err := json.Unmarshal(fieldsJSON, &app.Fields); err != nil {
		return Application{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &app.History); err != nil {
		return Application{}, fmt.Errorf("unmarshal history: %w", err)
	}
	if err := json.Unmarshal(envJSON, &app.Environment); err != nil {
		return Application{}, fmt.Errorf("unmarshal environment: %w", err)
	}
	app.Status = Status(status)
	if completionID.Valid {
		app.CompletionID = completionID.String
	}
	if completedAt.Valid {
		app.CompletedAt = &completedAt.Time
	}
	return app, nil
}

func nonNilFields(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	return fields
}

func nonNilHistory(history []HistoryEntry) []HistoryEntry {
	if history == nil {
		return []HistoryEntry{}
	}
	return history
}

var _ Repo = (*PGRepo)(nil)
