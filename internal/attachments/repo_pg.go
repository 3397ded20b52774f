package attachments

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Put inserts or replaces the attachment for (subject, field).
func (r *PGRepo) Put(ctx context.Context, a Attachment) error {
	const query = `
INSERT INTO attachments (
    subject_id,
    field_name,
    original_name,
    mime_type,
    byte_size,
    encoded_payload,
    archive_key,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (subject_id, field_name) DO UPDATE SET
    original_name   = EXCLUDED.original_name,
    mime_type       = EXCLUDED.mime_type,
    byte_size       = EXCLUDED.byte_size,
    encoded_payload = EXCLUDED.encoded_payload,
    archive_key     = EXCLUDED.archive_key,
    uploaded_at     = EXCLUDED.uploaded_at`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		a.SubjectID,
		a.FieldName,
		a.OriginalName,
		a.MimeType,
		a.ByteSize,
		a.EncodedPayload,
		a.ArchiveKey,
		a.UploadedAt,
	)
	return err
}

const selectColumns = `
SELECT subject_id, field_name, original_name, mime_type, byte_size, encoded_payload, archive_key, uploaded_at
FROM attachments`

// Get returns the attachment for (subject, field), ErrNotFound if absent.
func (r *PGRepo) Get(ctx context.Context, subjectID, fieldName string) (Attachment, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE subject_id = $1 AND field_name = $2`, subjectID, fieldName)

	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attachment{}, ErrNotFound
	}
	return a, err
}

// ListBySubject returns all attachments for one subject, ordered by field name.
func (r *PGRepo) ListBySubject(ctx context.Context, subjectID string) ([]Attachment, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE subject_id = $1
ORDER BY field_name ASC`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListAll returns every attachment, ordered by subject then field name.
func (r *PGRepo) ListAll(ctx context.Context) ([]Attachment, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
ORDER BY subject_id ASC, field_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// DeleteAll removes every attachment.
func (r *PGRepo) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM attachments`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (Attachment, error) {
	var a Attachment
	err := row.Scan(
		&a.SubjectID,
		&a.FieldName,
		&a.OriginalName,
		&a.MimeType,
		&a.ByteSize,
		&a.EncodedPayload,
		&a.ArchiveKey,
		&a.UploadedAt,
	)
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

var _ Repo = (*PGRepo)(nil)

func collect(rows *sql.Rows) ([]Attachment, error) {
	var out []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
