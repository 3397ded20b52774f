package attachments

import "context"

// Repo persists attachments. Put replaces any existing row for the same
// (subject, field) pair; re-uploading a field keeps exactly one attachment.
type Repo interface {
	Put(ctx context.Context, a Attachment) error
	Get(ctx context.Context, subjectID, fieldName string) (Attachment, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Attachment, error)
	ListAll(ctx context.Context) ([]Attachment, error)
	DeleteAll(ctx context.Context) error
}
