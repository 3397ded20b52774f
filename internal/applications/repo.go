package applications

import "context"

// Repo defines persistence operations for application records.
//
// Upsert merges by subject: top-level columns take the incoming value, the
// Fields map is shallow-merged (incoming keys win, absent keys survive), and
// any History entries on the incoming record are appended, never replaced.
// A completed record never reverts to in-progress.
type Repo interface {
	Upsert(ctx context.Context, app Application) error
	Get(ctx context.Context, subjectID string) (Application, error)
	ListAll(ctx context.Context) ([]Application, error)
	AppendCompleted(ctx context.Context, completed CompletedApplication) error
	ListCompleted(ctx context.Context) ([]CompletedApplication, error)
	DeleteAll(ctx context.Context) error
}
