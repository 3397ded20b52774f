package applications

import (
	"context"
	"fmt"
	"time"
)

// Service contains business logic for application records.
type Service struct {
	Repo Repo

	now func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{
		Repo: repo,
		now:  time.Now,
	}
}

// ProgressInput is one forward-transition write from the wizard.
type ProgressInput struct {
	SubjectID   string
	Category    string
	CurrentStep int
	Fields      map[string]any
	Environment Environment
}

// SaveProgress persists the wizard state after a forward transition, appending
// one history entry for the step being left.
func (s *Service) SaveProgress(ctx context.Context, in ProgressInput) error {
	if in.SubjectID == "" {
		return fmt.Errorf("%w: subject id required", ErrInvalidInput)
	}
	now := s.now().UTC()

	snapshot := make(map[string]any, len(in.Fields))
	for k, v := range in.Fields {
		snapshot[k] = v
	}

	app := Application{
		SubjectID:   in.SubjectID,
		Category:    in.Category,
		CurrentStep: in.CurrentStep,
		Fields:      in.Fields,
		History: []HistoryEntry{{
			Step:      in.CurrentStep,
			Timestamp: now,
			Snapshot:  snapshot,
		}},
		Status:      StatusInProgress,
		Environment: in.Environment,
		CreatedAt:   now,
		LastUpdated: now,
	}

	return s.Repo.Upsert(ctx, app)
}

// Get returns the record for a subject, ErrNotFound if absent.
func (s *Service) Get(ctx context.Context, subjectID string) (Application, error) {
	if subjectID == "" {
		return Application{}, fmt.Errorf("%w: subject id required", ErrInvalidInput)
	}
	return s.Repo.Get(ctx, subjectID)
}

// ListAll returns every record.
func (s *Service) ListAll(ctx context.Context) ([]Application, error) {
	return s.Repo.ListAll(ctx)
}

// ListCompleted returns the completed list.
func (s *Service) ListCompleted(ctx context.Context) ([]CompletedApplication, error) {
	return s.Repo.ListCompleted(ctx)
}

// Complete freezes the record for a subject: it assigns a fresh completion id,
// marks the record completed, and appends an immutable snapshot to the
// completed list. Calling it twice yields two distinct completion ids and two
// completed snapshots; callers that need idempotency must guard themselves.
func (s *Service) Complete(ctx context.Context, subjectID string) (string, error) {
	app, err := s.Repo.Get(ctx, subjectID)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	completionID := newCompletionID(subjectID, now)

	app.Status = StatusCompleted
	app.CompletionID = completionID
	app.CompletedAt = &now
	app.LastUpdated = now

	// The completing write carries no new history entries; the frozen
	// snapshot keeps the full trail.
	write := app
	write.History = nil
	if err := s.Repo.Upsert(ctx, write); err != nil {
		return "", err
	}

	completed := CompletedApplication{
		CompletionID: completionID,
		SubjectID:    subjectID,
		Snapshot:     app,
		CompletedAt:  now,
	}
	if err := s.Repo.AppendCompleted(ctx, completed); err != nil {
		return "", err
	}

	return completionID, nil
}

func newCompletionID(subjectID string, now time.Time) string {
	suffix := subjectID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return fmt.Sprintf("APP-%s-%d", suffix, now.UnixMilli())
}
