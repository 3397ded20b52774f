package applications

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	records   map[string]Application
	completed []CompletedApplication
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]Application),
	}
}

// Upsert inserts or merges a record by subject ID.
func (r *MemoryRepo) Upsert(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[app.SubjectID]
	if !ok {
		stored := app
		stored.Fields = cloneFields(app.Fields)
		stored.History = append([]HistoryEntry(nil), app.History...)
		r.records[app.SubjectID] = stored
		return nil
	}

	merged := existing

	merged.Category = app.Category
	merged.CurrentStep = app.CurrentStep
	merged.Environment = app.Environment
	merged.LastUpdated = app.LastUpdated

	// Shallow merge: incoming keys win, keys absent from the write survive.
	if merged.Fields == nil {
		merged.Fields = make(map[string]any, len(app.Fields))
	} else {
		merged.Fields = cloneFields(merged.Fields)
	}
	for k, v := range app.Fields {
		merged.Fields[k] = v
	}

	merged.History = append(append([]HistoryEntry(nil), existing.History...), app.History...)

	// Status only ever advances to completed.
	if existing.Status != StatusCompleted {
		merged.Status = app.Status
	}
	if app.CompletionID != "" {
		merged.CompletionID = app.CompletionID
	}
	if app.CompletedAt != nil {
		merged.CompletedAt = app.CompletedAt
	}

	r.records[app.SubjectID] = merged
	return nil
}

// Get returns the record for a subject.
func (r *MemoryRepo) Get(ctx context.Context, subjectID string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.records[subjectID]
	if !ok {
		return Application{}, ErrNotFound
	}
	app.Fields = cloneFields(app.Fields)
	app.History = append([]HistoryEntry(nil), app.History...)
	return app, nil
}

// ListAll returns every record. Order is not guaranteed.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Application, 0, len(r.records))
	for _, app := range r.records {
		app.Fields = cloneFields(app.Fields)
		app.History = append([]HistoryEntry(nil), app.History...)
		out = append(out, app)
	}
	return out, nil
}

// AppendCompleted appends a frozen snapshot to the completed list.
func (r *MemoryRepo) AppendCompleted(ctx context.Context, completed CompletedApplication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, completed)
	return nil
}

// ListCompleted returns the completed list in append order.
func (r *MemoryRepo) ListCompleted(ctx context.Context) ([]CompletedApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]CompletedApplication(nil), r.completed...), nil
}

// DeleteAll removes every record and completed snapshot.
func (r *MemoryRepo) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]Application)
	r.completed = nil
	return nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
