package attachments

import (
	"context"
	"sort"
	"sync"

	"intake-backend/internal/shared/util"
)

// MemoryRepo is an in-memory implementation of Repo. Records live in a flat
// map keyed by util.StorageKey(subject, field).
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]Attachment
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]Attachment),
	}
}

// Put inserts or replaces the attachment for (subject, field).
func (r *MemoryRepo) Put(ctx context.Context, a Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[util.StorageKey(a.SubjectID, a.FieldName)] = a
	return nil
}

// Get returns the attachment for (subject, field), ErrNotFound if absent.
func (r *MemoryRepo) Get(ctx context.Context, subjectID, fieldName string) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.records[util.StorageKey(subjectID, fieldName)]
	if !ok {
		return Attachment{}, ErrNotFound
	}
	return a, nil
}

// ListBySubject returns all attachments for one subject, ordered by field name.
func (r *MemoryRepo) ListBySubject(ctx context.Context, subjectID string) ([]Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Attachment
	for _, a := range r.records {
		if a.SubjectID == subjectID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldName < out[j].FieldName })
	return out, nil
}

// ListAll returns every attachment, ordered by subject then field name.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Attachment, 0, len(r.records))
	for _, a := range r.records {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID < out[j].SubjectID
		}
		return out[i].FieldName < out[j].FieldName
	})
	return out, nil
}

// DeleteAll removes every attachment.
func (r *MemoryRepo) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]Attachment)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
