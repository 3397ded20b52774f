package admin

import (
	"context"
	"strings"
	"time"

	"intake-backend/internal/activitylog"
	"intake-backend/internal/applications"
	"intake-backend/internal/attachments"
)

// Service aggregates the review console's read, export, and clear operations
// over the underlying stores.
type Service struct {
	Apps        *applications.Service
	Attachments *attachments.Service
	Activity    *activitylog.Log

	now func() time.Time
}

// NewService constructs a Service.
func NewService(apps *applications.Service, atts *attachments.Service, activity *activitylog.Log) *Service {
	return &Service{
		Apps:        apps,
		Attachments: atts,
		Activity:    activity,
		now:         time.Now,
	}
}

// List returns applications, optionally filtered by a case-insensitive
// substring match over name, email, category, and subject id.
func (s *Service) List(ctx context.Context, query string) ([]applications.Application, error) {
	all, err := s.Apps.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	out := make([]applications.Application, 0, len(all))
	for _, app := range all {
		if matches(app, q) {
			out = append(out, app)
		}
	}
	return out, nil
}

func matches(app applications.Application, q string) bool {
	candidates := []string{
		fieldString(app.Fields, "firstName"),
		fieldString(app.Fields, "lastName"),
		fieldString(app.Fields, "email"),
		app.Category,
		app.SubjectID,
	}
	for _, c := range candidates {
		if c != "" && strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

func fieldString(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

// Detail is the full per-subject view: record plus attachment metadata.
type Detail struct {
	Application applications.Application `json:"application"`
	Attachments []attachments.Ref        `json:"attachments"`
}

// Get returns the detail view for one subject.
func (s *Service) Get(ctx context.Context, subjectID string) (Detail, error) {
	app, err := s.Apps.Get(ctx, subjectID)
	if err != nil {
		return Detail{}, err
	}
	refs, err := s.Attachments.ListRefs(ctx, subjectID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Application: app, Attachments: refs}, nil
}

// OpenAttachment returns one attachment with its payload decoded.
func (s *Service) OpenAttachment(ctx context.Context, subjectID, fieldName string) (attachments.Attachment, []byte, error) {
	return s.Attachments.Open(ctx, subjectID, fieldName)
}

// Export is the single-document dump of everything the service holds.
type Export struct {
	TotalApplications     int                                 `json:"totalApplications"`
	CompletedApplications int                                 `json:"completedApplications"`
	Applications          []applications.Application          `json:"applications"`
	Completed             []applications.CompletedApplication `json:"completed"`
	Attachments           []attachments.Attachment            `json:"attachments"`
	Activity              []activitylog.Entry                 `json:"activity"`
	Timestamp             time.Time                           `json:"timestamp"`
}

// BuildExport assembles the export document.
func (s *Service) BuildExport(ctx context.Context) (Export, error) {
	apps, err := s.Apps.ListAll(ctx)
	if err != nil {
		return Export{}, err
	}
	completed, err := s.Apps.ListCompleted(ctx)
	if err != nil {
		return Export{}, err
	}
	atts, err := s.Attachments.ListAll(ctx)
	if err != nil {
		return Export{}, err
	}
	return Export{
		TotalApplications:     len(apps),
		CompletedApplications: len(completed),
		Applications:          apps,
		Completed:             completed,
		Attachments:           atts,
		Activity:              s.Activity.Snapshot(),
		Timestamp:             s.now().UTC(),
	}, nil
}

// Stats are the console's headline counters.
type Stats struct {
	Applications int `json:"applications"`
	Completed    int `json:"completed"`
	InProgress   int `json:"inProgress"`
	Files        int `json:"files"`
}

// BuildStats computes the counters.
func (s *Service) BuildStats(ctx context.Context) (Stats, error) {
	apps, err := s.Apps.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	atts, err := s.Attachments.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Applications: len(apps),
		Files:        len(atts),
	}
	for _, app := range apps {
		if app.Status == applications.StatusCompleted {
			st.Completed++
		} else {
			st.InProgress++
		}
	}
	return st, nil
}

// ClearAll wipes applications, the completed list, attachments, and the
// activity log.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.Apps.Repo.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.Attachments.DeleteAll(ctx); err != nil {
		return err
	}
	s.Activity.Clear()
	return nil
}
