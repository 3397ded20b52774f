package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intake-backend/internal/applications"
	"intake-backend/internal/attachments"
	"intake-backend/internal/notify"
)

// ErrValidation wraps step predicate failures.
var ErrValidation = errors.New("validation failed")

// Service drives wizard sessions: transitions, persistence, uploads, and the
// one-shot recruiter alert.
type Service struct {
	Sessions    *Sessions
	Apps        *applications.Service
	Attachments *attachments.Service
	Alerter     *notify.BestEffort

	now   func() time.Time
	newID func() string

	// async controls whether the recruiter alert runs in its own goroutine.
	// Tests flip it off for determinism.
	async bool
}

// NewService constructs a Service.
func NewService(sessions *Sessions, apps *applications.Service, atts *attachments.Service, alerter *notify.BestEffort) *Service {
	return &Service{
		Sessions:    sessions,
		Apps:        apps,
		Attachments: atts,
		Alerter:     alerter,
		now:         time.Now,
		newID:       uuid.NewString,
		async:       true,
	}
}

// State is the client-facing view of a session.
type State struct {
	SubjectID string         `json:"subjectId"`
	Category  string         `json:"category"`
	Step      int            `json:"step"`
	Fields    map[string]any `json:"fields"`
}

// Start opens a new session at step 1. Nothing is persisted until the first
// forward transition.
func (s *Service) Start(category string, env applications.Environment) (State, error) {
	if !applications.ValidCategory(category) {
		return State{}, fmt.Errorf("%w: unknown job category %q", ErrValidation, category)
	}
	sess := s.Sessions.Create(s.newID(), category, env)
	return stateOf(sess), nil
}

// Get returns the current session state.
func (s *Service) Get(subjectID string) (State, error) {
	sess, err := s.Sessions.Get(subjectID)
	if err != nil {
		return State{}, err
	}
	return stateOf(sess), nil
}

// Next merges the patch into the session, validates the current step, and on
// success persists a snapshot and advances. Validation failure leaves the
// step unchanged and writes nothing to the record store.
func (s *Service) Next(ctx context.Context, subjectID string, patch map[string]any) (State, error) {
	sess, err := s.Sessions.BeginTransition(subjectID)
	if err != nil {
		return State{}, err
	}
	defer s.Sessions.EndTransition(subjectID)

	sess.Merge(patch)

	leaving, fields := sess.View()
	if err := validateStep(ctx, leaving, subjectID, fields, s.hasAttachment, s.now().UTC()); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.persist(ctx, sess, leaving); err != nil {
		return State{}, err
	}

	if leaving == 1 && s.Sessions.MarkAlerted(subjectID) {
		s.alert(ctx, sess)
	}

	sess.Advance()
	return stateOf(sess), nil
}

// Previous moves back one step. No validation, no persistence.
func (s *Service) Previous(subjectID string) (State, error) {
	sess, err := s.Sessions.BeginTransition(subjectID)
	if err != nil {
		return State{}, err
	}
	defer s.Sessions.EndTransition(subjectID)

	sess.Retreat()
	return stateOf(sess), nil
}

// Submit re-validates the final step, persists the final state, and completes
// the application. It returns the completion id. A session that has not
// reached the final step is refused so the earlier step gates cannot be
// skipped.
func (s *Service) Submit(ctx context.Context, subjectID string, patch map[string]any) (string, error) {
	sess, err := s.Sessions.BeginTransition(subjectID)
	if err != nil {
		return "", err
	}
	defer s.Sessions.EndTransition(subjectID)

	if step, _ := sess.View(); step != StepCount {
		return "", fmt.Errorf("%w: application is on step %d of %d", ErrValidation, step, StepCount)
	}

	sess.Merge(patch)

	_, fields := sess.View()
	if err := validateStep(ctx, StepCount, subjectID, fields, s.hasAttachment, s.now().UTC()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.persist(ctx, sess, StepCount); err != nil {
		return "", err
	}
	return s.Apps.Complete(ctx, subjectID)
}

// Upload stores one file for a session field and records the file name into
// the session state. Uploads count as transitions so they are serialized
// against saves on the same session.
func (s *Service) Upload(ctx context.Context, subjectID, fieldName, fileName, mimeType string, data []byte) (attachments.Ref, error) {
	sess, err := s.Sessions.BeginTransition(subjectID)
	if err != nil {
		return attachments.Ref{}, err
	}
	defer s.Sessions.EndTransition(subjectID)
	ref, err := s.Attachments.Upload(ctx, attachments.UploadInput{
		SubjectID: subjectID,
		FieldName: fieldName,
		FileName:  fileName,
		MimeType:  mimeType,
		Data:      data,
	})
	if err != nil {
		return attachments.Ref{}, err
	}
	sess.SetField(fieldName, ref.OriginalName)
	return ref, nil
}

func (s *Service) persist(ctx context.Context, sess *Session, step int) error {
	return s.Apps.SaveProgress(ctx, applications.ProgressInput{
		SubjectID:   sess.SubjectID,
		Category:    sess.Category,
		CurrentStep: step,
		Fields:      sess.Snapshot(),
		Environment: sess.Environment,
	})
}

func (s *Service) alert(ctx context.Context, sess *Session) {
	if s.Alerter == nil {
		return
	}
	refs, _ := s.Attachments.ListRefs(ctx, sess.SubjectID)
	step, fields := sess.View()
	alert := notify.Alert{
		App: applications.Application{
			SubjectID:   sess.SubjectID,
			Category:    sess.Category,
			CurrentStep: step,
			Fields:      fields,
			Environment: sess.Environment,
		},
		Attachments: refs,
		SentAt:      s.now(),
	}
	if s.async {
		go s.Alerter.Notify(context.WithoutCancel(ctx), alert)
		return
	}
	s.Alerter.Notify(ctx, alert)
}

func (s *Service) hasAttachment(ctx context.Context, subjectID, fieldName string) bool {
	_, err := s.Attachments.Repo.Get(ctx, subjectID, fieldName)
	return err == nil
}

func stateOf(sess *Session) State {
	step, fields := sess.View()
	return State{
		SubjectID: sess.SubjectID,
		Category:  sess.Category,
		Step:      step,
		Fields:    fields,
	}
}
