package wizard

import (
	"errors"
	"sync"
	"time"

	"intake-backend/internal/applications"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTransitionBusy  = errors.New("another transition is in flight")
)

// Session is the server-side state of one applicant's wizard run.
type Session struct {
	SubjectID   string
	Category    string
	Step        int
	Fields      map[string]any
	Environment applications.Environment
	CreatedAt   time.Time

	// mu guards Step and Fields. Transitions are serialized by the
	// inFlight flag, but state reads run concurrently with them, so
	// every access goes through the locked accessors below.
	mu sync.Mutex

	// alertSent latches once the first forward transition out of step 1
	// attempts the recruiter alert, whatever the delivery outcome.
	alertSent bool

	// inFlight serializes transitions; a second concurrent transition is
	// refused rather than queued.
	inFlight bool
}

// Sessions is a mutex-guarded session registry. Constructed once and
// injected; there is deliberately no package-level instance.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Session
	now  func() time.Time
}

// NewSessions constructs an empty registry.
func NewSessions() *Sessions {
	return &Sessions{
		byID: make(map[string]*Session),
		now:  time.Now,
	}
}

// Create registers a new session at step 1.
func (s *Sessions) Create(subjectID, category string, env applications.Environment) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		SubjectID:   subjectID,
		Category:    category,
		Step:        1,
		Fields:      make(map[string]any),
		Environment: env,
		CreatedAt:   s.now().UTC(),
	}
	s.byID[subjectID] = sess
	return sess
}

// Get returns the session, ErrSessionNotFound if absent.
func (s *Sessions) Get(subjectID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[subjectID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// BeginTransition marks the session busy. It fails with ErrTransitionBusy if
// a transition is already running, and the caller must EndTransition on
// every path after a successful begin.
func (s *Sessions) BeginTransition(subjectID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[subjectID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.inFlight {
		return nil, ErrTransitionBusy
	}
	sess.inFlight = true
	return sess, nil
}

// EndTransition clears the busy mark.
func (s *Sessions) EndTransition(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byID[subjectID]; ok {
		sess.inFlight = false
	}
}

// MarkAlerted latches the alert flag. It reports whether this call was the
// first, so the alert fires at most once per session.
func (s *Sessions) MarkAlerted(subjectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[subjectID]
	if !ok || sess.alertSent {
		return false
	}
	sess.alertSent = true
	return true
}

// Merge copies patch entries into the session fields.
func (sess *Session) Merge(patch map[string]any) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for k, v := range patch {
		sess.Fields[k] = v
	}
}

// SetField records a single field value.
func (sess *Session) SetField(name string, value any) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Fields[name] = value
}

// Snapshot returns a copy of the session's merged fields.
func (sess *Session) Snapshot() map[string]any {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked()
}

// View returns the current step together with a fields snapshot, read
// atomically.
func (sess *Session) View() (int, map[string]any) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.Step, sess.snapshotLocked()
}

// Advance moves the session forward one step, capped at the final step.
func (sess *Session) Advance() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.Step < StepCount {
		sess.Step++
	}
}

// Retreat moves the session back one step, floored at the first.
func (sess *Session) Retreat() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.Step > 1 {
		sess.Step--
	}
}

func (sess *Session) snapshotLocked() map[string]any {
	out := make(map[string]any, len(sess.Fields))
	for k, v := range sess.Fields {
		out[k] = v
	}
	return out
}
