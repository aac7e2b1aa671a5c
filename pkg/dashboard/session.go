package dashboard

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Ramsey-B/aga/pkg/models"
)

// Snapshot is the dashboard projection served to one session: the recent
// runs with resolved status views, plus the rolled-up usage stats.
type Snapshot struct {
	Runs  []models.RunView   `json:"runs"`
	Stats models.ClientStats `json:"stats"`
}

// Session is the server-side state of one open dashboard. The projection is
// advisory, never authoritative: optimistic mutations are always followed by
// an authoritative refresh that replaces it outright.
type Session struct {
	id     string
	userID string

	mu    sync.Mutex
	runs  []models.RunView
	stats models.ClientStats
}

func newSession(userID string) *Session {
	return &Session{
		id:     uuid.New().String(),
		userID: userID,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// UserID returns the owner of the session
func (s *Session) UserID() string {
	return s.userID
}

// Snapshot returns a copy of the current projection
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]models.RunView, len(s.runs))
	copy(runs, s.runs)

	return Snapshot{Runs: runs, Stats: s.stats}
}

// SetRuns replaces the run projection outright
func (s *Session) SetRuns(runs []models.RunView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = runs
}

// SetStats replaces the stats projection outright
func (s *Session) SetStats(stats models.ClientStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// RemoveRun optimistically drops a run from the projection. The caller is
// expected to follow up with an authoritative refresh.
func (s *Session) RemoveRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.runs[:0]
	for _, run := range s.runs {
		if run.RunID != runID {
			kept = append(kept, run)
		}
	}
	s.runs = kept
}

// Clear optimistically empties the projection and zeroes the stats
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = nil
	s.stats = models.ClientStats{}
}

// Registry tracks the live dashboard sessions so the realtime consumer can
// fan change events out to them. Closing a session deregisters it; nothing
// holds a reference afterwards.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Open creates and registers a session for the owner
func (r *Registry) Open(userID string) *Session {
	s := newSession(userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s

	return s
}

// Get returns the session with the given id, or nil
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Close deregisters a session. Closing an unknown id is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// All returns the currently registered sessions
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
