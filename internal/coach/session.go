package coach

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/fitbod/fitcoach/internal/models"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an untouched session is kept in memory.
const DefaultSessionTTL = 24 * time.Hour

// SessionKey scopes scratch state to one user's chat.
type SessionKey struct {
	UserID uuid.UUID
	ChatID string
}

// Session is the scratch state carried between requests of one chat.
type Session struct {
	SavedWorkouts []models.Workout
	MuscleLoads   map[string]models.MuscleLoad
	CurrentGoal   string
}

// SessionStore keeps Sessions between requests. Update applies fn to the
// current state under the store's lock, so concurrent requests on the same
// key do not overwrite each other's changes.
type SessionStore interface {
	Load(key SessionKey) Session
	Update(key SessionKey, fn func(*Session))
	Delete(key SessionKey)
}

type sessionEntry struct {
	session Session
	touched time.Time
}

// MemorySessions is an in-process SessionStore. State is lost on restart,
// and sessions untouched for longer than the TTL are dropped.
type MemorySessions struct {
	mu        sync.Mutex
	sessions  map[SessionKey]*sessionEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

var _ SessionStore = (*MemorySessions)(nil)

// NewMemorySessions creates an empty store with DefaultSessionTTL.
func NewMemorySessions() *MemorySessions {
	return NewMemorySessionsTTL(DefaultSessionTTL, time.Now)
}

// NewMemorySessionsTTL creates an empty store that expires sessions idle for
// longer than ttl, as measured by now.
func NewMemorySessionsTTL(ttl time.Duration, now func() time.Time) *MemorySessions {
	return &MemorySessions{
		sessions: make(map[SessionKey]*sessionEntry),
		ttl:      ttl,
		now:      now,
	}
}

// Load returns a copy of the session for key, or an empty one.
func (m *MemorySessions) Load(key SessionKey) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[key]
	if !ok || m.expired(e, m.now()) {
		return clone(Session{})
	}
	return clone(e.session)
}

// Update runs fn on a copy of the current session for key and stores the result.
func (m *MemorySessions) Update(key SessionKey, fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)

	var cur Session
	if e, ok := m.sessions[key]; ok && !m.expired(e, now) {
		cur = e.session
	}
	cur = clone(cur)
	fn(&cur)
	m.sessions[key] = &sessionEntry{session: clone(cur), touched: now}
}

// Delete forgets the session for key.
func (m *MemorySessions) Delete(key SessionKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *MemorySessions) expired(e *sessionEntry, now time.Time) bool {
	return now.Sub(e.touched) > m.ttl
}

// sweep drops expired sessions, at most once per quarter TTL.
func (m *MemorySessions) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.ttl/4 {
		return
	}
	m.lastSweep = now
	for key, e := range m.sessions {
		if m.expired(e, now) {
			delete(m.sessions, key)
		}
	}
}

func clone(s Session) Session {
	out := Session{
		SavedWorkouts: slices.Clone(s.SavedWorkouts),
		MuscleLoads:   maps.Clone(s.MuscleLoads),
		CurrentGoal:   s.CurrentGoal,
	}
	if out.SavedWorkouts == nil {
		out.SavedWorkouts = []models.Workout{}
	}
	if out.MuscleLoads == nil {
		out.MuscleLoads = map[string]models.MuscleLoad{}
	}
	return out
}
