package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/dataloom/internal/analysis"
)

// Page is the dashboard view a session is on.
type Page string

const (
	PageUpload        Page = "Upload"
	PageAnalysis      Page = "Analysis"
	PageVisualization Page = "Visualization"
	PageAPI           Page = "API"
)

// Pages lists every valid Page in menu order.
var Pages = []Page{PageUpload, PageAnalysis, PageVisualization, PageAPI}

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	for _, p := range Pages {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// DefaultTTL expires sessions idle for longer than this.
const DefaultTTL = 60 * time.Minute

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// State is the per-session dashboard state. Table is the active dataset
// and is replaced only as a whole.
type State struct {
	ID        string
	Page      Page
	Table     *analysis.Table
	Source    string
	UpdatedAt time.Time
	lastSeen  time.Time
}

// Manager owns session lifecycles. It is safe for concurrent use and hands
// out copies of State.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a Manager expiring sessions idle for ttl (0 means DefaultTTL).
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{sessions: make(map[string]*State), ttl: ttl, now: time.Now}
}

// Create starts a session on the Upload page with no table.
func (m *Manager) Create() State {
	now := m.now()
	st := &State{ID: uuid.NewString(), Page: PageUpload, UpdatedAt: now, lastSeen: now}
	m.mu.Lock()
	m.sessions[st.ID] = st
	m.mu.Unlock()
	return *st
}

// Get returns the session and marks it as seen.
func (m *Manager) Get(id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}
	st.lastSeen = m.now()
	return *st, nil
}

// InstallTable makes t the session's active table. Callers install only
// tables that loaded successfully, so a failure never clears prior state.
func (m *Manager) InstallTable(id string, t *analysis.Table, source string) (State, error) {
	if t == nil {
		return State{}, errors.New("install: nil table")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}
	now := m.now()
	st.Table, st.Source, st.UpdatedAt, st.lastSeen = t, source, now, now
	return *st, nil
}

// SetPage switches the session's page.
func (m *Manager) SetPage(id string, p Page) (State, error) {
	if _, err := ParsePage(string(p)); err != nil {
		return State{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}
	now := m.now()
	st.Page, st.UpdatedAt, st.lastSeen = p, now, now
	return *st, nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops idle sessions and returns their ids, oldest first.
func (m *Manager) Sweep() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var dropped []*State
	for id, st := range m.sessions {
		if now.Sub(st.lastSeen) > m.ttl {
			dropped = append(dropped, st)
			delete(m.sessions, id)
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].lastSeen.Before(dropped[j].lastSeen) })
	ids := make([]string, len(dropped))
	for i, st := range dropped {
		ids[i] = st.ID
	}
	return ids
}

// lookup must be called with mu held.
func (m *Manager) lookup(id string) (*State, error) {
	st, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().Sub(st.lastSeen) > m.ttl {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return st, nil
}
