package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"expertchat/internal/catalog"
	"expertchat/internal/llm"
	"expertchat/pkg/types"
)

// Manager is the single-slot model cache.
//
// switchMu serializes every resolve/evict/load sequence so that two requests
// for different experts never interleave. stateMu guards the resident slot
// for readers that must not wait on a load in progress (health, listing).
type Manager struct {
	switchMu sync.Mutex

	stateMu   sync.RWMutex
	cur       *Loaded
	state     State
	lastErr   string
	loads     uint64
	evictions uint64

	catalog       *catalog.Store
	modelsDir     string
	rt            llm.Runtime
	log           zerolog.Logger
	publisher     EventPublisher
	maxQueueDepth int
	maxWait       time.Duration
	drainTimeout  time.Duration
}

// Catalog returns the store the manager resolves expert ids against.
func (m *Manager) Catalog() *catalog.Store { return m.catalog }

// Current returns the resident expert, if any.
func (m *Manager) Current() (types.Expert, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if m.cur == nil {
		return types.Expert{}, false
	}
	return m.cur.Info, true
}

// LoadedIDs lists resident expert ids. It never has more than one entry.
func (m *Manager) LoadedIDs() []string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if m.cur == nil {
		return []string{}
	}
	return []string{m.cur.Info.ID}
}

// Ready reports whether an expert is resident.
func (m *Manager) Ready() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.cur != nil
}

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	s := Snapshot{State: m.state, LastError: m.lastErr, Loads: m.loads, Evictions: m.evictions}
	if m.cur != nil {
		info := m.cur.Info
		s.Current = &info
	}
	return s
}

func (m *Manager) resident() *Loaded {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.cur
}

func (m *Manager) setState(s State, errMsg string) {
	m.stateMu.Lock()
	m.state = s
	if s == StateError {
		m.lastErr = errMsg
	}
	m.stateMu.Unlock()
}
