package manager

import (
	"context"
	"time"
)

// drainPoll is the interval at which eviction re-checks outstanding leases.
const drainPoll = 10 * time.Millisecond

// evictLocked waits for l's leases to drain, then drops it from the slot and
// frees its weights. Runs with switchMu held. On timeout or cancellation the
// cache is left unchanged.
func (m *Manager) evictLocked(ctx context.Context, l *Loaded) error {
	deadline := time.Now().Add(m.drainTimeout)
	for l.refs.Load() > 0 {
		if time.Now().After(deadline) {
			m.publish(EventDrainWait, l.Info.ID, map[string]any{"leases": l.refs.Load()})
			return tooBusyError{id: l.Info.ID, reason: "draining"}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(drainPoll):
		}
	}

	m.stateMu.Lock()
	if m.cur == l {
		m.cur = nil
	}
	m.state = StateIdle
	m.evictions++
	m.stateMu.Unlock()

	if err := l.Model.Close(); err != nil {
		m.log.Warn().Err(err).Str("expert", l.Info.ID).Msg("release model")
	}
	evictionsTotal.Inc()
	resident.Set(0)
	m.publish(EventEvict, l.Info.ID, nil)
	m.log.Info().Str("expert", l.Info.ID).Msg("expert evicted")
	return nil
}

// Unload evicts the resident expert, if any, waiting for running generations.
func (m *Manager) Unload(ctx context.Context) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()
	cur := m.resident()
	if cur == nil {
		return nil
	}
	return m.evictLocked(ctx, cur)
}

// Close unloads the resident expert, bounded by the drain timeout.
func (m *Manager) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.drainTimeout+time.Second)
	defer cancel()
	return m.Unload(ctx)
}
