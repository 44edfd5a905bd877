package manager

import (
	"context"
	"errors"
	"time"

	"expertchat/internal/catalog"
	"expertchat/internal/llm"
)

// GetOrLoad returns the resident expert for id, loading it first if needed.
//
// A different resident expert is evicted before the new weights are loaded.
// Unknown or disabled ids fail with UnknownExpertError and leave the cache
// untouched. A failed load leaves the cache empty.
//
// The returned value is not pinned; callers that generate must use Acquire.
func (m *Manager) GetOrLoad(ctx context.Context, id string) (*Loaded, error) {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()
	return m.ensureLocked(ctx, id)
}

// Acquire resolves id like GetOrLoad and then waits for the model's single
// generation slot. The returned Lease keeps the model resident until Release.
func (m *Manager) Acquire(ctx context.Context, id string) (*Lease, error) {
	m.switchMu.Lock()
	l, err := m.ensureLocked(ctx, id)
	if err != nil {
		m.switchMu.Unlock()
		return nil, err
	}
	// Pin before dropping switchMu so a concurrent switch drains us.
	l.refs.Add(1)
	m.switchMu.Unlock()

	release, err := m.beginGeneration(ctx, l)
	if err != nil {
		l.refs.Add(-1)
		return nil, err
	}
	return &Lease{Loaded: l, release: release}, nil
}

// ensureLocked runs with switchMu held. The id is resolved against the
// current catalog snapshot on every call, so a reload that disables the
// resident expert stops it being served, and a changed descriptor reloads it.
func (m *Manager) ensureLocked(ctx context.Context, id string) (*Loaded, error) {
	snap := m.catalog.Snapshot()
	expert, ok := snap.Lookup(id)
	if !ok || !expert.Enabled {
		return nil, UnknownExpertError{ID: id}
	}
	spec := llm.LoadSpec{BaseModel: catalog.ResolveBaseModel(m.modelsDir, snap.BaseModel)}
	if expert.HasAdapter() {
		spec.AdapterPath = catalog.ResolvePath(m.modelsDir, expert.AdapterPath)
	}

	cur := m.resident()
	if cur != nil && cur.Info.ID == id {
		if cur.Info == expert && cur.spec == spec {
			cacheHits.Inc()
			m.publish(EventHit, id, nil)
			return cur, nil
		}
		m.log.Info().Str("expert", id).Msg("expert descriptor changed, reloading")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cur != nil {
		if err := m.evictLocked(ctx, cur); err != nil {
			return nil, err
		}
	}

	m.setState(StateLoading, "")
	m.publish(EventLoadStart, id, map[string]any{"base": spec.BaseModel, "adapter": spec.AdapterPath})
	m.log.Info().Str("expert", id).Str("base", spec.BaseModel).Str("adapter", spec.AdapterPath).Msg("loading expert")

	start := time.Now()
	model, tok, err := m.rt.Load(ctx, spec)
	elapsed := time.Since(start)
	loadDuration.Observe(elapsed.Seconds())
	if err != nil {
		loadFailures.WithLabelValues(id).Inc()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			m.setState(StateIdle, "")
		} else {
			m.setState(StateError, err.Error())
		}
		m.publish(EventLoadError, id, map[string]any{"error": err.Error()})
		m.log.Error().Err(err).Str("expert", id).Dur("elapsed", elapsed).Msg("expert load failed")
		return nil, &LoadError{ID: id, Err: err}
	}

	l := newLoaded(expert, spec, model, tok, m.maxQueueDepth)
	m.stateMu.Lock()
	m.cur = l
	m.state = StateReady
	m.lastErr = ""
	m.loads++
	m.stateMu.Unlock()

	loadsTotal.WithLabelValues(id).Inc()
	resident.Set(1)
	m.publish(EventLoadDone, id, map[string]any{"elapsed_ms": elapsed.Milliseconds()})
	m.log.Info().Str("expert", id).Dur("elapsed", elapsed).Msg("expert loaded")
	return l, nil
}
