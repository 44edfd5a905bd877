package manager

import (
	"context"
	"time"
)

// beginGeneration reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (m *Manager) beginGeneration(ctx context.Context, l *Loaded) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case l.queueCh <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		queueRejections.Inc()
		return nil, tooBusyError{id: l.Info.ID, reason: "queue full"}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-l.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer2 := time.NewTimer(m.maxWait)
	defer timer2.Stop()
	select {
	case l.genCh <- struct{}{}:
		acquired = true
		return func() { <-l.genCh; <-l.queueCh }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer2.C:
		queueRejections.Inc()
		return nil, tooBusyError{id: l.Info.ID, reason: "wait timeout"}
	}
}
