package manager

// Event names published by the manager.
const (
	EventHit       = "cache_hit"
	EventLoadStart = "load_start"
	EventLoadDone  = "load_done"
	EventLoadError = "load_error"
	EventEvict     = "evict"
	EventDrainWait = "drain_timeout"
)

// Event represents a cache lifecycle event: name, expert id and optional fields.
type Event struct {
	Name     string
	ExpertID string
	Fields   map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

func (m *Manager) publish(name, id string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	m.publisher.Publish(Event{Name: name, ExpertID: id, Fields: fields})
}
