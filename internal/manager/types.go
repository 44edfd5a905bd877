package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"expertchat/internal/llm"
	"expertchat/pkg/types"
)

// State represents the lifecycle state of the cache slot.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Loaded is the resident expert: its weights, tokenizer and descriptor.
type Loaded struct {
	Info      types.Expert
	Model     llm.Model
	Tokenizer llm.Tokenizer
	LoadedAt  time.Time

	spec    llm.LoadSpec
	refs    atomic.Int64
	genCh   chan struct{} // size 1: single in-flight generation
	queueCh chan struct{} // buffered: queue slots
}

func newLoaded(info types.Expert, spec llm.LoadSpec, model llm.Model, tok llm.Tokenizer, queueDepth int) *Loaded {
	return &Loaded{
		Info:      info,
		spec:      spec,
		Model:     model,
		Tokenizer: tok,
		LoadedAt:  time.Now(),
		genCh:     make(chan struct{}, 1),
		queueCh:   make(chan struct{}, queueDepth),
	}
}

// Lease pins a Loaded model and its generation slot until Release.
type Lease struct {
	*Loaded
	once    sync.Once
	release func()
}

// Release returns the generation slot and unpins the model. Safe to call twice.
func (l *Lease) Release() {
	l.once.Do(func() {
		if l.release != nil {
			l.release()
		}
		l.refs.Add(-1)
	})
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State     State
	Current   *types.Expert
	LastError string
	Loads     uint64
	Evictions uint64
}
