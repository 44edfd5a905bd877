// Package llmtest provides an in-memory llm.Runtime for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"expertchat/internal/llm"
)

// EOS is the end-of-sequence id reported by the fake tokenizer.
const EOS = 2

// Runtime is a scripted llm.Runtime. Every generation replays Pieces (or
// the per-adapter override) as tokens; Generate concatenates them.
type Runtime struct {
	mu sync.Mutex

	// Pieces is the default token stream.
	Pieces []string
	// ByAdapter overrides Pieces for a given adapter path.
	ByAdapter map[string][]string
	// LoadErr makes every Load fail.
	LoadErr error
	// FailAdapter makes Load fail only for the matching adapter path.
	FailAdapter string
	// GenErr makes Generate and Stream fail after any scripted pieces.
	GenErr error
	// Block, when non-nil, is received from before a generation returns.
	Block chan struct{}

	loads  []llm.LoadSpec
	closed int
	live   int
	prompt []string
	params []llm.Params
}

// Load records spec and returns a scripted model.
func (r *Runtime) Load(ctx context.Context, spec llm.LoadSpec) (llm.Model, llm.Tokenizer, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, spec)
	if r.LoadErr != nil {
		return nil, nil, r.LoadErr
	}
	if r.FailAdapter != "" && spec.AdapterPath == r.FailAdapter {
		return nil, nil, errors.New("adapter weights unreadable: " + spec.AdapterPath)
	}
	pieces := r.Pieces
	if p, ok := r.ByAdapter[spec.AdapterPath]; ok {
		pieces = p
	}
	r.live++
	return &model{rt: r, pieces: pieces}, llm.FixedEOS(EOS), nil
}

// Loads returns every LoadSpec seen, in order.
func (r *Runtime) Loads() []llm.LoadSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]llm.LoadSpec(nil), r.loads...)
}

// Live is the number of loaded models not yet closed.
func (r *Runtime) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Closed is the number of Close calls.
func (r *Runtime) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Prompts returns every prompt passed to Generate or Stream.
func (r *Runtime) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompt...)
}

// Params returns every Params passed to Generate or Stream.
func (r *Runtime) Params() []llm.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]llm.Params(nil), r.params...)
}

type model struct {
	rt     *Runtime
	pieces []string
}

func (m *model) record(prompt string, p llm.Params) {
	m.rt.mu.Lock()
	m.rt.prompt = append(m.rt.prompt, prompt)
	m.rt.params = append(m.rt.params, p)
	m.rt.mu.Unlock()
}

func (m *model) wait(ctx context.Context) error {
	if m.rt.Block == nil {
		return nil
	}
	select {
	case <-m.rt.Block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *model) Generate(ctx context.Context, prompt string, p llm.Params) (string, error) {
	m.record(prompt, p)
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	if m.rt.GenErr != nil {
		return "", m.rt.GenErr
	}
	return strings.Join(m.pieces, ""), nil
}

// Stream yields pieces with sequential ids starting at 100; a piece equal to
// "</s>" is reported with the EOS id.
func (m *model) Stream(ctx context.Context, prompt string, p llm.Params, yield func(llm.Token) bool) error {
	m.record(prompt, p)
	for i, piece := range m.pieces {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := 100 + i
		if piece == "</s>" {
			id = EOS
		}
		if !yield(llm.Token{ID: id, Text: piece}) {
			return nil
		}
	}
	if err := m.wait(ctx); err != nil {
		return err
	}
	return m.rt.GenErr
}

func (m *model) Close() error {
	m.rt.mu.Lock()
	m.rt.closed++
	m.rt.live--
	m.rt.mu.Unlock()
	return nil
}
