// Package llm is the boundary to the inference runtime. Everything that
// touches weights, tokenization or sampling lives behind Runtime; the rest
// of the service only formats prompts and moves text around.
//
// Backends:
//
//   - llama: in-process go-llama.cpp, compiled with `-tags=llama`. A stub that
//     fails with ErrUnavailable is built otherwise, keeping default builds CGO-free.
//   - server: a running llama.cpp server reached over HTTP (NewServerRuntime).
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the selected backend is not usable in this build
// or cannot be reached.
var ErrUnavailable = errors.New("inference runtime unavailable")

// IsUnavailable reports whether err wraps ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// LoadSpec names the weights to load.
type LoadSpec struct {
	// BaseModel is a model file path or an identifier understood by the backend.
	BaseModel string
	// AdapterPath is an optional LoRA adapter applied on top of BaseModel.
	AdapterPath string
}

// Runtime loads models. Implementations must be safe for concurrent use.
type Runtime interface {
	Load(ctx context.Context, spec LoadSpec) (Model, Tokenizer, error)
}

// Params bounds a single generation.
type Params struct {
	MaxTokens int
	// Temperature is nil to leave the backend default in place.
	Temperature *float32
	Stop        []string
}

// Token is one generated token. ID is -1 when the backend only reports text.
type Token struct {
	ID   int
	Text string
}

// Model is a loaded set of weights. Generate and Stream are not required to
// be safe for concurrent use; callers serialize generations per model.
type Model interface {
	// Generate returns the whole completion for prompt.
	Generate(ctx context.Context, prompt string, p Params) (string, error)
	// Stream calls yield for each token until generation ends, yield returns
	// false, or ctx is done.
	Stream(ctx context.Context, prompt string, p Params, yield func(Token) bool) error
	// Close releases the weights. The model must not be used afterwards.
	Close() error
}

// Tokenizer exposes the vocabulary facts the chat layer needs.
type Tokenizer interface {
	// EOSTokenID returns the end-of-sequence token id, or -1 when unknown.
	EOSTokenID() int
}

// FixedEOS is a Tokenizer with a constant end-of-sequence id.
type FixedEOS int

// EOSTokenID implements Tokenizer.
func (f FixedEOS) EOSTokenID() int { return int(f) }
