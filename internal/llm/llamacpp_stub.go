//go:build !llama

package llm

import (
	"context"
	"fmt"
)

// llamaBuilt indicates this binary was compiled without llama support.
const llamaBuilt = false

// LlamaOptions configure the in-process runtime.
type LlamaOptions struct {
	ContextSize int
	Threads     int
	GPULayers   int
}

type llamaRuntime struct{}

// NewLlamaRuntime returns a runtime that refuses to load anything: this
// binary was built without the 'llama' tag.
func NewLlamaRuntime(LlamaOptions) Runtime { return llamaRuntime{} }

func (llamaRuntime) Load(context.Context, LoadSpec) (Model, Tokenizer, error) {
	return nil, nil, fmt.Errorf("%w: llama support not built (missing 'llama' build tag)", ErrUnavailable)
}
