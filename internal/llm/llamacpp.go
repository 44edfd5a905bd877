//go:build llama

package llm

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

// LlamaOptions configure the in-process runtime.
type LlamaOptions struct {
	ContextSize int
	Threads     int
	GPULayers   int
}

type llamaRuntime struct {
	opts LlamaOptions
}

// NewLlamaRuntime returns the go-llama.cpp backed runtime.
func NewLlamaRuntime(opts LlamaOptions) Runtime {
	return &llamaRuntime{opts: opts}
}

// llamaModel owns the loaded weights and adapter.
type llamaModel struct {
	m       *llama.LLama
	threads int
}

func (r *llamaRuntime) Load(ctx context.Context, spec LoadSpec) (Model, Tokenizer, error) {
	if strings.TrimSpace(spec.BaseModel) == "" {
		return nil, nil, errors.New("base model path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	mo := []llama.ModelOption{
		llama.SetContext(zn(r.opts.ContextSize, 4096)),
	}
	if r.opts.GPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(r.opts.GPULayers))
	}
	if spec.AdapterPath != "" {
		mo = append(mo, llama.SetLoraAdapter(spec.AdapterPath), llama.SetLoraBase(spec.BaseModel))
	}
	m, err := llama.New(spec.BaseModel, mo...)
	if err != nil {
		return nil, nil, err
	}
	// llama.cpp stops on EOS by itself and only reports token text.
	return &llamaModel{m: m, threads: r.opts.Threads}, FixedEOS(-1), nil
}

func (s *llamaModel) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if s.m == nil {
		return "", errors.New("llama model not initialized")
	}
	s.m.SetTokenCallback(func(string) bool { return ctx.Err() == nil })
	defer s.m.SetTokenCallback(nil)
	text, err := s.m.Predict(prompt, predictOptions(p, s.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (s *llamaModel) Stream(ctx context.Context, prompt string, p Params, yield func(Token) bool) error {
	if s.m == nil {
		return errors.New("llama model not initialized")
	}
	s.m.SetTokenCallback(func(tok string) bool {
		if ctx.Err() != nil {
			return false
		}
		return yield(Token{ID: -1, Text: tok})
	})
	defer s.m.SetTokenCallback(nil)
	if _, err := s.m.Predict(prompt, predictOptions(p, s.threads)...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return ctx.Err()
}

func (s *llamaModel) Close() error {
	if s.m != nil {
		s.m.Free()
		s.m = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v *float32, def float32) float32 {
	if v != nil {
		return *v
	}
	return def
}

// predictOptions converts Params into go-llama.cpp options.
func predictOptions(p Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(zn(p.MaxTokens, 1)),
		llama.SetThreads(zn(threads, 1)),
		llama.SetTemperature(zf(p.Temperature, llama.DefaultOptions.Temperature)),
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}
