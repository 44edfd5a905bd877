package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"expertchat/internal/catalog"
	"expertchat/internal/chat"
	"expertchat/internal/config"
	"expertchat/internal/llm"
	"expertchat/internal/manager"
)

// newRuntime selects the inference backend named in cfg.
func newRuntime(cfg config.Config, log zerolog.Logger) (llm.Runtime, error) {
	switch cfg.Runtime.Backend {
	case "llama":
		if !llm.LlamaBuilt() {
			return nil, fmt.Errorf("%w: rebuild with -tags=llama or set runtime.backend=server", llm.ErrUnavailable)
		}
		return llm.NewLlamaRuntime(llm.LlamaOptions{
			ContextSize: cfg.Runtime.ContextSize,
			Threads:     cfg.Runtime.Threads,
			GPULayers:   cfg.Runtime.GPULayers,
		}), nil
	case "server":
		return llm.NewServerRuntime(llm.ServerOptions{
			BaseURL:        cfg.Runtime.ServerURL,
			APIKey:         cfg.Runtime.APIKey,
			RequestTimeout: time.Duration(cfg.Runtime.TimeoutSeconds) * time.Second,
			Logger:         log.With().Str("component", "llama-server").Logger(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown runtime backend %q", cfg.Runtime.Backend)
	}
}

// stack is the wired object graph shared by serve and probe.
type stack struct {
	store *catalog.Store
	mgr   *manager.Manager
	svc   *chat.Service
}

// buildStack loads the experts catalog and wires cache and chat service
// around rt. pub may be nil.
func buildStack(cfg config.Config, rt llm.Runtime, log zerolog.Logger, pub manager.EventPublisher) (*stack, error) {
	store, err := catalog.NewStore(cfg.ExpertsFile)
	if err != nil {
		return nil, fmt.Errorf("load experts: %w", err)
	}
	mgr := manager.New(manager.Config{
		Catalog:       store,
		ModelsDir:     cfg.ModelsDir,
		Runtime:       rt,
		Logger:        log.With().Str("component", "manager").Logger(),
		Publisher:     pub,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.QueueWait(),
		DrainTimeout:  cfg.DrainTimeout(),
	})
	svc := chat.New(chat.Options{
		Manager:            mgr,
		ModelsDir:          cfg.ModelsDir,
		DefaultExpert:      cfg.DefaultExpert,
		MaxTokens:          cfg.MaxTokens,
		Temperature:        cfg.Temperature,
		ForwardTemperature: cfg.ForwardTemperature,
		Logger:             log.With().Str("component", "chat").Logger(),
	})
	return &stack{store: store, mgr: mgr, svc: svc}, nil
}
