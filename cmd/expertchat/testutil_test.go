package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"expertchat/internal/config"
	"expertchat/internal/llm/llmtest"
	"expertchat/internal/manager"
)

const testExperts = `{
  "base_model": "base.gguf",
  "models": [
    {"id": "base", "name": "Base", "adapter_path": null, "enabled": true},
    {"id": "cooking", "name": "Chef", "adapter_path": "adapters/cooking", "system_prompt": "You cook.", "enabled": true},
    {"id": "history", "name": "Historian", "adapter_path": "adapters/history"},
    {"id": "retired", "name": "Retired", "adapter_path": "adapters/retired", "enabled": false}
  ]
}`

// newTestConfig writes an experts file and a models dir holding only the
// cooking adapter.
func newTestConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	if err := os.MkdirAll(filepath.Join(models, "adapters", "cooking"), 0o755); err != nil {
		t.Fatal(err)
	}
	experts := filepath.Join(models, "models_config.json")
	if err := os.WriteFile(experts, []byte(testExperts), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.ExpertsFile = experts
	cfg.ModelsDir = models
	cfg.Runtime.Backend = "server"
	return cfg
}

func newTestStack(t *testing.T, cfg config.Config, rt *llmtest.Runtime, pub manager.EventPublisher) *stack {
	t.Helper()
	st, err := buildStack(cfg, rt, zerolog.Nop(), pub)
	if err != nil {
		t.Fatalf("build stack: %v", err)
	}
	t.Cleanup(func() { _ = st.mgr.Close() })
	return st
}
