package manager

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"expertchat/internal/catalog"
	"expertchat/internal/llm/llmtest"
	"expertchat/pkg/types"
)

const testModelsDir = "/models"

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		BaseModel: "base.gguf",
		Experts: []types.Expert{
			{ID: "base", Name: "Base", Enabled: true},
			{ID: "cooking", Name: "Cooking", AdapterPath: "adapters/cooking", Enabled: true},
			{ID: "history", Name: "History", AdapterPath: "adapters/history", Enabled: true},
			{ID: "retired", Name: "Retired", AdapterPath: "adapters/retired", Enabled: false},
		},
	}
}

func newTestManager(t *testing.T, rt *llmtest.Runtime, mutate func(*Config)) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	cfg := Config{
		Catalog:      catalog.NewStaticStore(testCatalog()),
		ModelsDir:    testModelsDir,
		Runtime:      rt,
		Logger:       zerolog.Nop(),
		Publisher:    pub,
		MaxWait:      200 * time.Millisecond,
		DrainTimeout: 500 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg), pub
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
