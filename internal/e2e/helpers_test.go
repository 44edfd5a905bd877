package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"expertchat/internal/auth"
	"expertchat/internal/catalog"
	"expertchat/internal/chat"
	"expertchat/internal/httpapi"
	"expertchat/internal/llm/llmtest"
	"expertchat/internal/manager"
)

const expertsJSON = `{
  "base_model": "base.gguf",
  "models": [
    {"id": "base", "name": "Base", "adapter_path": null},
    {"id": "cooking", "name": "Chef", "adapter_path": "adapters/cooking", "system_prompt": "You are a chef."},
    {"id": "history", "name": "Historian", "adapter_path": "adapters/history", "system_prompt": "You are a historian."},
    {"id": "retired", "name": "Retired", "adapter_path": "adapters/retired", "enabled": false}
  ]
}`

type env struct {
	srv *httptest.Server
	mgr *manager.Manager
	rt  *llmtest.Runtime
	dir string
}

type envOptions struct {
	queueDepth  int
	maxWait     time.Duration
	requireAuth bool
	password    string
}

// createModelsDir lays out a models directory with the given adapter dirs and
// an experts file, returning the directory.
func createModelsDir(t *testing.T, adapters ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, a := range adapters {
		if err := os.MkdirAll(filepath.Join(dir, "adapters", a), 0o755); err != nil {
			t.Fatalf("mkdir adapter %s: %v", a, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "models_config.json"), []byte(expertsJSON), 0o644); err != nil {
		t.Fatalf("write experts: %v", err)
	}
	return dir
}

func newEnv(t *testing.T, rt *llmtest.Runtime, o envOptions) *env {
	t.Helper()
	dir := createModelsDir(t, "cooking", "history")
	store, err := catalog.NewStore(filepath.Join(dir, "models_config.json"))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	mgr := manager.New(manager.Config{
		Catalog:       store,
		ModelsDir:     dir,
		Runtime:       rt,
		Logger:        zerolog.Nop(),
		MaxQueueDepth: o.queueDepth,
		MaxWait:       o.maxWait,
		DrainTimeout:  time.Second,
	})
	svc := chat.New(chat.Options{Manager: mgr, ModelsDir: dir, Logger: zerolog.Nop()})
	if o.password == "" {
		o.password = "letmein"
	}
	gate := auth.New(auth.Options{
		Password:         o.password,
		SecretKey:        "e2e-secret",
		RequireAuthLocal: o.requireAuth,
		Logger:           zerolog.Nop(),
	})
	srv := httptest.NewServer(httpapi.NewMux(svc, httpapi.Options{Logger: zerolog.Nop(), Gate: gate}))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return &env{srv: srv, mgr: mgr, rt: rt, dir: dir}
}

// noRedirectClient keeps cookies but reports redirects instead of following them.
func noRedirectClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func httpGet(t *testing.T, c *http.Client, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	return send(t, c, req)
}

func httpPostJSON(t *testing.T, c *http.Client, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return send(t, c, req)
}

func send(t *testing.T, c *http.Client, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
