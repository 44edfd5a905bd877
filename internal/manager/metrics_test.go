package manager

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"expertchat/internal/llm/llmtest"
)

func TestMetrics_LoadsAndEvictions(t *testing.T) {
	rt := &llmtest.Runtime{}
	m, _ := newTestManager(t, rt, nil)
	ctx := testCtx(t)

	loadsBefore := testutil.ToFloat64(loadsTotal.WithLabelValues("history"))
	evictBefore := testutil.ToFloat64(evictionsTotal)
	hitsBefore := testutil.ToFloat64(cacheHits)

	if _, err := m.GetOrLoad(ctx, "base"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetOrLoad(ctx, "history"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetOrLoad(ctx, "history"); err != nil {
		t.Fatal(err)
	}

	if d := testutil.ToFloat64(loadsTotal.WithLabelValues("history")) - loadsBefore; d != 1 {
		t.Fatalf("loads delta: %v", d)
	}
	if d := testutil.ToFloat64(evictionsTotal) - evictBefore; d != 1 {
		t.Fatalf("evictions delta: %v", d)
	}
	if d := testutil.ToFloat64(cacheHits) - hitsBefore; d != 1 {
		t.Fatalf("hits delta: %v", d)
	}
	if v := testutil.ToFloat64(resident); v != 1 {
		t.Fatalf("resident gauge: %v", v)
	}
}
