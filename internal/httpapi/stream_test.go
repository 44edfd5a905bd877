package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"expertchat/internal/chat"
	"expertchat/internal/manager"
	"expertchat/pkg/types"
)

func parseSSE(t *testing.T, body string) []types.StreamEvent {
	t.Helper()
	var out []types.StreamEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			t.Fatalf("unexpected line %q", line)
		}
		var ev types.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("event json: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

func TestChatStream_Events(t *testing.T) {
	svc := &mockService{events: []types.StreamEvent{{Token: "Hel"}, {Token: "lo"}, {Done: true}}}
	w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/chat/stream", `{"message":"hi","model_id":"cooking"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%q", ct)
	}
	if w.Header().Get("Cache-Control") != "no-cache" || w.Header().Get("X-Accel-Buffering") != "no" {
		t.Fatalf("missing streaming headers: %v", w.Header())
	}
	if !w.Flushed {
		t.Fatal("expected flushed response")
	}
	events := parseSSE(t, w.Body.String())
	if len(events) != 3 || events[0].Token != "Hel" || events[1].Token != "lo" || !events[2].Done {
		t.Fatalf("events: %+v", events)
	}
	if !strings.Contains(w.Body.String(), `data: {"done":true}`+"\n\n") {
		t.Fatalf("wire format: %q", w.Body.String())
	}
}

func TestChatStream_InBandError(t *testing.T) {
	svc := &mockService{events: []types.StreamEvent{{Token: "par"}, {Error: "generation failed"}}}
	w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/chat/stream", `{"message":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	events := parseSSE(t, w.Body.String())
	if len(events) != 2 || events[1].Error != "generation failed" {
		t.Fatalf("events: %+v", events)
	}
}

func TestChatStream_ErrorsBeforeFirstEvent(t *testing.T) {
	svc := &mockService{}
	h := newTestMux(svc, nil)
	if w := do(t, h, http.MethodPost, "/api/chat/stream", `{"message":""}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty message: expected 400, got %d", w.Code)
	}

	svc.streamErr = manager.UnknownExpertError{ID: "x"}
	w := do(t, h, http.MethodPost, "/api/chat/stream", `{"message":"hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON error, got %q", ct)
	}
}

func TestChatStream_ValidationFromService(t *testing.T) {
	err := chat.New(chat.Options{}).Stream(context.Background(), types.ChatRequest{}, nil)
	if !chat.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	svc := &mockService{streamErr: err}
	w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/chat/stream", `{"message":"hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
