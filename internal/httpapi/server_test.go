package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expertchat/internal/manager"
	"expertchat/pkg/types"
)

func strPtr(s string) *string { return &s }

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: types.ModelsResponse{
		Models:  []types.Expert{{ID: "base"}, {ID: "cooking"}},
		Current: strPtr("cooking"),
	}}
	w := do(t, newTestMux(svc, nil), http.MethodGet, "/api/models", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 || body.Current == nil || *body.Current != "cooking" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if !strings.Contains(w.Body.String(), `"adapter_path":null,"system_prompt":null`) {
		t.Fatalf("absent adapter and prompt should be null: %s", w.Body.String())
	}
}

func TestModelsHandler_NullCurrent(t *testing.T) {
	svc := &mockService{models: types.ModelsResponse{Models: []types.Expert{}}}
	w := do(t, newTestMux(svc, nil), http.MethodGet, "/api/models", "")
	if !strings.Contains(w.Body.String(), `"current":null`) {
		t.Fatalf("expected null current, got %s", w.Body.String())
	}
}

func TestHealthHandler(t *testing.T) {
	svc := &mockService{health: types.HealthResponse{Status: "ok", LoadedModels: []string{"base"}, CurrentModel: strPtr("base")}}
	w := do(t, newTestMux(svc, nil), http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Status != "ok" || len(body.LoadedModels) != 1 || *body.CurrentModel != "base" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSelect(t *testing.T) {
	svc := &mockService{}
	w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/model/select", `{"model_id":"history"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.SelectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !body.Success || body.Model.ID != "history" || svc.lastSelect != "history" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSelect_MissingModelID(t *testing.T) {
	svc := &mockService{}
	w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/model/select", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body types.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "model_id is required" || body.Code != 400 {
		t.Fatalf("unexpected error body: %+v", body)
	}
	if svc.lastSelect != "" {
		t.Fatal("service must not be called")
	}
}

func TestSelect_UnknownExpertIs500WithMessage(t *testing.T) {
	svc := &mockService{selectErr: manager.UnknownExpertError{ID: "nope"}}
	w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/model/select", `{"model_id":"nope"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `expert \"nope\" not found`) {
		t.Fatalf("expected raw message, got %s", w.Body.String())
	}
}

func TestChat(t *testing.T) {
	svc := &mockService{chatResp: types.ChatResponse{Response: "Hi there", Model: "Chef"}}
	body := `{"message":"hello","model_id":"cooking","history":[{"user":"a","assistant":"b"}],"max_tokens":64,"temperature":0.3}`
	w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/chat", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Response != "Hi there" || resp.Model != "Chef" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	got := svc.lastChat
	if got.ModelID != "cooking" || got.MaxTokens != 64 || got.Temperature == nil || *got.Temperature != 0.3 || len(got.History) != 1 || got.History[0].Assistant != "b" {
		t.Fatalf("request not decoded: %+v", got)
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown expert", manager.UnknownExpertError{ID: "x"}, http.StatusInternalServerError},
		{"load failure", &manager.LoadError{ID: "x", Err: errors.New("oom")}, http.StatusInternalServerError},
		{"custom status", mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
		{"generic", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{chatErr: tc.err}
			w := do(t, newTestMux(svc, nil), http.MethodPost, "/api/chat", `{"message":"hi"}`)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			var body types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if body.Error != tc.err.Error() || body.Code != tc.want {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestChat_Validation(t *testing.T) {
	svc := &mockService{}
	h := newTestMux(svc, nil)

	if w := do(t, h, http.MethodPost, "/api/chat", `{"message":""}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty message: expected 400, got %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/chat", `{"message":`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("content-type: expected 415, got %d", w.Code)
	}
}

func TestChat_BodyTooLarge(t *testing.T) {
	svc := &mockService{}
	h := newTestMux(svc, func(o *Options) { o.MaxBodyBytes = 16 })
	w := do(t, h, http.MethodPost, "/api/chat", `{"message":"this body is far longer than sixteen bytes"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	w := do(t, newTestMux(&mockService{ready: true}, nil), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	w := do(t, newTestMux(&mockService{ready: false}, nil), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestHealthzAndNosniff(t *testing.T) {
	w := do(t, newTestMux(&mockService{}, nil), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
}

func TestPathPrefix(t *testing.T) {
	svc := &mockService{health: types.HealthResponse{Status: "ok", LoadedModels: []string{}}}
	h := newTestMux(svc, func(o *Options) { o.PathPrefix = "/s3cr3t" })
	if w := do(t, h, http.MethodGet, "/s3cr3t/api/health", ""); w.Code != http.StatusOK {
		t.Fatalf("prefixed health: %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/health", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unprefixed health should 404, got %d", w.Code)
	}
}

func TestCORS_OptIn(t *testing.T) {
	svc := &mockService{}
	preflight := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
		req.Header.Set("Origin", "https://chat.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	if w := preflight(newTestMux(svc, nil)); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("CORS headers present while disabled")
	}
	h := newTestMux(svc, func(o *Options) {
		o.CORS = CORSOptions{Enabled: true, Origins: []string{"https://chat.example"}, Methods: []string{"GET", "POST"}, Headers: []string{"Content-Type"}}
	})
	if got := preflight(h).Header().Get("Access-Control-Allow-Origin"); got != "https://chat.example" {
		t.Fatalf("allow-origin=%q", got)
	}
}
