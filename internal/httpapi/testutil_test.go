package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"expertchat/pkg/types"
)

type mockService struct {
	models    types.ModelsResponse
	health    types.HealthResponse
	ready     bool
	selectErr error
	chatResp  types.ChatResponse
	chatErr   error
	// events are emitted in order by Stream; streamErr is returned before any.
	events    []types.StreamEvent
	streamErr error

	lastChat   types.ChatRequest
	lastSelect string
}

func (m *mockService) Models() types.ModelsResponse { return m.models }
func (m *mockService) Health() types.HealthResponse { return m.health }
func (m *mockService) Ready() bool                  { return m.ready }

func (m *mockService) Select(ctx context.Context, id string) (types.Expert, error) {
	m.lastSelect = id
	if m.selectErr != nil {
		return types.Expert{}, m.selectErr
	}
	return types.Expert{ID: id, Name: "Name of " + id, Enabled: true}, nil
}

func (m *mockService) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	m.lastChat = req
	return m.chatResp, m.chatErr
}

func (m *mockService) Stream(ctx context.Context, req types.ChatRequest, emit func(types.StreamEvent) error) error {
	m.lastChat = req
	if m.streamErr != nil {
		return m.streamErr
	}
	for _, ev := range m.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func newTestMux(svc Service, mutate func(*Options)) http.Handler {
	opts := Options{Logger: zerolog.Nop()}
	if mutate != nil {
		mutate(&opts)
	}
	return NewMux(svc, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
