package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"expertchat/pkg/types"
)

// decodeJSON enforces the content type and body limit, then decodes into v.
// It writes the error response itself and reports whether decoding succeeded.
func (h *handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.maxBody())
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			writeJSONError(w, http.StatusBadRequest, "request body is empty")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *handlers) decodeChat(w http.ResponseWriter, r *http.Request) (types.ChatRequest, bool) {
	var req types.ChatRequest
	if !h.decodeJSON(w, r, &req) {
		return req, false
	}
	if req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return req, false
	}
	return req, true
}

// writeServiceError maps err to a status and writes it, unless the client is gone.
func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("queue")
	}
	writeJSONError(w, status, err.Error())
}

// models godoc
// @Summary      List experts
// @Description  Enabled experts whose adapters are present, and the resident expert.
// @Tags         chat
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /api/models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Models())
}

// selectModel godoc
// @Summary      Select an expert
// @Description  Loads the expert, evicting the resident one if different.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      types.SelectRequest  true  "Expert id"
// @Success      200   {object}  types.SelectResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      429   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /api/model/select [post]
func (h *handlers) selectModel(w http.ResponseWriter, r *http.Request) {
	var req types.SelectRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ModelID) == "" {
		writeJSONError(w, http.StatusBadRequest, "model_id is required")
		return
	}
	ctx, cancel := joinContexts(h.opts.BaseContext, r.Context())
	defer cancel()
	info, err := h.svc.Select(ctx, req.ModelID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, types.SelectResponse{Success: true, Model: info})
}

// chat godoc
// @Summary      Chat
// @Description  Generates a complete reply from the requested expert.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      types.ChatRequest  true  "Chat request"
// @Success      200   {object}  types.ChatResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      429   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /api/chat [post]
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChat(w, r)
	if !ok {
		return
	}
	ctx, cancel := joinContexts(h.opts.BaseContext, r.Context())
	defer cancel()
	resp, err := h.svc.Chat(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, resp)
}

// health godoc
// @Summary      Health
// @Description  Reports the resident expert. Never gated.
// @Tags         ops
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /api/health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Health())
}
