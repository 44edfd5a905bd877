package httpapi

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/go-chi/chi/v5/middleware"

	"expertchat/pkg/types"
)

// sseWriter writes server-sent events. Headers are committed on the first
// event so errors found before that can still become a JSON status.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) start() {
	hdr := s.w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

func (s *sseWriter) send(ev types.StreamEvent) error {
	if !s.started {
		s.start()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(b)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, b...)
	buf = append(buf, '\n', '\n')
	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// chatStream godoc
// @Summary      Chat (streaming)
// @Description  Streams the reply as server-sent events. Each event is one of {"token": "..."}, {"done": true} or {"error": "..."}.
// @Tags         chat
// @Accept       json
// @Produce      text/event-stream
// @Param        body  body      types.ChatRequest  true  "Chat request"
// @Success      200   {object}  types.StreamEvent
// @Failure      400   {object}  types.ErrorResponse
// @Router       /api/chat/stream [post]
func (h *handlers) chatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChat(w, r)
	if !ok {
		return
	}
	sw := &sseWriter{w: w}
	sw.flusher, _ = w.(http.Flusher)

	lvl := requestLogLevel(r)
	log := h.opts.Logger.With().Str("request_id", middleware.GetReqID(r.Context())).Str("expert", req.ModelID).Logger()

	ctx, cancel := joinContexts(h.opts.BaseContext, r.Context())
	defer cancel()
	tokens := 0
	err := h.svc.Stream(ctx, req, func(ev types.StreamEvent) error {
		if ev.Token != "" {
			tokens++
			streamTokensTotal.Inc()
			if lvl >= LevelDebug {
				log.Debug().Str("token", ev.Token).Msg("stream token")
			}
		}
		return sw.send(ev)
	})
	if err != nil && !sw.started {
		h.writeServiceError(w, r, err)
		return
	}
	if lvl >= LevelInfo {
		log.Info().Int("tokens", tokens).Bool("client_gone", r.Context().Err() != nil).Msg("stream end")
	}
}
