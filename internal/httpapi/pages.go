package httpapi

import (
	"net/http"

	"expertchat/internal/webui"
)

func (h *handlers) page() webui.Page { return webui.Page{Prefix: h.opts.PathPrefix} }

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Index(w, h.page()); err != nil {
		h.opts.Logger.Error().Err(err).Msg("render index")
	}
}

func (h *handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Login(w, h.page()); err != nil {
		h.opts.Logger.Error().Err(err).Msg("render login")
	}
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.maxBody())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if h.opts.Gate != nil && h.opts.Gate.Login(w, r, r.PostFormValue("password")) {
		http.Redirect(w, r, h.opts.PathPrefix+"/", http.StatusFound)
		return
	}
	p := h.page()
	p.Error = "Wrong password"
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Login(w, p); err != nil {
		h.opts.Logger.Error().Err(err).Msg("render login")
	}
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if h.opts.Gate != nil {
		h.opts.Gate.Logout(w, r)
	}
	http.Redirect(w, r, h.opts.PathPrefix+"/login", http.StatusFound)
}
