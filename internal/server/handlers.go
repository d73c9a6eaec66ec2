package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/wikilists/internal/app"
	"github.com/hyperifyio/wikilists/internal/dom"
	"github.com/hyperifyio/wikilists/internal/extract"
	"github.com/hyperifyio/wikilists/internal/jsonpedia"
)

type listsResponse struct {
	Lang     string         `json:"lang"`
	Resource string         `json:"resource"`
	Cleaned  bool           `json:"cleaned"`
	Lists    extract.Result `json:"lists"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	lang, err := pathParam(r, "lang")
	if err != nil || lang == "" || strings.ContainsAny(lang, `/\.: `) {
		jsonError(w, "invalid language", http.StatusBadRequest)
		return
	}
	resource, err := pathParam(r, "resource")
	if err != nil {
		jsonError(w, "invalid resource", http.StatusBadRequest)
		return
	}
	resource = app.NormalizeResource(resource)
	if resource == "" {
		jsonError(w, "invalid resource", http.StatusBadRequest)
		return
	}

	ex := *s.extractor
	raw := isTrue(r.URL.Query().Get("raw"))
	if raw {
		ex.Clean = nil
	}
	res, err := ex.Resource(r.Context(), lang, resource)
	if err != nil {
		code := statusFor(err)
		log.Warn().Err(err).Str("lang", lang).Str("resource", resource).Int("status", code).Msg("extraction failed")
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, listsResponse{
		Lang:     lang,
		Resource: resource,
		Cleaned:  ex.Clean != nil,
		Lists:    res,
	})
}

// statusFor maps extraction errors to HTTP status codes.
// pathParam returns a decoded route parameter. chi matches on RawPath
// when the request carries one, and on the already decoded Path otherwise.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

func statusFor(err error) int {
	switch {
	case dom.IsShapeError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, jsonpedia.ErrInvalidPage):
		return http.StatusNotFound
	case errors.Is(err, jsonpedia.ErrOverloaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
