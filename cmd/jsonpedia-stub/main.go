// Command jsonpedia-stub is a local stand-in for the JSONpedia annotate
// endpoint. It serves stored responses from FIXTURES_DIR using the layout
// <dir>/<lang>/<resource>.json and <resource>.redirect.json, and can report
// overload for the first OVERLOAD_FIRST requests.
package main

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const overloadBody = `{"success":"false","message":"Service temporarily overloaded, please retry."}`
const invalidPageBody = `{"success":"false","message":"Invalid page metadata."}`

type stub struct {
	dir           string
	overloadFirst int64
	calls         atomic.Int64
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	dir := os.Getenv("FIXTURES_DIR")
	if strings.TrimSpace(dir) == "" {
		dir = "testdata/dom"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8089"
	}
	n, _ := strconv.ParseInt(os.Getenv("OVERLOAD_FIRST"), 10, 64)

	s := &stub{dir: dir, overloadFirst: n}
	log.Info().Str("addr", addr).Str("dir", dir).Int64("overload_first", n).Msg("jsonpedia-stub listening")
	if err := http.ListenAndServe(addr, s.routes()); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func (s *stub) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/annotate/resource/json/{page}", s.handleAnnotate)
	return r
}

func (s *stub) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.calls.Add(1) <= s.overloadFirst {
		_, _ = w.Write([]byte(overloadBody))
		return
	}
	page, err := url.PathUnescape(chi.URLParam(r, "page"))
	if err != nil {
		http.Error(w, "bad page", http.StatusBadRequest)
		return
	}
	lang, resource, ok := strings.Cut(page, ":")
	if !ok || lang == "" || resource == "" || strings.ContainsAny(lang+resource, `/\`) || strings.Contains(resource, "..") {
		http.Error(w, "bad page", http.StatusBadRequest)
		return
	}
	suffix := ".redirect.json"
	if r.URL.Query().Get("filter") != "" {
		suffix = ".json"
	}
	b, err := os.ReadFile(filepath.Join(s.dir, lang, resource+suffix))
	if err != nil {
		if suffix == ".redirect.json" {
			// a structure document without a redirect entry
			_, _ = w.Write([]byte(`{"wikitext-dom":[]}`))
			return
		}
		_, _ = w.Write([]byte(invalidPageBody))
		return
	}
	_, _ = w.Write(b)
}
