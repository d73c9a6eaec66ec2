package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/wikilists/internal/cache"
	"github.com/hyperifyio/wikilists/internal/cleanup"
	"github.com/hyperifyio/wikilists/internal/fetch"
	"github.com/hyperifyio/wikilists/internal/jsonpedia"
	"github.com/hyperifyio/wikilists/internal/render"
)

// ErrResourcesFailed is returned by Run when at least one resource failed.
// Output for the successful resources has still been written.
var ErrResourcesFailed = errors.New("some resources failed")

type App struct {
	cfg       Config
	conv      jsonpedia.Converter
	extractor *Extractor
	httpCache *cache.HTTPCache
	domCache  *cache.DOMCache
}

// New wires the converter, caches and extractor from cfg.
func New(ctx context.Context, cfg Config) (*App, error) {
	if strings.TrimSpace(cfg.Lang) == "" {
		cfg.Lang = DefaultLang
	}
	a := &App{cfg: cfg}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		httpDir := filepath.Join(cfg.CacheDir, "http")
		domDir := filepath.Join(cfg.CacheDir, "dom")
		if cfg.CacheMaxAge > 0 {
			// best-effort; a stale cache never blocks a run
			_, _ = cache.PurgeHTTPCacheByAge(httpDir, cfg.CacheMaxAge)
			_, _ = cache.PurgeDOMCacheByAge(domDir, cfg.CacheMaxAge)
		}
		a.httpCache = &cache.HTTPCache{Dir: httpDir, StrictPerms: cfg.CacheStrictPerms}
		a.domCache = &cache.DOMCache{Dir: domDir, StrictPerms: cfg.CacheStrictPerms}
	}
	a.conv = a.newConverter()

	a.extractor = &Extractor{Converter: a.conv, MaxConcurrent: cfg.MaxConcurrent}
	if !cfg.DisableClean {
		extra := append([]string{}, cfg.ExcludeSections...)
		a.extractor.Clean = func(lang string) *cleanup.Cleaner { return cleanup.New(lang, extra...) }
	}
	log.Debug().Str("converter", a.conv.Name()).Str("lang", cfg.Lang).Bool("clean", !cfg.DisableClean).Msg("app initialized")
	return a, nil
}

func (a *App) retryPolicy() jsonpedia.RetryPolicy {
	p := jsonpedia.DefaultRetry
	if a.cfg.RetryAttempts > 0 {
		p.Attempts = uint(a.cfg.RetryAttempts)
	}
	if a.cfg.RetryDelay > 0 {
		p.Delay = a.cfg.RetryDelay
	}
	return p
}

func (a *App) newConverter() jsonpedia.Converter {
	switch {
	case a.cfg.DOMDir != "":
		return &jsonpedia.Dir{Root: a.cfg.DOMDir}
	case a.cfg.JSONpediaJar != "":
		return &jsonpedia.Wrapper{
			Java:  a.cfg.JavaPath,
			Jar:   a.cfg.JSONpediaJar,
			Cache: a.domCache,
			Retry: a.retryPolicy(),
		}
	}
	base := a.cfg.JSONpediaURL
	if base == "" {
		base = jsonpedia.DefaultBaseURL
	}
	maxConc := a.cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = DefaultMaxConcurrent
	}
	return &jsonpedia.Service{
		BaseURL: base,
		Retry:   a.retryPolicy(),
		Client: &fetch.Client{
			HTTPClient:        newConverterHTTPClient(a.cfg.RequestTimeout),
			UserAgent:         UserAgent(),
			MaxAttempts:       2,
			PerRequestTimeout: a.cfg.RequestTimeout,
			Cache:             a.httpCache,
			Cacheable:         jsonpedia.Cacheable,
			RedirectMaxHops:   5,
			MaxConcurrent:     maxConc,
		},
	}
}

// Extractor exposes the configured extractor, used by the HTTP server.
func (a *App) Extractor() *Extractor { return a.extractor }

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

func (a *App) Close() {
	if a.httpCache == nil {
		return
	}
	// keep the response cache bounded between runs
	if n, err := cache.EnforceHTTPCacheLimits(a.httpCache.Dir, 512<<20, 20000); err != nil {
		log.Warn().Err(err).Msg("cache limit enforcement failed")
	} else if n > 0 {
		log.Debug().Int("evicted", n).Msg("http cache trimmed")
	}
}

// Run extracts every configured resource and writes the JSON output, the
// optional Markdown and PDF renderings and the manifest sidecar.
func (a *App) Run(ctx context.Context) error {
	names, err := resolveResources(a.cfg.Resources, a.cfg.InputPath)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Str("lang", a.cfg.Lang).Int("resources", len(names)).Str("converter", a.conv.Name()).Msg("extracting lists")

	start := time.Now()
	outcomes := a.extractor.Resources(ctx, a.cfg.Lang, names)
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	log.Info().Int("ok", len(outcomes)-failed).Int("failed", failed).Dur("took", time.Since(start)).Msg("extraction finished")

	data, err := marshalOutput(outcomes)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := os.WriteFile(a.cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")

	if a.cfg.OutputMarkdownPath != "" {
		md := render.Markdown(pages(a.cfg.Lang, outcomes))
		if err := os.WriteFile(a.cfg.OutputMarkdownPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputMarkdownPath).Msg("wrote markdown")
	}
	if a.cfg.OutputPDFPath != "" {
		if err := render.PDF(pages(a.cfg.Lang, outcomes), a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPDFPath).Msg("wrote pdf")
	}

	meta := manifestMeta{
		RunID:         runID,
		Version:       BuildVersion,
		Converter:     a.conv.Name(),
		Lang:          a.cfg.Lang,
		ResourceCount: len(outcomes),
		Failed:        failed,
		Cleaned:       !a.cfg.DisableClean,
		HTTPCache:     a.httpCache != nil,
		GeneratedAt:   time.Now().UTC(),
	}
	if b, err := marshalManifestJSON(meta, buildManifestEntries(outcomes)); err == nil {
		if err := os.WriteFile(deriveManifestSidecarPath(a.cfg.OutputPath), b, 0o644); err != nil {
			log.Warn().Err(err).Msg("manifest write failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrResourcesFailed, failed, len(outcomes))
	}
	return nil
}
