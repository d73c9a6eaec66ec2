package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/wikilists/internal/cleanup"
	"github.com/hyperifyio/wikilists/internal/extract"
	"github.com/hyperifyio/wikilists/internal/jsonpedia"
)

// Extractor drives conversion, walking and cleanup for resources.
type Extractor struct {
	Converter jsonpedia.Converter
	// Walker defaults to extract.SectionWalker.
	Walker extract.Extractor
	// Clean is applied to every result when set.
	Clean func(lang string) *cleanup.Cleaner
	// MaxConcurrent bounds Resources; values <= 0 mean one at a time.
	MaxConcurrent int
}

// Outcome is the result of one resource in a batch.
type Outcome struct {
	Resource string
	// Redirect is the page actually converted when the name redirected.
	Redirect string
	Result   extract.Result
	Err      error
}

func (e *Extractor) walker() extract.Extractor {
	if e.Walker == nil {
		return extract.SectionWalker{}
	}
	return e.Walker
}

// Resource converts one page and extracts its lists. When the converter
// returns no sections the page name is resolved as a redirect and the
// target is converted instead. A failure returns no partial result.
func (e *Extractor) Resource(ctx context.Context, lang, resource string) (extract.Result, error) {
	out := e.resource(ctx, lang, resource)
	return out.Result, out.Err
}

func (e *Extractor) resource(ctx context.Context, lang, resource string) Outcome {
	out := Outcome{Resource: resource}
	if e.Converter == nil {
		out.Err = errors.New("no converter configured")
		return out
	}
	logger := log.With().Str("lang", lang).Str("resource", resource).Logger()

	nodes, err := e.Converter.Sections(ctx, lang, resource)
	if err != nil {
		out.Err = fmt.Errorf("convert %s: %w", resource, err)
		return out
	}
	if len(nodes) == 0 {
		target, rerr := e.Converter.Redirect(ctx, lang, resource)
		switch {
		case errors.Is(rerr, jsonpedia.ErrNoRedirect):
			logger.Info().Msg("no sections and no redirect")
		case rerr != nil:
			out.Err = fmt.Errorf("resolve redirect %s: %w", resource, rerr)
			return out
		case target != resource:
			logger.Info().Str("target", target).Msg("following redirect")
			out.Redirect = target
			nodes, err = e.Converter.Sections(ctx, lang, target)
			if err != nil {
				out.Err = fmt.Errorf("convert %s: %w", target, err)
				return out
			}
		}
	}

	res, err := e.walker().Extract(nodes)
	if err != nil {
		out.Err = fmt.Errorf("extract %s: %w", resource, err)
		return out
	}
	raw := res.Len()
	if e.Clean != nil {
		res = e.Clean(lang).Apply(res)
	}
	logger.Debug().Int("nodes", len(nodes)).Int("lists", raw).Int("kept", res.Len()).Msg("resource extracted")
	out.Result = res
	return out
}

// Resources processes resources concurrently, each walk with its own
// title state, and returns outcomes in input order. One failing resource
// does not stop the others.
func (e *Extractor) Resources(ctx context.Context, lang string, names []string) []Outcome {
	outcomes := make([]Outcome, len(names))
	limit := e.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{Resource: name, Err: err}
				return nil
			}
			outcomes[i] = e.resource(ctx, lang, name)
			if outcomes[i].Err != nil {
				log.Warn().Err(outcomes[i].Err).Str("resource", name).Msg("resource failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// NormalizeResource turns a page title into a resource name: surrounding
// space trimmed and inner spaces replaced by underscores.
func NormalizeResource(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
