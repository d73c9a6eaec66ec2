package jsonpedia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/wikilists/internal/cache"
)

// DefaultJar is the wrapper jar name looked up in the working directory.
const DefaultJar = "jsonpedia_wrapper.jar"

// Wrapper runs the JSONpedia library through its command line wrapper.
type Wrapper struct {
	Java string
	Jar  string
	// Dir is the working directory of the spawned process.
	Dir   string
	Cache *cache.DOMCache
	Retry RetryPolicy

	// run executes the command and returns its stdout; tests replace it.
	run func(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

func (w *Wrapper) Name() string { return "wrapper" }

func (w *Wrapper) args(lang, resource string, sectionsOnly bool) []string {
	jar := w.Jar
	if strings.TrimSpace(jar) == "" {
		jar = DefaultJar
	}
	args := []string{"-jar", jar, "-l", lang, "-r", resource, "-p", "Structure"}
	if sectionsOnly {
		args = append(args, "-f", "section")
	}
	return args
}

func (w *Wrapper) exec(ctx context.Context, args []string) ([]byte, error) {
	java := w.Java
	if strings.TrimSpace(java) == "" {
		java = "java"
	}
	run := w.run
	if run == nil {
		run = runCommand
	}
	out, err := run(ctx, w.Dir, java, args...)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", java, err)
	}
	return out, nil
}

func runCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}

// call runs the wrapper, going through the DOM cache when configured.
// Failed responses are never cached.
func (w *Wrapper) call(ctx context.Context, lang, resource string, sectionsOnly bool, decode func([]byte) error) error {
	mode := "structure"
	if sectionsOnly {
		mode = "section"
	}
	key := cache.KeyFrom(lang, resource, mode)
	if w.Cache != nil {
		if b, ok, err := w.Cache.Get(ctx, key); err == nil && ok {
			if err := decode(b); err == nil {
				log.Debug().Str("resource", resource).Str("mode", mode).Msg("wrapper output served from cache")
				return nil
			}
		}
	}
	args := w.args(lang, resource, sectionsOnly)
	return withRetry(ctx, w.Retry, mode, func() error {
		out, err := w.exec(ctx, args)
		if err != nil {
			return err
		}
		if err := decode(out); err != nil {
			return err
		}
		if w.Cache != nil {
			if err := w.Cache.Save(ctx, key, out); err != nil {
				log.Warn().Err(err).Msg("dom cache save failed")
			}
		}
		return nil
	})
}

// Sections runs the wrapper with the section filter.
func (w *Wrapper) Sections(ctx context.Context, lang, resource string) ([]any, error) {
	var out []any
	err := w.call(ctx, lang, resource, true, func(b []byte) error {
		var err error
		out, err = SectionsFrom(b)
		return err
	})
	return out, err
}

// Redirect runs the wrapper without the filter and reads the redirect.
func (w *Wrapper) Redirect(ctx context.Context, lang, resource string) (string, error) {
	var target string
	err := w.call(ctx, lang, resource, false, func(b []byte) error {
		var err error
		target, err = RedirectFrom(b)
		if errors.Is(err, ErrNoRedirect) {
			// a valid answer; cache it like any other
			return nil
		}
		return err
	})
	if err != nil {
		return "", err
	}
	if target == "" {
		return "", ErrNoRedirect
	}
	return target, nil
}
