package jsonpedia

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir serves converter responses stored on disk, for offline runs and
// tests. Layout: <Root>/<lang>/<resource>.json holds the sections
// response and <Root>/<lang>/<resource>.redirect.json the structure
// response used for redirect resolution.
type Dir struct {
	Root string
}

func (d *Dir) Name() string { return "dir" }

func (d *Dir) path(lang, resource, suffix string) (string, error) {
	if strings.TrimSpace(d.Root) == "" {
		return "", errors.New("jsonpedia: dir root is empty")
	}
	if strings.ContainsAny(resource, `/\`) || strings.Contains(resource, "..") || strings.ContainsAny(lang, `/\.`) {
		return "", fmt.Errorf("jsonpedia: invalid resource name %q", resource)
	}
	return filepath.Join(d.Root, lang, resource+suffix), nil
}

// Sections reads the stored sections response. A missing file means the
// converter does not know the page.
func (d *Dir) Sections(_ context.Context, lang, resource string) ([]any, error) {
	p, err := d.path(lang, resource, ".json")
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPage, resource)
	}
	if err != nil {
		return nil, err
	}
	return SectionsFrom(b)
}

// Redirect reads the stored structure response.
func (d *Dir) Redirect(_ context.Context, lang, resource string) (string, error) {
	p, err := d.path(lang, resource, ".redirect.json")
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoRedirect
	}
	if err != nil {
		return "", err
	}
	return RedirectFrom(b)
}
