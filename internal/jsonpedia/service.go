package jsonpedia

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/wikilists/internal/fetch"
)

// DefaultBaseURL is the public JSONpedia instance.
const DefaultBaseURL = "http://jsonpedia.org"

// Service talks to the JSONpedia annotate web service.
type Service struct {
	BaseURL string
	Client  *fetch.Client
	Retry   RetryPolicy
}

func (s *Service) Name() string { return "service" }

func (s *Service) resourceURL(lang, resource string, sectionsOnly bool) string {
	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u := base + "/annotate/resource/json/" + url.PathEscape(lang) + "%3A" + url.PathEscape(resource)
	if sectionsOnly {
		return u + "?filter=@type:section&procs=Structure"
	}
	return u + "?procs=Structure"
}

func (s *Service) client() *fetch.Client {
	if s.Client != nil {
		return s.Client
	}
	return &fetch.Client{MaxAttempts: 2}
}

// Sections requests the section nodes of a resource.
func (s *Service) Sections(ctx context.Context, lang, resource string) ([]any, error) {
	u := s.resourceURL(lang, resource, true)
	var out []any
	err := withRetry(ctx, s.Retry, "sections", func() error {
		log.Debug().Str("url", u).Msg("jsonpedia sections request")
		body, _, err := s.client().Get(ctx, u)
		if err != nil {
			return fmt.Errorf("jsonpedia request: %w", err)
		}
		out, err = SectionsFrom(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Redirect requests the full structure of a resource and reads its
// redirect target.
func (s *Service) Redirect(ctx context.Context, lang, resource string) (string, error) {
	u := s.resourceURL(lang, resource, false)
	var target string
	err := withRetry(ctx, s.Retry, "redirect", func() error {
		body, _, err := s.client().Get(ctx, u)
		if err != nil {
			return fmt.Errorf("jsonpedia request: %w", err)
		}
		target, err = RedirectFrom(body)
		return err
	})
	if err != nil {
		return "", err
	}
	return target, nil
}
