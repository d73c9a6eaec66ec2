// Package jsonpedia obtains the JSON document-object-model of a Wikipedia
// article from the JSONpedia converter, either through its web service,
// through the local wrapper jar, or from files on disk.
package jsonpedia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidPage is reported when the converter does not know the page.
	ErrInvalidPage = errors.New("jsonpedia: invalid wiki page")
	// ErrDocumentElement is the converter's internal parse failure.
	ErrDocumentElement = errors.New("jsonpedia: DocumentElement expected")
	// ErrOverloaded covers every other converter failure; it is retried.
	ErrOverloaded = errors.New("jsonpedia: service overloaded")
	// ErrNoRedirect is returned when a page does not redirect anywhere.
	ErrNoRedirect = errors.New("jsonpedia: no redirect")
)

// Converter produces the section sequence of a resource and resolves
// page redirects. Implementations must be safe for concurrent use.
type Converter interface {
	Name() string
	// Sections returns the top-level nodes of the resource, filtered to
	// sections by the converter. An empty result is not an error.
	Sections(ctx context.Context, lang, resource string) ([]any, error)
	// Redirect returns the resource name the page redirects to.
	Redirect(ctx context.Context, lang, resource string) (string, error)
}

// RetryPolicy bounds retries of overloaded converter calls.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
}

// DefaultRetry waits a second between attempts, like the converter's
// operators ask for.
var DefaultRetry = RetryPolicy{Attempts: 5, Delay: time.Second}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts == 0 {
		p.Attempts = DefaultRetry.Attempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultRetry.Delay
	}
	return p
}

// withRetry runs fn until it succeeds, fails with a non-overload error,
// or the attempts are exhausted.
func withRetry(ctx context.Context, p RetryPolicy, what string, fn func() error) error {
	p = p.normalized()
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(p.Attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrOverloaded) }),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Str("call", what).Msg("converter overloaded; retrying")
		}),
	)
}

// classify maps a converter failure message to a sentinel error.
func classify(message string) error {
	switch {
	case message == "Invalid page metadata.":
		return ErrInvalidPage
	case strings.Contains(message, "Expected DocumentElement found"):
		return fmt.Errorf("%w: %s", ErrDocumentElement, message)
	default:
		return fmt.Errorf("%w: %s", ErrOverloaded, message)
	}
}

// RedirectName normalizes a page label into a resource name.
func RedirectName(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), " ", "_")
}
