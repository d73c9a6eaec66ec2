package dom

import (
	"errors"
	"strconv"
	"strings"
)

// ShapeError reports a node whose type or field layout matches no known
// case. Path is the section title path being processed when the node was
// met; it is filled in by the walker.
type ShapeError struct {
	Path   string
	Title  string
	Node   string
	Field  string
	Index  []int
	Reason string
}

func (e *ShapeError) Error() string {
	var b strings.Builder
	b.WriteString("unexpected ")
	b.WriteString(e.Node)
	b.WriteString(" shape")
	if e.Field != "" {
		b.WriteString(" in field ")
		b.WriteString(strconv.Quote(e.Field))
	}
	if len(e.Index) > 0 {
		b.WriteString(" at ")
		for i, idx := range e.Index {
			if i > 0 {
				b.WriteByte('/')
			}
			b.WriteString(strconv.Itoa(idx))
		}
	}
	switch {
	case e.Path != "":
		b.WriteString(" (section ")
		b.WriteString(strconv.Quote(e.Path))
		b.WriteString(")")
	case e.Title != "":
		b.WriteString(" (title ")
		b.WriteString(strconv.Quote(e.Title))
		b.WriteString(")")
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// IsShapeError reports whether err wraps a ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// WithPath returns err with the section title path attached when it is a
// ShapeError that does not carry one yet. Other errors pass through.
func WithPath(err error, path string) error {
	var se *ShapeError
	if !errors.As(err, &se) || se.Path != "" {
		return err
	}
	cp := *se
	cp.Path = path
	return &cp
}

// withIndex prefixes the element position to a ShapeError so that nested
// failures read as a path (element 3, inline 1 -> "3/1").
func withIndex(err error, i int) error {
	var se *ShapeError
	if !errors.As(err, &se) {
		return err
	}
	cp := *se
	cp.Index = append([]int{i}, se.Index...)
	return &cp
}
