package extract

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/wikilists/internal/dom"
)

// ReferenceOpen and ReferenceClose delimit a cross reference inside a
// flattened item. Downstream link resolution matches on them, so the
// rendered form " {{label}} " must not change.
const (
	ReferenceOpen  = "{{"
	ReferenceClose = "}}"
)

// FormatReference renders a reference label with the sentinel markers and
// the single surrounding spaces.
func FormatReference(label string) string {
	return " " + ReferenceOpen + label + ReferenceClose + " "
}

// FlattenItem renders the content of one list element as a single
// string. Fragments are concatenated in document order.
func FlattenItem(el dom.ListElement) (string, error) {
	var b strings.Builder
	for i, in := range el.Content {
		switch n := in.(type) {
		case dom.InlineTemplate:
			if err := writeTemplate(&b, n); err != nil {
				return "", prefixIndex(err, i)
			}
		case dom.InlineReference:
			b.WriteString(FormatReference(n.Label))
		case dom.InlineLabel:
			// padded so that adjacent words do not run together
			b.WriteString(" ")
			b.WriteString(n.Label)
			b.WriteString(" ")
		case dom.InlineText:
			b.WriteString(n.Text)
		case dom.InlineFootnote:
		default:
			return "", &dom.ShapeError{Node: "inline", Index: []int{i}, Reason: "unhandled variant"}
		}
	}
	return b.String(), nil
}

// FlattenRaw decodes a raw list element and flattens it.
func FlattenRaw(v any) (string, error) {
	el, err := dom.ParseListElement(v)
	if err != nil {
		return "", err
	}
	return FlattenItem(el)
}

// writeTemplate extracts the meaningful value of a template or link.
//
// The usual shape is a mapping whose first anonymous field holds the
// value, either a scalar or a sequence mixing scalars and labelled
// mappings. The legacy shape is a sequence read positionally.
func writeTemplate(b *strings.Builder, t dom.InlineTemplate) error {
	switch c := t.Content.(type) {
	case nil:
		return nil
	case map[string]any:
		v, ok := c[dom.AnonymousFirst]
		if !ok {
			return nil
		}
		switch vv := v.(type) {
		case nil:
			return nil
		case string:
			b.WriteString(vv)
			b.WriteString(" ")
			return nil
		case []any:
			for _, part := range vv {
				switch p := part.(type) {
				case map[string]any:
					if label, ok := p[dom.FieldLabel].(string); ok {
						b.WriteString(label)
					}
				case string:
					b.WriteString(p)
					b.WriteString(" ")
				case nil:
				default:
					return &dom.ShapeError{Node: t.Kind, Field: dom.AnonymousFirst, Reason: "unexpected " + dom.KindOf(part) + " value"}
				}
			}
			return nil
		default:
			return &dom.ShapeError{Node: t.Kind, Field: dom.AnonymousFirst, Reason: "expected string or sequence, got " + dom.KindOf(v)}
		}
	case []any:
		for _, v := range c {
			s, ok, err := firstValue(v)
			if err != nil {
				return &dom.ShapeError{Node: t.Kind, Field: dom.FieldContent, Reason: err.Error()}
			}
			if ok {
				b.WriteString(s)
				b.WriteString(" ")
			}
		}
		return nil
	default:
		return &dom.ShapeError{Node: t.Kind, Field: dom.FieldContent, Reason: "expected mapping or sequence, got " + dom.KindOf(c)}
	}
}

// firstValue returns the leading scalar of a positional template value.
func firstValue(v any) (string, bool, error) {
	switch vv := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return vv, true, nil
	case []any:
		if len(vv) == 0 {
			return "", false, nil
		}
		return firstValue(vv[0])
	case map[string]any:
		if label, ok := vv[dom.FieldLabel].(string); ok {
			return label, true, nil
		}
		return "", false, nil
	default:
		return "", false, fmt.Errorf("unexpected %s value", dom.KindOf(v))
	}
}

func prefixIndex(err error, i int) error {
	se, ok := err.(*dom.ShapeError)
	if !ok {
		return err
	}
	cp := *se
	cp.Index = append([]int{i}, se.Index...)
	return &cp
}
