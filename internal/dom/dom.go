// Package dom decodes the JSON document-object-model produced by the
// wikitext conversion service into typed node variants.
//
// The converter emits heterogeneous trees: the same field may hold a
// mapping, a sequence or a bare scalar depending on the markup it came
// from. Everything here turns that into a closed set of Go types so that
// callers switch over variants instead of probing map keys, and so that
// an unrecognized shape surfaces as a ShapeError instead of being skipped.
package dom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field and type names used by the converter.
const (
	FieldType       = "@type"
	FieldLevel      = "level"
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldLabel      = "label"
	FieldAttributes = "attributes"

	// AnonymousFirst is the key of the first positional value in a
	// template or link content mapping.
	AnonymousFirst = "@an0"

	TypeSection     = "section"
	TypeList        = "list"
	TypeListElement = "list_element"
	TypeTemplate    = "template"
	TypeLink        = "link"
	TypeReference   = "reference"
)

// Section is one entry of the section sequence.
type Section struct {
	Level int
	Title string
	// Content holds the values of the section content mapping in key
	// order. Keys are annotation indices and carry no meaning.
	Content []any
}

// HasContent reports whether the section carries anything to extract.
func (s Section) HasContent() bool { return len(s.Content) > 0 }

// List is a node with @type "list".
type List struct {
	Elements []ListElement
}

// ListElement is one entry of a list. Level is zero when the converter
// did not report a nesting depth.
type ListElement struct {
	Level    int
	HasLevel bool
	Content  []Inline
}

// Inline is a content node inside a list element. The set of
// implementations is closed; see the Inline* types below.
type Inline interface {
	inline()
}

// InlineTemplate is a template or link node. Kind is TypeTemplate or
// TypeLink; Content is the raw content field (mapping or sequence).
type InlineTemplate struct {
	Kind    string
	Content any
}

// InlineReference is a cross reference that must be rendered with the
// reference sentinel.
type InlineReference struct {
	Label string
}

// InlineLabel is any other node that exposes a label.
type InlineLabel struct {
	Label string
}

// InlineText is a raw text fragment.
type InlineText struct {
	Text string
}

// InlineFootnote is a node carrying attributes, i.e. bottom of page
// reference markup. It contributes nothing to the item text.
type InlineFootnote struct{}

func (InlineTemplate) inline()  {}
func (InlineReference) inline() {}
func (InlineLabel) inline()     {}
func (InlineText) inline()      {}
func (InlineFootnote) inline()  {}

// TypeOf returns the @type of a decoded node, or "" when v is not a
// mapping or has no string @type.
func TypeOf(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[FieldType].(string)
	return s
}

// ParseSection decodes a section node. Level and title are mandatory:
// a missing level would silently corrupt every title path computed after
// this section.
func ParseSection(v any) (Section, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Section{}, &ShapeError{Node: TypeSection, Reason: "expected mapping, got " + kindOf(v)}
	}
	var s Section
	title, ok := m[FieldTitle].(string)
	if !ok {
		return Section{}, &ShapeError{Node: TypeSection, Field: FieldTitle, Reason: "missing or not a string"}
	}
	s.Title = title
	lvl, ok, err := intField(m, FieldLevel)
	if err != nil {
		return Section{}, &ShapeError{Node: TypeSection, Field: FieldLevel, Title: title, Reason: err.Error()}
	}
	if !ok {
		return Section{}, &ShapeError{Node: TypeSection, Field: FieldLevel, Title: title, Reason: "missing"}
	}
	s.Level = lvl

	content, err := sectionContent(m[FieldContent])
	if err != nil {
		return Section{}, &ShapeError{Node: TypeSection, Field: FieldContent, Title: title, Reason: err.Error()}
	}
	s.Content = content
	return s, nil
}

func sectionContent(raw any) ([]any, error) {
	switch c := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if c == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("expected mapping, got non-empty string")
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sortAnnotationKeys(keys)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, c[k])
		}
		return out, nil
	case []any:
		return c, nil
	default:
		return nil, fmt.Errorf("expected mapping, got %s", kindOf(raw))
	}
}

// ParseList decodes a node with @type "list".
func ParseList(v any) (List, error) {
	m, ok := v.(map[string]any)
	if !ok || TypeOf(v) != TypeList {
		return List{}, &ShapeError{Node: TypeList, Reason: "not a list node"}
	}
	var l List
	switch c := m[FieldContent].(type) {
	case nil:
		return l, nil
	case []any:
		l.Elements = make([]ListElement, 0, len(c))
		for i, raw := range c {
			el, err := ParseListElement(raw)
			if err != nil {
				return List{}, withIndex(err, i)
			}
			l.Elements = append(l.Elements, el)
		}
		return l, nil
	default:
		return List{}, &ShapeError{Node: TypeList, Field: FieldContent, Reason: "expected sequence, got " + kindOf(c)}
	}
}

// ParseListElement decodes one list element and its inline content.
func ParseListElement(v any) (ListElement, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return ListElement{}, &ShapeError{Node: TypeListElement, Reason: "expected mapping, got " + kindOf(v)}
	}
	var el ListElement
	lvl, has, err := intField(m, FieldLevel)
	if err != nil {
		return ListElement{}, &ShapeError{Node: TypeListElement, Field: FieldLevel, Reason: err.Error()}
	}
	el.Level, el.HasLevel = lvl, has

	switch c := m[FieldContent].(type) {
	case nil:
	case string:
		// A bare string body behaves like a single text fragment.
		if c != "" {
			el.Content = []Inline{InlineText{Text: c}}
		}
	case []any:
		el.Content = make([]Inline, 0, len(c))
		for i, raw := range c {
			in, err := ParseInline(raw)
			if err != nil {
				return ListElement{}, withIndex(err, i)
			}
			el.Content = append(el.Content, in)
		}
	default:
		return ListElement{}, &ShapeError{Node: TypeListElement, Field: FieldContent, Reason: "expected sequence, got " + kindOf(c)}
	}
	return el, nil
}

// ParseInline classifies a single content node. Precedence follows the
// converter's conventions: recognized @type first, then a label, then
// the attributes marker, then plain text.
func ParseInline(v any) (Inline, error) {
	switch n := v.(type) {
	case string:
		return InlineText{Text: n}, nil
	case map[string]any:
		t := TypeOf(n)
		switch t {
		case TypeTemplate, TypeLink:
			return InlineTemplate{Kind: t, Content: n[FieldContent]}, nil
		case TypeReference:
			label, ok := n[FieldLabel].(string)
			if !ok {
				return nil, &ShapeError{Node: TypeReference, Field: FieldLabel, Reason: "missing or not a string"}
			}
			return InlineReference{Label: label}, nil
		}
		if raw, ok := n[FieldLabel]; ok {
			label, ok := raw.(string)
			if !ok {
				return nil, &ShapeError{Node: nodeName(t), Field: FieldLabel, Reason: "expected string, got " + kindOf(raw)}
			}
			return InlineLabel{Label: label}, nil
		}
		if _, ok := n[FieldAttributes]; ok {
			return InlineFootnote{}, nil
		}
		return nil, &ShapeError{Node: nodeName(t), Reason: "no label, attributes or text"}
	default:
		return nil, &ShapeError{Node: "inline", Reason: "unexpected " + kindOf(v)}
	}
}

func nodeName(t string) string {
	if t == "" {
		return "untyped"
	}
	return t
}

// intField reads an integral JSON number. ok is false when the field is
// absent.
func intField(m map[string]any, key string) (int, bool, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch n := raw.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, true, fmt.Errorf("non-integral number %v", n)
		}
		return int(n), true, nil
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, true, fmt.Errorf("not a number: %q", n)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("expected number, got %s", kindOf(raw))
	}
}

// sortAnnotationKeys orders keys such as @an0, @an1, ..., @an10 by their
// numeric suffix, falling back to lexical order.
func sortAnnotationKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		pi, ni, oki := splitNumericSuffix(keys[i])
		pj, nj, okj := splitNumericSuffix(keys[j])
		if oki && okj && pi == pj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
}

func splitNumericSuffix(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, int, int64:
		return "number"
	case []any:
		return "sequence"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// KindOf names the JSON kind of a decoded value, for error messages.
func KindOf(v any) string { return kindOf(v) }
