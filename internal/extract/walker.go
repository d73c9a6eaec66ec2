// Package extract walks the section sequence of a converted article and
// collects every list it contains under the title path of its section.
package extract

import (
	"github.com/hyperifyio/wikilists/internal/dom"
)

// nestThreshold is the list element level above which an element is
// grouped into a nested item. Only one extra layer of grouping is
// produced, whatever the actual depth.
const nestThreshold = 1

// Extractor turns the section nodes of one resource into a Result.
// Implementations must not share traversal state between calls.
type Extractor interface {
	Extract(nodes []any) (Result, error)
}

// SectionWalker is the default Extractor.
type SectionWalker struct{}

func (SectionWalker) Extract(nodes []any) (Result, error) {
	return WalkRaw(nodes)
}

// WalkRaw decodes the top-level nodes returned by the converter and walks
// those typed as sections. Other top-level nodes are ignored.
func WalkRaw(nodes []any) (Result, error) {
	sections := make([]dom.Section, 0, len(nodes))
	for i, n := range nodes {
		if dom.TypeOf(n) != dom.TypeSection {
			continue
		}
		s, err := dom.ParseSection(n)
		if err != nil {
			return Result{}, prefixIndex(err, i)
		}
		sections = append(sections, s)
	}
	return Walk(sections)
}

// Walk processes sections in document order. Each call owns its title
// state, so concurrent walks over different resources are independent.
// On a shape error no partial result is returned.
func Walk(sections []dom.Section) (Result, error) {
	var st titleState
	out := NewResult()
	for _, s := range sections {
		if !s.HasContent() {
			continue
		}
		path := st.next(s.Level, s.Title)
		items, found, err := sectionLists(s)
		if err != nil {
			return Result{}, dom.WithPath(err, path)
		}
		if found {
			out.Set(path, items)
		}
	}
	return out, nil
}

// sectionLists flattens every list among the section's content values.
// Lists of the same section are concatenated.
func sectionLists(s dom.Section) ([]Item, bool, error) {
	var (
		items []Item
		found bool
	)
	for _, v := range s.Content {
		if dom.TypeOf(v) != dom.TypeList {
			continue
		}
		l, err := dom.ParseList(v)
		if err != nil {
			return nil, false, err
		}
		found = true
		if items == nil {
			items = make([]Item, 0, len(l.Elements))
		}
		for i, el := range l.Elements {
			text, err := FlattenItem(el)
			if err != nil {
				return nil, false, prefixIndex(err, i)
			}
			if el.HasLevel && el.Level > nestThreshold {
				items = append(items, Item{Nested: []string{text}})
				continue
			}
			items = append(items, Item{Text: text})
		}
	}
	return items, found, nil
}
