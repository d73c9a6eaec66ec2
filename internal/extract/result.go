package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item is one entry of an extracted list: either a flattened item string
// or a nested group produced by a deeper list element.
type Item struct {
	Text   string
	Nested []string
}

// IsNested reports whether the item is a nested group.
func (it Item) IsNested() bool { return it.Nested != nil }

// MarshalJSON encodes a plain item as a string and a nested group as an
// array of strings.
func (it Item) MarshalJSON() ([]byte, error) {
	if it.Nested != nil {
		return json.Marshal(it.Nested)
	}
	return json.Marshal(it.Text)
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (it *Item) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var nested []string
		if err := json.Unmarshal(b, &nested); err != nil {
			return fmt.Errorf("nested item: %w", err)
		}
		if nested == nil {
			nested = []string{}
		}
		*it = Item{Nested: nested}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("item: %w", err)
	}
	*it = Item{Text: s}
	return nil
}

// Result maps title paths to the lists found under them. Titles keeps
// the order in which paths were first recorded.
type Result struct {
	Titles []string
	Lists  map[string][]Item
}

// NewResult returns an empty result ready for Set.
func NewResult() Result {
	return Result{Lists: map[string][]Item{}}
}

// Len returns the number of title paths.
func (r Result) Len() int { return len(r.Titles) }

// Get returns the items recorded under path.
func (r Result) Get(path string) ([]Item, bool) {
	items, ok := r.Lists[path]
	return items, ok
}

// Set records items under path. A path seen again replaces the earlier
// items but keeps its original position.
func (r *Result) Set(path string, items []Item) {
	if r.Lists == nil {
		r.Lists = map[string][]Item{}
	}
	if _, ok := r.Lists[path]; !ok {
		r.Titles = append(r.Titles, path)
	}
	r.Lists[path] = items
}

// Delete removes path and its items.
func (r *Result) Delete(path string) {
	if _, ok := r.Lists[path]; !ok {
		return
	}
	delete(r.Lists, path)
	for i, t := range r.Titles {
		if t == path {
			r.Titles = append(r.Titles[:i:i], r.Titles[i+1:]...)
			break
		}
	}
}

// ItemCount returns the number of items across all paths, counting each
// string inside nested groups.
func (r Result) ItemCount() int {
	n := 0
	for _, items := range r.Lists {
		for _, it := range items {
			if it.IsNested() {
				n += len(it.Nested)
				continue
			}
			n++
		}
	}
	return n
}

// MarshalJSON writes the mapping as a JSON object in title order.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, title := range r.Titles {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(title)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		items := r.Lists[title]
		if items == nil {
			items = []Item{}
		}
		v, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order.
func (r *Result) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("result: expected object")
	}
	out := NewResult()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("result: expected key")
		}
		var items []Item
		if err := dec.Decode(&items); err != nil {
			return fmt.Errorf("result %q: %w", key, err)
		}
		out.Set(key, items)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
