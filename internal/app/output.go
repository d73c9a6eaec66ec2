package app

import (
	"bytes"
	"encoding/json"

	"github.com/hyperifyio/wikilists/internal/render"
)

// marshalOutput encodes successful outcomes as one JSON object keyed by
// resource name in input order; each value is the title path mapping.
func marshalOutput(outcomes []Outcome) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		key, err := json.Marshal(o.Resource)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.Result)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		n++
	}
	buf.WriteByte('}')
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// pages converts successful outcomes for the renderers.
func pages(lang string, outcomes []Outcome) []render.Page {
	out := make([]render.Page, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		out = append(out, render.Page{Resource: o.Resource, Lang: lang, Lists: o.Result})
	}
	return out
}
