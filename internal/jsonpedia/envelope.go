package jsonpedia

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// envelopeSchema is the outer shape of every converter response. Node
// shapes inside result are checked by the dom package.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "oneOf": [
    {"type": "array"},
    {
      "type": "object",
      "properties": {
        "success": {"type": ["string", "boolean"]},
        "message": {"type": "string"},
        "result": {"type": "array"},
        "wikitext-dom": {"type": "array"}
      }
    }
  ]
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func envelope() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("envelope.json", strings.NewReader(envelopeSchema)); err != nil {
			schemaErr = fmt.Errorf("load envelope schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("envelope.json")
	})
	return compiledSchema, schemaErr
}

// ValidateEnvelope decodes a converter response and checks its outer
// shape. It returns the decoded document.
func ValidateEnvelope(b []byte) (any, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("jsonpedia: empty response")
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("jsonpedia: decode response: %w", err)
	}
	schema, err := envelope()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("jsonpedia: response does not match envelope: %w", err)
	}
	return doc, nil
}

// failure returns the classified error of a response reporting
// success "false", or nil.
func failure(doc any) error {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	failed := false
	switch s := m["success"].(type) {
	case string:
		failed = s == "false"
	case bool:
		failed = !s
	}
	if !failed {
		return nil
	}
	msg, _ := m["message"].(string)
	return classify(msg)
}

// SectionsFrom extracts the section sequence from a converter response.
// A bare array is accepted as the sequence itself.
func SectionsFrom(b []byte) ([]any, error) {
	doc, err := ValidateEnvelope(b)
	if err != nil {
		return nil, err
	}
	if err := failure(doc); err != nil {
		return nil, err
	}
	switch d := doc.(type) {
	case []any:
		return d, nil
	case map[string]any:
		res, ok := d["result"]
		if !ok {
			return nil, fmt.Errorf("jsonpedia: response has no result")
		}
		list, _ := res.([]any)
		return list, nil
	}
	return nil, fmt.Errorf("jsonpedia: unexpected response")
}

// Cacheable reports whether a converter response may be stored: failure
// envelopes such as overload reports are not.
func Cacheable(b []byte) bool {
	success := gjson.GetBytes(b, "success")
	switch success.Type {
	case gjson.False:
		return false
	case gjson.String:
		return success.Str != "false"
	}
	return true
}

const redirectLabelPath = "wikitext-dom.0.structure.1.label"

// RedirectFrom reads the redirect target from a structure response:
// the label of the second structure entry of the first DOM node.
func RedirectFrom(b []byte) (string, error) {
	doc, err := ValidateEnvelope(b)
	if err != nil {
		return "", err
	}
	if err := failure(doc); err != nil {
		return "", err
	}
	label := gjson.GetBytes(b, redirectLabelPath)
	if label.Type != gjson.String || strings.TrimSpace(label.Str) == "" {
		return "", ErrNoRedirect
	}
	return RedirectName(label.Str), nil
}
