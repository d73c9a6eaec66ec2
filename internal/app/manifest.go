package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// manifestEntry is a compact record of one processed resource.
type manifestEntry struct {
	Index    int    `json:"index"`
	Resource string `json:"resource"`
	Redirect string `json:"redirect,omitempty"`
	Lists    int    `json:"lists"`
	Items    int    `json:"items"`
	SHA256   string `json:"sha256,omitempty"`
	Error    string `json:"error,omitempty"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	RunID         string    `json:"run_id"`
	Version       string    `json:"version"`
	Converter     string    `json:"converter"`
	Lang          string    `json:"lang"`
	ResourceCount int       `json:"resource_count"`
	Failed        int       `json:"failed"`
	Cleaned       bool      `json:"cleaned"`
	HTTPCache     bool      `json:"http_cache"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of b.
func computeSHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// buildManifestEntries records each outcome. The digest covers the JSON
// encoding of the resource's mapping exactly as written to the output.
func buildManifestEntries(outcomes []Outcome) []manifestEntry {
	out := make([]manifestEntry, 0, len(outcomes))
	for i, o := range outcomes {
		e := manifestEntry{Index: i + 1, Resource: o.Resource, Redirect: o.Redirect}
		if o.Err != nil {
			e.Error = o.Err.Error()
			out = append(out, e)
			continue
		}
		e.Lists = o.Result.Len()
		e.Items = o.Result.ItemCount()
		if b, err := json.Marshal(o.Result); err == nil {
			e.SHA256 = computeSHA256Hex(b)
		}
		out = append(out, e)
	}
	return out
}

// marshalManifestJSON encodes a machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta      manifestMeta    `json:"meta"`
		Resources []manifestEntry `json:"resources"`
	}{Meta: meta, Resources: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
