package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperifyio/wikilists/internal/extract"
)

// writeDOM stores a converter response under the layout read by the
// offline converter.
func writeDOM(t *testing.T, root, lang, name string, sections ...any) {
	t.Helper()
	dir := filepath.Join(root, lang)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	b, err := json.Marshal(map[string]any{"success": "true", "result": sections})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRun_WritesOutputsAndManifest(t *testing.T) {
	tmp := t.TempDir()
	domDir := filepath.Join(tmp, "dom")
	writeDOM(t, domDir, "en", "The_Beatles_discography",
		listSection(0, "Albums", "Please Please Me", "With the Beatles"),
		listSection(1, "Live", "Live at the BBC"),
		listSection(0, "References", "cite"),
	)
	writeDOM(t, domDir, "en", "Abbey_Road", listSection(0, "Tracks", "Come Together"))

	input := filepath.Join(tmp, "resources.txt")
	if err := os.WriteFile(input, []byte("# batch\nAbbey Road\n\nThe_Beatles_discography\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := Config{
		Lang:               "en",
		Resources:          []string{"The Beatles discography"},
		InputPath:          input,
		OutputPath:         filepath.Join(tmp, "lists.json"),
		OutputMarkdownPath: filepath.Join(tmp, "lists.md"),
		OutputPDFPath:      filepath.Join(tmp, "lists.pdf"),
		DOMDir:             domDir,
		MaxConcurrent:      2,
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		t.Fatalf("output not an object: %v", err)
	}
	var order []string
	got := map[string]extract.Result{}
	for dec.More() {
		tok, _ := dec.Token()
		key := tok.(string)
		var r extract.Result
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("decode %s: %v", key, err)
		}
		order = append(order, key)
		got[key] = r
	}
	if !reflect.DeepEqual(order, []string{"The_Beatles_discography", "Abbey_Road"}) {
		t.Fatalf("resource order: %v", order)
	}
	if titles := got["The_Beatles_discography"].Titles; !reflect.DeepEqual(titles, []string{"Albums", "Albums - Live"}) {
		t.Fatalf("titles: %v", titles)
	}

	md, err := os.ReadFile(cfg.OutputMarkdownPath)
	if err != nil || !strings.Contains(string(md), "## Albums - Live") {
		t.Fatalf("markdown: %v\n%s", err, md)
	}
	if pdf, err := os.ReadFile(cfg.OutputPDFPath); err != nil || !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("pdf not written: %v", err)
	}

	man, err := os.ReadFile(deriveManifestSidecarPath(cfg.OutputPath))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	var payload struct {
		Meta      manifestMeta    `json:"meta"`
		Resources []manifestEntry `json:"resources"`
	}
	if err := json.Unmarshal(man, &payload); err != nil {
		t.Fatalf("manifest json: %v", err)
	}
	if payload.Meta.RunID == "" || payload.Meta.Converter != "dir" || payload.Meta.ResourceCount != 2 || !payload.Meta.Cleaned {
		t.Fatalf("manifest meta: %+v", payload.Meta)
	}
	if len(payload.Resources) != 2 || payload.Resources[0].Lists != 2 {
		t.Fatalf("manifest entries: %+v", payload.Resources)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	tmp := t.TempDir()
	domDir := filepath.Join(tmp, "dom")
	writeDOM(t, domDir, "en", "Good", listSection(0, "Items", "one"))
	writeDOM(t, domDir, "en", "Broken", listSection(0, "Items", map[string]any{"@type": "mystery"}))

	cfg := Config{
		Lang:       "en",
		Resources:  []string{"Good", "Broken", "Unknown"},
		OutputPath: filepath.Join(tmp, "lists.json"),
		DOMDir:     domDir,
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = a.Run(context.Background())
	if !errors.Is(err, ErrResourcesFailed) {
		t.Fatalf("expected ErrResourcesFailed, got %v", err)
	}
	data, rerr := os.ReadFile(cfg.OutputPath)
	if rerr != nil {
		t.Fatalf("read output: %v", rerr)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("output json: %v", err)
	}
	if _, ok := out["Good"]; !ok || len(out) != 1 {
		t.Fatalf("only the good resource should be written: %s", data)
	}
}

func TestRun_NoResources(t *testing.T) {
	cfg := Config{Lang: "en", OutputPath: filepath.Join(t.TempDir(), "x.json"), DOMDir: t.TempDir()}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Run(context.Background()); !errors.Is(err, ErrNoResources) {
		t.Fatalf("expected ErrNoResources, got %v", err)
	}
}

func TestResolveResources_Dedupes(t *testing.T) {
	got, err := resolveResources([]string{"A b", " A_b ", "C"}, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"A_b", "C"}) {
		t.Fatalf("got %v", got)
	}
	if _, err := resolveResources(nil, filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing input file")
	}
}

func TestNew_SelectsConverter(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{DOMDir: "d"}, "dir"},
		{Config{JSONpediaJar: "w.jar"}, "wrapper"},
		{Config{}, "service"},
	}
	for _, c := range cases {
		a, err := New(context.Background(), c.cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got := a.conv.Name(); got != c.want {
			t.Fatalf("converter: got %q want %q", got, c.want)
		}
		if a.Config().Lang != DefaultLang {
			t.Fatalf("lang default not applied")
		}
	}
}
