package app

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFile_YAML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "wikilists.yaml")
	content := `lang: it
resources: [Fiumi_d'Italia]
output: out.json
outputMarkdown: out.md
jsonpedia:
  jar: /opt/jsonpedia_wrapper.jar
  java: /usr/bin/java
retry:
  attempts: 3
  delay: 2s
maxConcurrent: 8
clean:
  enable: false
  exclude: [Discografia]
cache:
  dir: /tmp/c
  maxAge: 24h
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	cfg := Config{Lang: DefaultLang, OutputPath: DefaultOutputPath, CacheDir: DefaultCacheDir, RetryAttempts: DefaultRetryAttempts, RetryDelay: DefaultRetryDelay, MaxConcurrent: DefaultMaxConcurrent}
	ApplyFileConfig(&cfg, fc)

	if cfg.Lang != "it" || cfg.OutputPath != "out.json" || cfg.OutputMarkdownPath != "out.md" {
		t.Fatalf("basic fields not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Resources, []string{"Fiumi_d'Italia"}) {
		t.Fatalf("resources: %v", cfg.Resources)
	}
	if cfg.JSONpediaJar != "/opt/jsonpedia_wrapper.jar" || cfg.JavaPath != "/usr/bin/java" {
		t.Fatalf("jsonpedia: %+v", cfg)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryDelay != 2*time.Second || cfg.MaxConcurrent != 8 {
		t.Fatalf("limits: %+v", cfg)
	}
	if !cfg.DisableClean || !reflect.DeepEqual(cfg.ExcludeSections, []string{"Discografia"}) {
		t.Fatalf("clean: %+v", cfg)
	}
	if cfg.CacheDir != "/tmp/c" || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("cache: %+v", cfg)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(p, []byte(`{"lang":"fr","jsonpedia":{"url":"http://localhost:1"},"serve":":8080"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	var cfg Config
	ApplyFileConfig(&cfg, fc)
	if cfg.Lang != "fr" || cfg.JSONpediaURL != "http://localhost:1" || cfg.ServeAddr != ":8080" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(p, []byte(`{"lang":`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfigFile(p); err == nil || !strings.Contains(err.Error(), "parse json") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

// Explicit flag values are not replaced by the file.
func TestApplyFileConfig_PreservesExplicitFlags(t *testing.T) {
	var fc FileConfig
	fc.Lang = "it"
	fc.Output = "file.json"
	fc.Resources = []string{"X"}
	cfg := Config{Lang: "de", OutputPath: "flag.json", Resources: []string{"Y"}}
	ApplyFileConfig(&cfg, fc)
	if cfg.Lang != "de" || cfg.OutputPath != "flag.json" || !reflect.DeepEqual(cfg.Resources, []string{"Y"}) {
		t.Fatalf("explicit flags overwritten: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	ok := Config{Lang: "en", OutputPath: "x.json", Resources: []string{"A"}}
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	serve := Config{Lang: "en", ServeAddr: ":8080"}
	if err := ValidateConfig(serve); err != nil {
		t.Fatalf("serve mode should not need resources: %v", err)
	}
	if err := ValidateConfig(Config{Lang: "en", OutputPath: "x.json"}); !errors.Is(err, ErrNoResources) {
		t.Fatalf("expected ErrNoResources, got %v", err)
	}
	bad := []Config{
		{OutputPath: "x.json", Resources: []string{"A"}},
		{Lang: "../en", OutputPath: "x.json", Resources: []string{"A"}},
		{Lang: "en", Resources: []string{"A"}},
		{Lang: "en", OutputPath: "x.json", Resources: []string{"A"}, DOMDir: "d", JSONpediaJar: "j"},
		{Lang: "en", OutputPath: "x.json", Resources: []string{"A"}, MaxConcurrent: -1},
	}
	for i, c := range bad {
		if err := ValidateConfig(c); err == nil {
			t.Fatalf("case %d: expected error for %+v", i, c)
		}
	}
}
