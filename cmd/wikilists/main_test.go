package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hyperifyio/wikilists/internal/app"
)

func TestParseConfig_FlagsAndPositional(t *testing.T) {
	t.Setenv("WIKI_LANG", "")
	t.Setenv("WIKI_RESOURCES", "")
	cfg, err := parseConfig([]string{"-lang", "it", "-resources", "A, B", "-no-clean", "-output", "x.json", "C"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Lang != "it" || cfg.OutputPath != "x.json" || !cfg.DisableClean {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Resources, []string{"A", "B", "C"}) {
		t.Fatalf("resources: %v", cfg.Resources)
	}
}

// Env beats the config file; explicit flags beat both.
func TestParseConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(p, []byte("lang: fr\noutput: file.json\nmaxConcurrent: 9\nresources: [X]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WIKI_LANG", "de")
	t.Setenv("WIKI_RESOURCES", "")
	cfg, err := parseConfig([]string{"-config", p, "-max.concurrent", "2"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Lang != "de" {
		t.Fatalf("env should beat file: lang=%q", cfg.Lang)
	}
	if cfg.OutputPath != "file.json" {
		t.Fatalf("file should fill defaults: output=%q", cfg.OutputPath)
	}
	if cfg.MaxConcurrent != 2 {
		t.Fatalf("flag should beat file: max.concurrent=%d", cfg.MaxConcurrent)
	}
	if !reflect.DeepEqual(cfg.Resources, []string{"X"}) {
		t.Fatalf("resources from file: %v", cfg.Resources)
	}
}

func TestParseConfig_NumericSettingsFromEnv(t *testing.T) {
	t.Setenv("RETRY_ATTEMPTS", "9")
	t.Setenv("RETRY_DELAY", "250ms")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("MAX_CONCURRENT", "3")
	cfg, err := parseConfig([]string{"-dom.dir", "x", "A"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.RetryAttempts != 9 || cfg.RetryDelay != 250*time.Millisecond || cfg.RequestTimeout != 5*time.Second || cfg.MaxConcurrent != 3 {
		t.Fatalf("env not applied: attempts=%d delay=%v timeout=%v concurrent=%d", cfg.RetryAttempts, cfg.RetryDelay, cfg.RequestTimeout, cfg.MaxConcurrent)
	}

	// explicit flags still win over env
	cfg, err = parseConfig([]string{"-retry.attempts", "2", "-timeout", "1s", "A"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.RetryAttempts != 2 || cfg.RequestTimeout != time.Second || cfg.MaxConcurrent != 3 {
		t.Fatalf("flags should beat env: %+v", cfg)
	}
}

func TestParseConfig_EnvBeatsFileForNumbers(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte("retry:\n  attempts: 8\ntimeout: 30s\nmaxConcurrent: 6\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MAX_CONCURRENT", "3")
	t.Setenv("RETRY_ATTEMPTS", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	cfg, err := parseConfig([]string{"-config", p, "A"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.MaxConcurrent != 3 {
		t.Fatalf("env should beat file: max.concurrent=%d", cfg.MaxConcurrent)
	}
	if cfg.RetryAttempts != 8 || cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("file should fill the rest: attempts=%d timeout=%v", cfg.RetryAttempts, cfg.RequestTimeout)
	}
}

func TestParseConfig_NoCleanFlagBeatsFile(t *testing.T) {
	t.Setenv("NO_CLEAN", "")
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte("clean:\n  enable: true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := parseConfig([]string{"-config", p, "-no-clean", "A"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if !cfg.DisableClean {
		t.Fatalf("-no-clean should survive clean.enable=true in the file")
	}
}

func TestParseConfig_Errors(t *testing.T) {
	t.Setenv("WIKI_RESOURCES", "")
	t.Setenv("RESOURCES_FILE", "")
	t.Setenv("SERVE_ADDR", "")
	if _, err := parseConfig(nil, io.Discard); !errors.Is(err, app.ErrNoResources) {
		t.Fatalf("expected ErrNoResources, got %v", err)
	}
	if _, err := parseConfig([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if _, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "A"}, io.Discard); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestRun_BatchFromDOMDir(t *testing.T) {
	dir := t.TempDir()
	domDir := filepath.Join(dir, "dom", "en")
	if err := os.MkdirAll(domDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := `{"success":"true","result":[{"@type":"section","level":0,"title":"Albums","content":{"@an0":{"@type":"list","content":[{"@type":"list_element","level":1,"content":["Abbey Road"]}]}}}]}`
	if err := os.WriteFile(filepath.Join(domDir, "Beatles.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := filepath.Join(dir, "lists.json")
	cfg := app.Config{
		Lang:       "en",
		Resources:  []string{"Beatles"},
		OutputPath: out,
		DOMDir:     filepath.Join(dir, "dom"),
		CacheDir:   filepath.Join(dir, "cache"),
	}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || len(b) == 0 {
		t.Fatalf("expected output file, err=%v", err)
	}

	cfg.Resources = []string{"Missing"}
	err = run(context.Background(), cfg)
	if got := exitCode(err); got != exitResourceErr {
		t.Fatalf("exit code: got %d want %d (%v)", got, exitResourceErr, err)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != exitOK {
		t.Fatalf("nil error should exit 0")
	}
	if exitCode(app.ErrNoResources) != exitConfig {
		t.Fatalf("no resources should exit 1")
	}
}
