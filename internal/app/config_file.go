package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
	Lang      string   `yaml:"lang" json:"lang"`
	Resources []string `yaml:"resources" json:"resources"`
	Input     string   `yaml:"input" json:"input"`

	Output         string `yaml:"output" json:"output"`
	OutputMarkdown string `yaml:"outputMarkdown" json:"outputMarkdown"`
	OutputPDF      string `yaml:"outputPDF" json:"outputPDF"`

	JSONpedia struct {
		URL  string `yaml:"url" json:"url"`
		Jar  string `yaml:"jar" json:"jar"`
		Java string `yaml:"java" json:"java"`
		Dir  string `yaml:"dir" json:"dir"`
	} `yaml:"jsonpedia" json:"jsonpedia"`

	Retry struct {
		Attempts int           `yaml:"attempts" json:"attempts"`
		Delay    time.Duration `yaml:"delay" json:"delay"`
	} `yaml:"retry" json:"retry"`

	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	MaxConcurrent int           `yaml:"maxConcurrent" json:"maxConcurrent"`

	Clean *struct {
		Enable  *bool    `yaml:"enable" json:"enable"`
		Exclude []string `yaml:"exclude" json:"exclude"`
	} `yaml:"clean" json:"clean"`

	Serve   string `yaml:"serve" json:"serve"`
	Verbose bool   `yaml:"verbose" json:"verbose"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their flag default. Flags should already have been
// parsed; explicit flags are preserved.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.Lang == "" || cfg.Lang == DefaultLang) && fc.Lang != "" {
		cfg.Lang = fc.Lang
	}
	if len(cfg.Resources) == 0 && len(fc.Resources) > 0 {
		cfg.Resources = append([]string{}, fc.Resources...)
	}
	if cfg.InputPath == "" && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutputPath) && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.OutputMarkdownPath == "" && fc.OutputMarkdown != "" {
		cfg.OutputMarkdownPath = fc.OutputMarkdown
	}
	if cfg.OutputPDFPath == "" && fc.OutputPDF != "" {
		cfg.OutputPDFPath = fc.OutputPDF
	}

	if cfg.JSONpediaURL == "" && fc.JSONpedia.URL != "" {
		cfg.JSONpediaURL = fc.JSONpedia.URL
	}
	if cfg.JSONpediaJar == "" && fc.JSONpedia.Jar != "" {
		cfg.JSONpediaJar = fc.JSONpedia.Jar
	}
	if cfg.JavaPath == "" && fc.JSONpedia.Java != "" {
		cfg.JavaPath = fc.JSONpedia.Java
	}
	if cfg.DOMDir == "" && fc.JSONpedia.Dir != "" {
		cfg.DOMDir = fc.JSONpedia.Dir
	}

	if (cfg.RetryAttempts == 0 || cfg.RetryAttempts == DefaultRetryAttempts) && fc.Retry.Attempts > 0 {
		cfg.RetryAttempts = fc.Retry.Attempts
	}
	if (cfg.RetryDelay == 0 || cfg.RetryDelay == DefaultRetryDelay) && fc.Retry.Delay > 0 {
		cfg.RetryDelay = fc.Retry.Delay
	}
	if (cfg.RequestTimeout == 0 || cfg.RequestTimeout == DefaultTimeout) && fc.Timeout > 0 {
		cfg.RequestTimeout = fc.Timeout
	}
	if (cfg.MaxConcurrent == 0 || cfg.MaxConcurrent == DefaultMaxConcurrent) && fc.MaxConcurrent > 0 {
		cfg.MaxConcurrent = fc.MaxConcurrent
	}

	// cleanup is on by default; the file can only switch it off
	if fc.Clean != nil {
		if fc.Clean.Enable != nil && !*fc.Clean.Enable {
			cfg.DisableClean = true
		}
		if len(cfg.ExcludeSections) == 0 && len(fc.Clean.Exclude) > 0 {
			cfg.ExcludeSections = append([]string{}, fc.Clean.Exclude...)
		}
	}

	if cfg.ServeAddr == "" && fc.Serve != "" {
		cfg.ServeAddr = fc.Serve
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// In serve mode no resources or output path are needed.
func ValidateConfig(cfg Config) error {
	lang := strings.TrimSpace(cfg.Lang)
	if lang == "" {
		return errors.New("config: lang is required (or set WIKI_LANG)")
	}
	if strings.ContainsAny(lang, `/\.: `) {
		return fmt.Errorf("config: invalid lang %q", cfg.Lang)
	}
	if strings.TrimSpace(cfg.ServeAddr) == "" {
		if strings.TrimSpace(cfg.OutputPath) == "" {
			return errors.New("config: output path is required")
		}
		if len(cfg.Resources) == 0 && strings.TrimSpace(cfg.InputPath) == "" {
			return fmt.Errorf("config: %w (pass page names, -resources or -input)", ErrNoResources)
		}
	}
	if cfg.DOMDir != "" && cfg.JSONpediaJar != "" {
		return errors.New("config: -dom.dir and -jsonpedia.jar are mutually exclusive")
	}
	if cfg.RetryAttempts < 0 || cfg.MaxConcurrent < 0 || cfg.RetryDelay < 0 || cfg.RequestTimeout < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
