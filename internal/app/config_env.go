package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overwrites cfg fields whose environment variables are
// set. It runs after the config file is applied and before explicit flags,
// so env beats the file and flags beat env. Malformed numbers and
// durations are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("WIKI_LANG"); v != "" {
		cfg.Lang = v
	}
	if v := splitList(os.Getenv("WIKI_RESOURCES")); len(v) > 0 {
		cfg.Resources = v
	}
	if v := os.Getenv("RESOURCES_FILE"); v != "" {
		cfg.InputPath = v
	}
	if v := os.Getenv("JSONPEDIA_URL"); v != "" {
		cfg.JSONpediaURL = v
	}
	if v := os.Getenv("JSONPEDIA_JAR"); v != "" {
		cfg.JSONpediaJar = v
	}
	if v := os.Getenv("JAVA_BIN"); v != "" {
		cfg.JavaPath = v
	}
	if v := os.Getenv("DOM_DIR"); v != "" {
		cfg.DOMDir = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SERVE_ADDR"); v != "" {
		cfg.ServeAddr = v
	}
	if v := splitList(os.Getenv("CLEAN_EXCLUDE")); len(v) > 0 {
		cfg.ExcludeSections = v
	}

	if n, ok := envInt("RETRY_ATTEMPTS"); ok {
		cfg.RetryAttempts = n
	}
	if n, ok := envInt("MAX_CONCURRENT"); ok {
		cfg.MaxConcurrent = n
	}
	if d, ok := envDuration("RETRY_DELAY"); ok {
		cfg.RetryDelay = d
	}
	if d, ok := envDuration("REQUEST_TIMEOUT"); ok {
		cfg.RequestTimeout = d
	}
	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}

	setBool := func(dst *bool, envKey string) {
		if v, ok := envBool(envKey); ok {
			*dst = v
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.DisableClean, "NO_CLEAN")
}

func envInt(key string) (int, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
