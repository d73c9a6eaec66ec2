package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/wikilists/internal/app"
	"github.com/hyperifyio/wikilists/internal/server"
)

// Exit codes.
const (
	exitOK          = 0
	exitConfig      = 1
	exitResourceErr = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// dotenv files feed the env-derived flag defaults below
	if err := app.LoadEnvFiles(".env", ".env.local"); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(exitOK)
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(exitConfig)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = run(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	code := exitCode(err)
	stop()
	os.Exit(code)
}

// parseConfig layers explicit flags over env over the optional config
// file over defaults. A first pass finds the config file; the file and env
// are then folded into the flag defaults, and a second pass applies only
// the flags given on the command line.
func parseConfig(args []string, stderr io.Writer) (app.Config, error) {
	scratch := app.DefaultConfig()
	var first cliFlags
	fs := newFlagSet(&scratch, &first, stderr)
	if err := fs.Parse(args); err != nil {
		return scratch, err
	}

	cfg := app.DefaultConfig()
	if strings.TrimSpace(first.configPath) != "" {
		fc, err := app.LoadConfigFile(first.configPath)
		if err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	var cli cliFlags
	fs = newFlagSet(&cfg, &cli, io.Discard)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if names := append(splitList(cli.resources), fs.Args()...); len(names) > 0 {
		cfg.Resources = names
	}
	if ex := splitList(cli.exclude); len(ex) > 0 {
		cfg.ExcludeSections = ex
	}

	if err := app.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// cliFlags holds flag values that do not map onto a single Config field.
type cliFlags struct {
	resources  string
	exclude    string
	configPath string
}

// newFlagSet binds every flag to cfg, using the current cfg values as
// defaults.
func newFlagSet(cfg *app.Config, cli *cliFlags, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("wikilists", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: wikilists [flags] [resource ...]\n\nExtracts the lists of Wikipedia pages into a JSON mapping of section title paths to items.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.Lang, "lang", cfg.Lang, "Wikipedia language code, e.g. 'en' or 'it' (env WIKI_LANG)")
	fs.StringVar(&cli.resources, "resources", "", "Comma-separated resource names (in addition to positional args; env WIKI_RESOURCES)")
	fs.StringVar(&cfg.InputPath, "input", cfg.InputPath, "File with one resource name per line (env RESOURCES_FILE)")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Path to write the JSON output")
	fs.StringVar(&cfg.OutputMarkdownPath, "output.md", cfg.OutputMarkdownPath, "Optional path to write a Markdown rendering")
	fs.StringVar(&cfg.OutputPDFPath, "output.pdf", cfg.OutputPDFPath, "Optional path to write a PDF rendering")
	fs.StringVar(&cfg.JSONpediaURL, "jsonpedia.url", cfg.JSONpediaURL, "JSONpedia annotate service base URL (default http://jsonpedia.org; env JSONPEDIA_URL)")
	fs.StringVar(&cfg.JSONpediaJar, "jsonpedia.jar", cfg.JSONpediaJar, "Path to the JSONpedia wrapper jar; runs the converter locally (env JSONPEDIA_JAR)")
	fs.StringVar(&cfg.JavaPath, "java", cfg.JavaPath, "Java executable used with -jsonpedia.jar (env JAVA_BIN)")
	fs.StringVar(&cfg.DOMDir, "dom.dir", cfg.DOMDir, "Directory of stored converter responses, <dir>/<lang>/<resource>.json (env DOM_DIR)")
	fs.IntVar(&cfg.RetryAttempts, "retry.attempts", cfg.RetryAttempts, "Attempts while the converter reports overload (env RETRY_ATTEMPTS)")
	fs.DurationVar(&cfg.RetryDelay, "retry.delay", cfg.RetryDelay, "Delay between converter retries (env RETRY_DELAY)")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Per-request timeout for the converter service (env REQUEST_TIMEOUT)")
	fs.IntVar(&cfg.MaxConcurrent, "max.concurrent", cfg.MaxConcurrent, "Resources processed in parallel (env MAX_CONCURRENT)")
	fs.BoolVar(&cfg.DisableClean, "no-clean", cfg.DisableClean, "Write raw lists without boilerplate filtering and text cleanup (env NO_CLEAN)")
	fs.StringVar(&cli.exclude, "clean.exclude", "", "Comma-separated extra section titles to drop (env CLEAN_EXCLUDE)")
	fs.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "Serve the HTTP API on this address instead of a batch run, e.g. ':8080' (env SERVE_ADDR)")
	fs.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Cache directory path; empty disables caching (env CACHE_DIR)")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", cfg.CacheMaxAge, "Max age for cache entries before purge (e.g. 24h); 0 disables (env CACHE_MAX_AGE)")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", cfg.CacheClear, "Clear cache directory before run (env CACHE_CLEAR)")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", cfg.CacheStrictPerms, "Restrict cache permissions, 0700 dirs and 0600 files (env CACHE_STRICT_PERMS)")
	fs.StringVar(&cli.configPath, "config", os.Getenv("WIKILISTS_CONFIG"), "Optional YAML or JSON config file (env WIKILISTS_CONFIG)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging (env VERBOSE)")
	return fs
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if cfg.ServeAddr != "" {
		return server.ListenAndServe(ctx, cfg.ServeAddr, server.New(a.Extractor(), app.BuildVersion))
	}
	return a.Run(ctx)
}

// exitCode maps run errors to the process exit status: resource failures
// exit 2, everything else that stops the run exits 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrResourcesFailed):
		return exitResourceErr
	default:
		return exitConfig
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
