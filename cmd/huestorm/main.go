// Package main is the huestorm command: it opens a file with the
// configured language server, collects color annotations for it, and
// prints them as a report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/huestorm/internal/colorsync"
	"github.com/dshills/huestorm/internal/config"
	"github.com/dshills/huestorm/internal/highlight"
	"github.com/dshills/huestorm/internal/log"
	"github.com/dshills/huestorm/internal/protocol"
	"github.com/dshills/huestorm/internal/transport"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	ConfigPath string
	LogLevel   string
	Timeout    time.Duration
	File       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		return 1
	}
	if !cfg.Enabled {
		fmt.Fprintln(os.Stderr, "color sync is disabled in the configuration")
		return 0
	}

	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger := log.New(os.Stderr, log.ParseLevel(level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := filepath.Abs(opts.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	langID := languageForPath(path)
	serverCfg, ok := cfg.Servers[langID]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no server configured for language %q\n", langID)
		return 1
	}

	client, err := transport.Spawn(ctx, langID, langID, serverCfg, filepath.Dir(path), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Shutdown(c)
	}()

	if err := client.OpenDocument(path, string(content)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: open document: %v\n", err)
		return 1
	}

	host := newCLIHost()
	registry := highlight.NewRegistry(cfg.Highlight.Mode)
	svc := colorsync.New(host, registry,
		colorsync.WithLogger(logger),
		colorsync.WithRefreshWhileTyping(cfg.RefreshWhileTyping),
	)
	if err := svc.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer svc.Shutdown(context.Background())

	svc.RegisterClient(client)

	uri := protocol.FilePathToURI(path)
	updates := make(chan []colorsync.CacheEntry, 8)
	svc.Subscribe(uri, func(_ colorsync.ClientID, entries []colorsync.CacheEntry) {
		updates <- entries
	})

	select {
	case entries := <-updates:
		printReport(path, entries)
		return 0
	case <-time.After(opts.Timeout):
		fmt.Fprintln(os.Stderr, "Error: timed out waiting for color annotations")
		return 1
	case <-ctx.Done():
		return 1
	}
}

// printReport writes one line per annotation: 1-indexed position, hex
// value, and alpha.
func printReport(path string, entries []colorsync.CacheEntry) {
	if len(entries) == 0 {
		fmt.Printf("%s: no colors reported\n", path)
		return
	}
	for _, e := range entries {
		fmt.Printf("%s:%d:%d-%d %s alpha %.2f\n",
			path,
			e.Range.Start.Line+1,
			e.Range.Start.Character+1,
			e.Range.End.Character,
			e.Color.Hex(),
			e.Alpha,
		)
	}
}

// languageForPath maps a file extension to a language server ID.
func languageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".css":
		return "css"
	case ".scss", ".sass":
		return "scss"
	case ".html", ".htm":
		return "html"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".json":
		return "json"
	case ".lua":
		return "lua"
	default:
		return strings.TrimPrefix(filepath.Ext(path), ".")
	}
}

// cliHost is the DocumentHost for one-shot CLI runs: the document stays
// open for the lifetime of the process and never sees edits.
type cliHost struct{}

func newCLIHost() *cliHost { return &cliHost{} }

func (*cliHost) IsOpen(protocol.DocumentURI) bool                 { return true }
func (*cliHost) Watch(protocol.DocumentURI, colorsync.WatchHooks) {}

func parseFlags() options {
	opts := options{}
	var showVersion, showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "How long to wait for annotations")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Huestorm - color annotations via language servers\n\n")
		fmt.Fprintf(os.Stderr, "Usage: huestorm [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  huestorm style.css          Report colors in a stylesheet\n")
		fmt.Fprintf(os.Stderr, "  huestorm -c cfg.toml x.go   Use a custom configuration\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("Huestorm %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	opts.File = flag.Arg(0)

	return opts
}
