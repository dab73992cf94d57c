// Package main is the entry point for the tickterm client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/tickterm/internal/app"
	"github.com/dshills/tickterm/internal/logging"
	"github.com/dshills/tickterm/internal/render"
	"github.com/dshills/tickterm/internal/session"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, headless := parseFlags()

	// The UI needs a terminal on both ends.
	if !headless && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		backend, err := render.NewTcellBackend()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
			return 1
		}
		opts.Backend = backend
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = application.Run(ctx)
	switch {
	case err == nil, errors.Is(err, app.ErrQuit), errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, session.ErrSessionEnded):
		fmt.Fprintf(os.Stderr, "Connection closed (%v)\n", err)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func parseFlags() (app.Options, bool) {
	var opts app.Options
	var headless, showVersion, showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml or .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload the configuration file when it changes")
	flag.StringVar(&opts.Transport, "transport", "", "Telnet transport (native, ziutek)")
	flag.StringVar(&opts.Encoding, "encoding", "", "Server code page (windows-1252, cp437, iso-8859-1)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua script with on_text/on_tick hooks")
	flag.StringVar(&opts.ScriptPath, "s", "", "Lua script (shorthand)")
	flag.BoolVar(&headless, "headless", false, "Line mode: print text to stdout, send stdin lines")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tickterm - telnet game client with tick tracking\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tickterm [options] [host [port]]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tickterm mud.example.org 4000         Connect with the terminal UI\n")
		fmt.Fprintf(os.Stderr, "  tickterm -c client.toml               Connect using a config file\n")
		fmt.Fprintf(os.Stderr, "  tickterm -headless -s hooks.lua host  Scripted line mode\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("tickterm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	args := flag.Args()
	if len(args) > 0 {
		opts.Host = args[0]
	}
	if len(args) > 1 {
		if _, err := fmt.Sscanf(args[1], "%d", &opts.Port); err != nil || opts.Port <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid port %q\n", args[1])
			os.Exit(1)
		}
	}
	if len(args) > 2 {
		flag.Usage()
		os.Exit(1)
	}

	return opts, headless
}
