// Package app wires the client together: configuration, logging, the
// screen and parser, the telnet negotiator, the tick engine and its poller,
// event sinks, the script host, the session and either the terminal UI or
// headless line mode.
package app

import (
	"context"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/tickterm/internal/codepage"
	"github.com/dshills/tickterm/internal/config"
	"github.com/dshills/tickterm/internal/logging"
	"github.com/dshills/tickterm/internal/publish"
	"github.com/dshills/tickterm/internal/render"
	"github.com/dshills/tickterm/internal/script"
	"github.com/dshills/tickterm/internal/session"
	"github.com/dshills/tickterm/internal/telnet"
	"github.com/dshills/tickterm/internal/term"
	"github.com/dshills/tickterm/internal/tick"
)

// Options configures the application. Non-zero fields override the
// configuration file and environment.
type Options struct {
	// ConfigPath is the path to a .toml or .yaml configuration file.
	ConfigPath string

	// Watch reloads ConfigPath when it changes.
	Watch bool

	Host       string
	Port       int
	Transport  string
	Encoding   string
	LogLevel   string
	LogFile    string
	ScriptPath string

	// Backend is the terminal UI. Nil runs headless: decoded text goes to
	// Stdout and lines read from Stdin are sent to the server.
	Backend render.Backend

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Application is the central coordinator for all client components.
type Application struct {
	mu sync.Mutex

	opts   Options
	config *config.Config

	logger  *logging.Logger
	logFile *os.File

	codePage   *codepage.CodePage
	screen     *term.Screen
	parser     *term.Parser
	negotiator *telnet.Negotiator
	engine     *tick.Engine

	events  *publish.Fanout
	mqtt    *publish.MQTTSink
	script  *script.Host
	watcher *config.Watcher

	session *session.Session

	dial func(ctx context.Context, cfg session.DialConfig) (net.Conn, error)

	running      atomic.Bool
	quit         atomic.Bool
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// New loads configuration and builds every component. Nothing connects
// until Run.
func New(opts Options) (*Application, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, NewComponentError("config", "load", err)
	}

	app := &Application{
		opts:   opts,
		config: cfg,
		dial:   session.Dial,
	}
	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

// loadConfig applies defaults, file, environment and then options.
func loadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.Transport != "" {
		cfg.Server.Transport = opts.Transport
	}
	if opts.Encoding != "" {
		cfg.Server.Encoding = opts.Encoding
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.Log.File = opts.LogFile
	}
	if opts.ScriptPath != "" {
		cfg.Script.Path = opts.ScriptPath
	}
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.config
}

// Screen returns the screen buffer.
func (app *Application) Screen() *term.Screen {
	return app.screen
}

// Engine returns the tick engine.
func (app *Application) Engine() *tick.Engine {
	return app.engine
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Session returns the current session, or nil before Run connects.
func (app *Application) Session() *session.Session {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.session
}

// SendLine sends a command line on the current session.
func (app *Application) SendLine(line string) error {
	s := app.Session()
	if s == nil {
		return session.ErrNotConnected
	}
	return s.SendLine(line)
}

// Quit ends Run with ErrQuit.
func (app *Application) Quit() {
	app.quit.Store(true)
	app.mu.Lock()
	cancel := app.cancel
	app.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
