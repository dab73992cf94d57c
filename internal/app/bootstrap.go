package app

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/dshills/tickterm/internal/codepage"
	"github.com/dshills/tickterm/internal/config"
	"github.com/dshills/tickterm/internal/logging"
	"github.com/dshills/tickterm/internal/publish"
	"github.com/dshills/tickterm/internal/render"
	"github.com/dshills/tickterm/internal/script"
	"github.com/dshills/tickterm/internal/telnet"
	"github.com/dshills/tickterm/internal/term"
	"github.com/dshills/tickterm/internal/tick"
)

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	cfg := app.config

	// 1. Logging
	if err := app.initLogger(); err != nil {
		return NewComponentError("logging", "open", err)
	}

	// 2. Screen, parser and negotiator
	cp, err := codepage.Lookup(cfg.Server.Encoding)
	if err != nil {
		return NewComponentError("codepage", "lookup", err)
	}
	app.codePage = cp
	app.screen = term.NewScreen(cfg.Terminal.Cols, cfg.Terminal.Rows)
	app.parser = term.NewParser(app.screen, cp)
	app.negotiator = telnet.NewNegotiator(telnet.Options{
		TerminalType: cfg.Terminal.TerminalType,
		WindowCols:   cfg.Terminal.NAWSCols,
		WindowRows:   cfg.Terminal.NAWSRows,
		MaxResidual:  cfg.Terminal.MaxResidual,
	})

	// 3. Tick engine
	app.engine, err = tick.NewEngine(cfg.Tick.Engine())
	if err != nil {
		return NewComponentError("tick", "init", err)
	}

	// 4. Event fan-out and sinks
	app.events = publish.NewFanout(publish.DefaultQueueSize, app.logger)
	app.events.Add(publish.NewLogSink(app.logger))
	app.engine.SetTickCallback(app.publishTick)

	if cfg.Script.Path != "" {
		app.script = script.New(
			script.WithSender(app.SendLine),
			script.WithLogger(app.logger),
		)
		if err := app.script.LoadFile(cfg.Script.Path); err != nil {
			return NewComponentError("script", "load", err)
		}
		app.events.Add(app.script)
		app.logger.Info("loaded script %s", cfg.Script.Path)
	}

	if cfg.MQTT.Enabled() {
		app.mqtt, err = publish.NewMQTTSink(publish.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		}, app.logger)
		if err != nil {
			return NewComponentError("mqtt", "connect", err)
		}
		app.events.Add(app.mqtt)
	}

	// 5. Config watcher
	if app.opts.Watch && app.opts.ConfigPath != "" {
		app.watcher, err = config.Watch(app.opts.ConfigPath, app.applyReload)
		if err != nil {
			return NewComponentError("config", "watch", err)
		}
	}

	return nil
}

// initLogger logs to log.file when set. Otherwise headless mode logs to
// Stderr and UI mode discards, since the UI owns the terminal.
func (app *Application) initLogger() error {
	cfg := app.config
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	var out io.Writer
	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		app.logFile = f
		out = f
	case app.opts.Backend != nil:
		out = io.Discard
	default:
		out = app.opts.Stderr
	}

	app.logger = logging.New(logging.Config{
		Level:  level,
		Output: out,
		Prefix: "tickterm",
	})
	return nil
}

func (app *Application) publishTick(ev tick.Event) {
	app.events.Publish(publish.TypeTickObserved, map[string]any{
		"source":     ev.Source.String(),
		"at":         ev.At,
		"next":       ev.Next,
		"next_in_ms": ev.Next.Sub(ev.At).Milliseconds(),
	})
}

// inCombat reports recent damage or a combat state forced by the script.
func (app *Application) inCombat(now time.Time) bool {
	if app.script != nil && app.script.InCombat() {
		return true
	}
	return app.engine.RecentDamage(now, app.Config().Tick.CombatWindow.Std())
}

// applyReload applies the settings that can change without reconnecting.
func (app *Application) applyReload(cfg *config.Config, err error) {
	if err != nil {
		app.logger.Warn("config reload failed: %v", err)
		return
	}
	applyOverrides(cfg, Options{LogLevel: app.opts.LogLevel})

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		app.logger.Warn("config reload: %v", err)
		return
	}
	if err := app.engine.SetPatterns(cfg.Tick.DamagePatterns); err != nil {
		app.logger.Warn("config reload: %v", err)
		return
	}
	app.logger.SetLevel(level)

	app.mu.Lock()
	old := app.config
	next := *old
	next.Log.Level = cfg.Log.Level
	next.Tick.DamagePatterns = cfg.Tick.DamagePatterns
	next.Tick.CombatWindow = cfg.Tick.CombatWindow
	app.config = &next
	app.mu.Unlock()

	app.logger.Info("configuration reloaded: level=%s patterns=%d", level, len(cfg.Tick.DamagePatterns))
	if old.Server != cfg.Server || old.Terminal != cfg.Terminal {
		app.logger.Info("server and terminal changes apply on the next connection")
	}
}

// statusLine is the UI status text.
func (app *Application) statusLine(now time.Time) string {
	parts := []string{app.Config().Server.Address()}
	if s := app.Session(); s == nil || !s.Connected() {
		parts = append(parts, "disconnected")
	}
	parts = append(parts, render.TickStatus(app.engine, now))
	if app.inCombat(now) {
		parts = append(parts, "combat")
	}
	return strings.Join(parts, " | ")
}
