package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dshills/tickterm/internal/render"
	"github.com/dshills/tickterm/internal/session"
)

// Run connects and blocks until the session ends, ctx is done or the user
// quits. A user quit returns ErrQuit; otherwise the session's error, which
// wraps session.ErrSessionEnded. No reconnection is attempted.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	cfg := app.Config()
	app.logger.Info("connecting to %s (%s)", cfg.Server.Address(), cfg.Server.Transport)
	conn, err := app.dial(ctx, session.DialConfig{
		Address:   cfg.Server.Address(),
		Transport: cfg.Server.Transport,
		Timeout:   cfg.Server.DialTimeout.Std(),
	})
	if err != nil {
		if app.quit.Load() {
			return ErrQuit
		}
		return NewComponentError("session", "dial", err)
	}

	sess := session.New(conn, session.Options{
		Parser:     app.parser,
		Negotiator: app.negotiator,
		Tick:       app.engine,
		CodePage:   app.codePage,
		Publisher:  app.events,
		Logger:     app.logger,
		OnText:     app.onText,
	})
	app.mu.Lock()
	app.session = sess
	app.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.engine.RunPoller(ctx, cfg.Tick.PollInterval.Std(), app.inCombat)
	}()

	if b := app.opts.Backend; b != nil {
		if err := b.Init(); err != nil {
			_ = sess.Close()
			return NewComponentError("render", "init", err)
		}
		defer b.Shutdown()

		r := render.New(render.Options{
			Backend: b,
			Screen:  app.screen,
			Send:    sess.SendLine,
			Status:  app.statusFunc(),
			Quit:    app.Quit,
			Logger:  app.logger,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Run(ctx, cfg.Render.Interval.Std())
		}()
	} else {
		// Not part of wg: a blocked read on Stdin cannot be interrupted.
		go app.readInput(ctx, sess)
	}

	err = sess.Run(ctx)
	cancel()
	wg.Wait()

	if app.quit.Load() {
		return ErrQuit
	}
	return err
}

func (app *Application) statusFunc() render.StatusFunc {
	if !app.Config().Render.StatusLine {
		return nil
	}
	return app.statusLine
}

// onText is called by the read loop with each chunk's decoded text.
func (app *Application) onText(text string) {
	if app.opts.Backend == nil {
		_, _ = io.WriteString(app.opts.Stdout, text)
	}
	if app.script != nil {
		if err := app.script.OnText(text); err != nil {
			app.logger.Warn("%v", err)
		}
	}
}

// readInput sends each line of Stdin to the server in headless mode.
func (app *Application) readInput(ctx context.Context, sess *session.Session) {
	scanner := bufio.NewScanner(app.opts.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := sess.SendLine(scanner.Text()); err != nil {
			if !errors.Is(err, session.ErrNotConnected) {
				app.logger.Warn("send: %v", err)
			}
			return
		}
	}
}

// Shutdown releases every component. It is safe to call more than once.
func (app *Application) Shutdown() error {
	var errs ErrorList
	app.shutdownOnce.Do(func() {
		app.mu.Lock()
		cancel := app.cancel
		sess := app.session
		app.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if sess != nil && sess.Connected() {
			if err := sess.Close(); err != nil && !errors.Is(err, session.ErrClosed) {
				errs.Add(NewComponentError("session", "close", err))
			}
		}
		if app.watcher != nil {
			errs.Add(app.watcher.Close())
		}
		if app.events != nil {
			errs.Add(app.events.Close())
		}
		if app.mqtt != nil {
			errs.Add(app.mqtt.Close())
		}
		if app.script != nil {
			errs.Add(app.script.Close())
		}
		if app.logFile != nil {
			errs.Add(app.logFile.Close())
		}
	})
	return errs.AsError()
}
