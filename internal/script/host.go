// Package script runs user Lua hooks against the live session.
//
// A script may define any of these globals:
//
//	function on_text(text)          -- decoded text of each inbound chunk
//	function on_tick(tick)          -- tick.observed events
//	function on_event(type, data)   -- every published event
//
// and may call:
//
//	send(line)          -- send a command line to the server
//	set_combat(bool)    -- force the combat state used by the tick poller
//	in_combat()         -- current forced combat state
//	log(msg)            -- write to the client log at info level
package script

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tickterm/internal/logging"
	"github.com/dshills/tickterm/internal/publish"
)

// DefaultCallTimeout bounds a single hook invocation.
const DefaultCallTimeout = 2 * time.Second

// Hook names looked up in the script's globals.
const (
	HookText  = "on_text"
	HookTick  = "on_tick"
	HookEvent = "on_event"
)

// SendFunc delivers a command line to the server.
type SendFunc func(line string) error

// Option configures a Host.
type Option func(*Host)

// WithSender sets the function used by send().
func WithSender(fn SendFunc) Option {
	return func(h *Host) {
		h.send = fn
	}
}

// WithLogger sets the logger used by log() and for hook failures.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) {
		h.logger = logging.OrNop(l).WithComponent("script")
	}
}

// WithCallTimeout sets the per-hook execution limit.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// Host owns a sandboxed Lua state.
//
// gopher-lua states are not goroutine-safe; every entry point takes mu.
type Host struct {
	mu sync.Mutex
	L  *lua.LState

	send    SendFunc
	logger  *logging.Logger
	timeout time.Duration

	combat atomic.Bool
	closed bool
}

var _ publish.Publisher = (*Host)(nil)

// New creates a host with the safe standard libraries and the client API
// installed. No script is loaded yet.
func New(opts ...Option) *Host {
	h := &Host{
		logger:  logging.Nop(),
		timeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("send", L.NewFunction(h.luaSend))
	L.SetGlobal("set_combat", L.NewFunction(h.luaSetCombat))
	L.SetGlobal("in_combat", L.NewFunction(h.luaInCombat))
	L.SetGlobal("log", L.NewFunction(h.luaLog))

	h.L = L
	return h
}

// LoadFile runs a script file, defining its hooks.
func (h *Host) LoadFile(path string) error {
	return h.run(func() error {
		if err := h.L.DoFile(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		return nil
	})
}

// LoadString runs script source, defining its hooks.
func (h *Host) LoadString(code string) error {
	return h.run(func() error {
		return h.L.DoString(code)
	})
}

// HasHook reports whether the loaded script defines the named global function.
func (h *Host) HasHook(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	return h.L.GetGlobal(name).Type() == lua.LTFunction
}

// OnText passes decoded text to on_text. Missing hooks are not an error.
func (h *Host) OnText(text string) error {
	if text == "" {
		return nil
	}
	return h.call(HookText, lua.LString(text))
}

// Publish implements publish.Publisher. tick.observed goes to on_tick; every
// event goes to on_event. Hook errors are logged.
func (h *Host) Publish(eventType string, data map[string]any) {
	if eventType == publish.TypeTickObserved {
		h.callWithTable(HookTick, nil, data)
	}
	h.callWithTable(HookEvent, lua.LString(eventType), data)
}

func (h *Host) callWithTable(hook string, first lua.LValue, data map[string]any) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	tbl := toLua(h.L, data)
	h.mu.Unlock()

	var err error
	if first != nil {
		err = h.call(hook, first, tbl)
	} else {
		err = h.call(hook, tbl)
	}
	if err != nil && err != ErrScriptClosed {
		h.logger.Warn("%v", err)
	}
}

// InCombat reports the combat state forced by set_combat.
func (h *Host) InCombat() bool {
	return h.combat.Load()
}

// Close releases the Lua state. A second call returns ErrScriptClosed.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrScriptClosed
	}
	h.closed = true
	h.L.Close()
	return nil
}

// call invokes a global hook if it is defined.
func (h *Host) call(hook string, args ...lua.LValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrScriptClosed
	}

	fn := h.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return nil
	}
	return h.protect(func() error {
		if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
			return fmt.Errorf("%s: %w", hook, err)
		}
		return nil
	})
}

func (h *Host) run(fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrScriptClosed
	}
	return h.protect(fn)
}

// protect runs fn under the call timeout with panic recovery. mu must be held.
func (h *Host) protect(fn func() error) (err error) {
	if h.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		h.L.SetContext(ctx)
		defer h.L.RemoveContext()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (h *Host) luaSend(L *lua.LState) int {
	line := L.CheckString(1)
	if h.send == nil {
		L.RaiseError("%v", ErrNoSender)
		return 0
	}
	if err := h.send(line); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (h *Host) luaSetCombat(L *lua.LState) int {
	on := L.ToBool(1)
	if h.combat.Swap(on) != on {
		h.logger.Debug("combat forced %v", on)
	}
	return 0
}

func (h *Host) luaInCombat(L *lua.LState) int {
	L.Push(lua.LBool(h.combat.Load()))
	return 1
}

func (h *Host) luaLog(L *lua.LState) int {
	h.logger.Info("%s", L.CheckString(1))
	return 0
}
