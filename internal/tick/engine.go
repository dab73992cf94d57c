// Package tick infers the server's recurring game clock from the timing of
// damage messages and a fixed countdown.
package tick

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Default timing constants.
const (
	DefaultInterval      = 5000 * time.Millisecond
	DefaultClusterWindow = 500 * time.Millisecond
	DefaultConfirmDrift  = 1500 * time.Millisecond
	DefaultDesyncDrift   = 3500 * time.Millisecond
	DefaultPollInterval  = 100 * time.Millisecond
)

// DefaultDamagePatterns match the lines a server prints when combat damage
// is dealt on a tick.
var DefaultDamagePatterns = []string{
	`(?i)\bfor \d+ damage\b`,
}

// Source identifies what produced a tick event.
type Source int

const (
	// SourceDamage is a tick anchored on a damage message cluster.
	SourceDamage Source = iota
	// SourceRollover is a tick inferred from the countdown passing.
	SourceRollover
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceDamage:
		return "damage"
	case SourceRollover:
		return "rollover"
	default:
		return "unknown"
	}
}

// Event is delivered to the tick callback.
type Event struct {
	At     time.Time
	Next   time.Time
	Source Source
}

// Config holds the engine thresholds. Zero durations take the defaults and a
// nil pattern list takes DefaultDamagePatterns.
type Config struct {
	Interval      time.Duration
	ClusterWindow time.Duration
	ConfirmDrift  time.Duration
	DesyncDrift   time.Duration
	Patterns      []string
}

// Estimate is the current prediction. Zero times mean no estimate yet.
type Estimate struct {
	LastTickAt   time.Time
	NextTickAt   time.Time
	Interval     time.Duration
	LastDamageAt time.Time
	ClusterCount int
}

// Engine tracks the tick estimate. It is safe for concurrent use: the read
// loop calls Observe while a poller calls Poll and a renderer calls Remaining.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	patterns []*regexp.Regexp

	lastTickAt   time.Time
	nextTickAt   time.Time
	lastDamageAt time.Time
	clusterCount int
	notifiedAt   time.Time

	onTick func(Event)
}

// NewEngine creates an engine. It fails only when a pattern does not compile.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ClusterWindow <= 0 {
		cfg.ClusterWindow = DefaultClusterWindow
	}
	if cfg.ConfirmDrift <= 0 {
		cfg.ConfirmDrift = DefaultConfirmDrift
	}
	if cfg.DesyncDrift <= 0 {
		cfg.DesyncDrift = DefaultDesyncDrift
	}
	if cfg.Patterns == nil {
		cfg.Patterns = DefaultDamagePatterns
	}

	e := &Engine{cfg: cfg}
	if err := e.SetPatterns(cfg.Patterns); err != nil {
		return nil, err
	}
	return e, nil
}

// CompilePatterns compiles damage patterns, reporting the first failure.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("damage pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// SetPatterns replaces the damage patterns. The previous patterns stay in
// effect when any of the new ones fail to compile.
func (e *Engine) SetPatterns(patterns []string) error {
	compiled, err := CompilePatterns(patterns)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.patterns = compiled
	e.cfg.Patterns = append([]string(nil), patterns...)
	e.mu.Unlock()
	return nil
}

// SetTickCallback sets the function called once per inferred tick. It runs
// without the engine lock held.
func (e *Engine) SetTickCallback(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// Interval returns the fixed tick interval.
func (e *Engine) Interval() time.Duration {
	return e.cfg.Interval
}

// ObserveText splits decoded text into lines and observes each of them.
// It reports whether any line matched a damage pattern.
func (e *Engine) ObserveText(text string, now time.Time) bool {
	matched := false
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if e.Observe(line, now) {
			matched = true
		}
	}
	return matched
}

// Observe checks one decoded line against the damage patterns and updates the
// estimate. It reports whether the line was a damage message.
func (e *Engine) Observe(line string, now time.Time) bool {
	e.mu.Lock()
	if !e.matchLocked(line) {
		e.mu.Unlock()
		return false
	}

	if !e.lastDamageAt.IsZero() && now.Sub(e.lastDamageAt) < e.cfg.ClusterWindow {
		e.lastDamageAt = now
		e.clusterCount++
		e.mu.Unlock()
		return true
	}

	e.lastDamageAt = now
	e.clusterCount = 1

	var ev *Event
	if e.nextTickAt.IsZero() {
		ev = e.anchorLocked(now)
	} else {
		drift := absDuration(now.Sub(e.nextTickAt))
		if drift < e.cfg.ConfirmDrift || drift > e.cfg.DesyncDrift {
			ev = e.anchorLocked(now)
		}
	}
	fn := e.onTick
	e.mu.Unlock()

	if ev != nil && fn != nil {
		fn(*ev)
	}
	return true
}

func (e *Engine) matchLocked(line string) bool {
	for _, re := range e.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// anchorLocked sets the tick clock to now and returns the event to deliver,
// or nil when a tick was already delivered within this interval.
func (e *Engine) anchorLocked(now time.Time) *Event {
	e.lastTickAt = now
	e.nextTickAt = now.Add(e.cfg.Interval)
	return e.notifyLocked(now, SourceDamage)
}

func (e *Engine) notifyLocked(at time.Time, source Source) *Event {
	if !e.notifiedAt.IsZero() && at.Sub(e.notifiedAt) < e.cfg.Interval-e.cfg.ClusterWindow {
		return nil
	}
	e.notifiedAt = at
	return &Event{At: at, Next: e.nextTickAt, Source: source}
}

// Poll advances the predicted tick by whole intervals once it has passed.
// Outside combat the rollover itself counts as a tick, because damage text
// is not printed then.
func (e *Engine) Poll(now time.Time, inCombat bool) {
	e.mu.Lock()
	if e.nextTickAt.IsZero() || now.Before(e.nextTickAt) {
		e.mu.Unlock()
		return
	}

	missed := now.Sub(e.nextTickAt) / e.cfg.Interval
	boundary := e.nextTickAt.Add(missed * e.cfg.Interval)
	e.nextTickAt = boundary.Add(e.cfg.Interval)

	var ev *Event
	if !inCombat {
		e.lastTickAt = boundary
		ev = e.notifyLocked(boundary, SourceRollover)
	}
	fn := e.onTick
	e.mu.Unlock()

	if ev != nil && fn != nil {
		fn(*ev)
	}
}

// Remaining returns the time until the next predicted tick, clamped at zero.
// ok is false when there is no estimate yet.
func (e *Engine) Remaining(now time.Time) (remaining time.Duration, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.nextTickAt.IsZero() {
		return 0, false
	}
	remaining = e.nextTickAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// RecentDamage reports whether a damage message was observed within window
// before now.
func (e *Engine) RecentDamage(now time.Time, window time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.lastDamageAt.IsZero() && now.Sub(e.lastDamageAt) <= window
}

// Estimate returns a copy of the current estimate.
func (e *Engine) Estimate() Estimate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Estimate{
		LastTickAt:   e.lastTickAt,
		NextTickAt:   e.nextTickAt,
		Interval:     e.cfg.Interval,
		LastDamageAt: e.lastDamageAt,
		ClusterCount: e.clusterCount,
	}
}

// Reset discards the estimate and clustering state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastTickAt = time.Time{}
	e.nextTickAt = time.Time{}
	e.lastDamageAt = time.Time{}
	e.clusterCount = 0
	e.notifiedAt = time.Time{}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
