package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/tickterm/internal/codepage"
	"github.com/dshills/tickterm/internal/logging"
	"github.com/dshills/tickterm/internal/term"
	"github.com/dshills/tickterm/internal/tick"
)

// Transport names accepted in server.transport.
const (
	TransportNative = "native"
	TransportZiutek = "ziutek"
)

// Config is the complete client configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Terminal TerminalConfig `toml:"terminal" yaml:"terminal"`
	Tick     TickConfig     `toml:"tick" yaml:"tick"`
	Render   RenderConfig   `toml:"render" yaml:"render"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Script   ScriptConfig   `toml:"script" yaml:"script"`
	MQTT     MQTTConfig     `toml:"mqtt" yaml:"mqtt"`
}

// ServerConfig selects the remote host and how to reach it.
type ServerConfig struct {
	Host        string   `toml:"host" yaml:"host"`
	Port        int      `toml:"port" yaml:"port"`
	Transport   string   `toml:"transport" yaml:"transport"`
	DialTimeout Duration `toml:"dial_timeout" yaml:"dial_timeout"`
	Encoding    string   `toml:"encoding" yaml:"encoding"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TerminalConfig sizes the screen and the negotiated terminal.
type TerminalConfig struct {
	Cols         int    `toml:"cols" yaml:"cols"`
	Rows         int    `toml:"rows" yaml:"rows"`
	TerminalType string `toml:"terminal_type" yaml:"terminal_type"`
	NAWSCols     int    `toml:"naws_cols" yaml:"naws_cols"`
	NAWSRows     int    `toml:"naws_rows" yaml:"naws_rows"`
	MaxResidual  int    `toml:"max_residual" yaml:"max_residual"`
}

// TickConfig holds the tick inference thresholds.
type TickConfig struct {
	Interval       Duration `toml:"interval" yaml:"interval"`
	ClusterWindow  Duration `toml:"cluster_window" yaml:"cluster_window"`
	ConfirmDrift   Duration `toml:"confirm_drift" yaml:"confirm_drift"`
	DesyncDrift    Duration `toml:"desync_drift" yaml:"desync_drift"`
	PollInterval   Duration `toml:"poll_interval" yaml:"poll_interval"`
	CombatWindow   Duration `toml:"combat_window" yaml:"combat_window"`
	DamagePatterns []string `toml:"damage_patterns" yaml:"damage_patterns"`
}

// Engine returns the tick engine configuration.
func (t TickConfig) Engine() tick.Config {
	return tick.Config{
		Interval:      t.Interval.Std(),
		ClusterWindow: t.ClusterWindow.Std(),
		ConfirmDrift:  t.ConfirmDrift.Std(),
		DesyncDrift:   t.DesyncDrift.Std(),
		Patterns:      t.DamagePatterns,
	}
}

// RenderConfig controls the render cadence.
type RenderConfig struct {
	Interval   Duration `toml:"interval" yaml:"interval"`
	StatusLine bool     `toml:"status_line" yaml:"status_line"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// ScriptConfig points at an optional Lua script.
type ScriptConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// MQTTConfig enables publishing events to a broker when Broker is set.
type MQTTConfig struct {
	Broker   string `toml:"broker" yaml:"broker"`
	Topic    string `toml:"topic" yaml:"topic"`
	ClientID string `toml:"client_id" yaml:"client_id"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// Default returns the configuration used before any file, environment or
// flag is applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "localhost",
			Port:        23,
			Transport:   TransportNative,
			DialTimeout: Duration(10 * time.Second),
			Encoding:    codepage.DefaultName,
		},
		Terminal: TerminalConfig{
			Cols:         80,
			Rows:         24,
			TerminalType: "ANSI",
			NAWSCols:     80,
			NAWSRows:     24,
			MaxResidual:  4096,
		},
		Tick: TickConfig{
			Interval:       Duration(tick.DefaultInterval),
			ClusterWindow:  Duration(tick.DefaultClusterWindow),
			ConfirmDrift:   Duration(tick.DefaultConfirmDrift),
			DesyncDrift:    Duration(tick.DefaultDesyncDrift),
			PollInterval:   Duration(tick.DefaultPollInterval),
			CombatWindow:   Duration(6 * time.Second),
			DamagePatterns: append([]string(nil), tick.DefaultDamagePatterns...),
		},
		Render: RenderConfig{
			Interval:   Duration(50 * time.Millisecond),
			StatusLine: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		MQTT: MQTTConfig{
			Topic:    "tickterm/events",
			ClientID: "tickterm",
		},
	}
}

// Validate checks every field and reports the first problem wrapped in
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return invalid("server.host", "must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Transport {
	case TransportNative, TransportZiutek:
	default:
		return invalid("server.transport", "must be %q or %q, got %q", TransportNative, TransportZiutek, c.Server.Transport)
	}
	if c.Server.DialTimeout < 0 {
		return invalid("server.dial_timeout", "must not be negative")
	}
	if _, err := codepage.Lookup(c.Server.Encoding); err != nil {
		return invalid("server.encoding", "%v", err)
	}

	if c.Terminal.Cols < term.MinCols || c.Terminal.Cols > term.MaxCols {
		return invalid("terminal.cols", "must be between %d and %d, got %d", term.MinCols, term.MaxCols, c.Terminal.Cols)
	}
	if c.Terminal.Rows < term.MinRows || c.Terminal.Rows > term.MaxRows {
		return invalid("terminal.rows", "must be between %d and %d, got %d", term.MinRows, term.MaxRows, c.Terminal.Rows)
	}
	if c.Terminal.TerminalType == "" {
		return invalid("terminal.terminal_type", "must not be empty")
	}
	if c.Terminal.NAWSCols < 1 || c.Terminal.NAWSCols > 0xFFFF || c.Terminal.NAWSRows < 1 || c.Terminal.NAWSRows > 0xFFFF {
		return invalid("terminal.naws", "size must be between 1 and 65535")
	}
	if c.Terminal.MaxResidual < 16 {
		return invalid("terminal.max_residual", "must be at least 16 bytes, got %d", c.Terminal.MaxResidual)
	}

	if c.Tick.Interval <= 0 {
		return invalid("tick.interval", "must be positive")
	}
	if c.Tick.ClusterWindow <= 0 || c.Tick.ClusterWindow >= c.Tick.Interval {
		return invalid("tick.cluster_window", "must be positive and shorter than tick.interval")
	}
	if c.Tick.ConfirmDrift <= 0 || c.Tick.DesyncDrift <= c.Tick.ConfirmDrift {
		return invalid("tick.desync_drift", "must be greater than tick.confirm_drift")
	}
	if c.Tick.PollInterval <= 0 {
		return invalid("tick.poll_interval", "must be positive")
	}
	if c.Tick.CombatWindow < 0 {
		return invalid("tick.combat_window", "must not be negative")
	}
	if _, err := tick.CompilePatterns(c.Tick.DamagePatterns); err != nil {
		return invalid("tick.damage_patterns", "%v", err)
	}

	if c.Render.Interval <= 0 {
		return invalid("render.interval", "must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	if c.MQTT.Enabled() && c.MQTT.Topic == "" {
		return invalid("mqtt.topic", "must be set when mqtt.broker is set")
	}
	return nil
}

// Duration is a time.Duration written as a Go duration string ("500ms").
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
