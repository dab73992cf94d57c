package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	if cfg.Tick.Interval.Std() != 5*time.Second {
		t.Errorf("expected 5s interval, got %v", cfg.Tick.Interval)
	}
	if cfg.Terminal.Cols != 80 || cfg.Terminal.Rows != 24 {
		t.Errorf("expected 80x24, got %dx%d", cfg.Terminal.Cols, cfg.Terminal.Rows)
	}
	if cfg.Server.Address() != "localhost:23" {
		t.Errorf("expected localhost:23, got %s", cfg.Server.Address())
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "client.toml", `
[server]
host = "mud.example.org"
port = 4000
transport = "ziutek"
encoding = "cp437"

[tick]
cluster_window = "750ms"
damage_patterns = ["hits you", "You hit"]

[log]
level = "debug"
`)

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Host != "mud.example.org" || cfg.Server.Port != 4000 {
		t.Errorf("unexpected server %+v", cfg.Server)
	}
	if cfg.Server.Transport != TransportZiutek || cfg.Server.Encoding != "cp437" {
		t.Errorf("unexpected transport/encoding %q/%q", cfg.Server.Transport, cfg.Server.Encoding)
	}
	if cfg.Tick.ClusterWindow.Std() != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", cfg.Tick.ClusterWindow)
	}
	if len(cfg.Tick.DamagePatterns) != 2 || cfg.Tick.DamagePatterns[1] != "You hit" {
		t.Errorf("unexpected patterns %v", cfg.Tick.DamagePatterns)
	}
	if cfg.Tick.Interval.Std() != 5*time.Second {
		t.Errorf("expected untouched interval to keep default, got %v", cfg.Tick.Interval)
	}
	if cfg.Terminal.TerminalType != "ANSI" {
		t.Errorf("expected default terminal type kept, got %q", cfg.Terminal.TerminalType)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to validate, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "client.yaml", `
server:
  host: bbs.example.net
  port: 2323
terminal:
  cols: 132
  rows: 43
render:
  interval: 100ms
  status_line: false
mqtt:
  broker: tcp://localhost:1883
`)

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Host != "bbs.example.net" || cfg.Server.Port != 2323 {
		t.Errorf("unexpected server %+v", cfg.Server)
	}
	if cfg.Terminal.Cols != 132 || cfg.Terminal.Rows != 43 {
		t.Errorf("unexpected size %dx%d", cfg.Terminal.Cols, cfg.Terminal.Rows)
	}
	if cfg.Render.Interval.Std() != 100*time.Millisecond || cfg.Render.StatusLine {
		t.Errorf("unexpected render %+v", cfg.Render)
	}
	if !cfg.MQTT.Enabled() || cfg.MQTT.Topic != "tickterm/events" {
		t.Errorf("unexpected mqtt %+v", cfg.MQTT)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	if err := cfg.LoadFile(writeFile(t, dir, "client.ini", "host=x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	var perr *ParseError
	if err := cfg.LoadFile(writeFile(t, dir, "bad.toml", "[server\nhost=")); !errors.As(err, &perr) {
		t.Errorf("expected ParseError, got %v", err)
	}

	if err := cfg.LoadFile(writeFile(t, dir, "dur.yaml", "tick:\n  interval: soon\n")); err == nil {
		t.Error("expected error for bad duration")
	}

	if err := cfg.LoadFile(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TICKTERM_HOST":      "env.example",
		"TICKTERM_PORT":      "6023",
		"TICKTERM_LOG_LEVEL": "warn",
		"TICKTERM_ENCODING":  "latin1",
		"TICKTERM_SCRIPT":    "/tmp/hooks.lua",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Server.Host != "env.example" || cfg.Server.Port != 6023 {
		t.Errorf("unexpected server %+v", cfg.Server)
	}
	if cfg.Log.Level != "warn" || cfg.Server.Encoding != "latin1" || cfg.Script.Path != "/tmp/hooks.lua" {
		t.Errorf("unexpected overrides %+v %+v %+v", cfg.Log, cfg.Server, cfg.Script)
	}

	env = map[string]string{"TICKTERM_PORT": "telnet"}
	if err := Default().ApplyEnv(lookup); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for bad port, got %v", err)
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	t.Setenv("TICKTERM_HOST", "from-env")
	path := writeFile(t, t.TempDir(), "c.toml", "[server]\nhost = \"from-file\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "from-env" {
		t.Errorf("expected environment to win over file, got %q", cfg.Server.Host)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		field  string
	}{
		{"empty host", func(c *Config) { c.Server.Host = " " }, "server.host"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad transport", func(c *Config) { c.Server.Transport = "ssh" }, "server.transport"},
		{"bad encoding", func(c *Config) { c.Server.Encoding = "utf-16" }, "server.encoding"},
		{"tiny screen", func(c *Config) { c.Terminal.Cols = 10 }, "terminal.cols"},
		{"huge screen", func(c *Config) { c.Terminal.Rows = 500 }, "terminal.rows"},
		{"no terminal type", func(c *Config) { c.Terminal.TerminalType = "" }, "terminal.terminal_type"},
		{"small residual", func(c *Config) { c.Terminal.MaxResidual = 4 }, "terminal.max_residual"},
		{"cluster too wide", func(c *Config) { c.Tick.ClusterWindow = c.Tick.Interval }, "tick.cluster_window"},
		{"drift order", func(c *Config) { c.Tick.DesyncDrift = c.Tick.ConfirmDrift }, "tick.desync_drift"},
		{"bad pattern", func(c *Config) { c.Tick.DamagePatterns = []string{"[a-"} }, "tick.damage_patterns"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"mqtt without topic", func(c *Config) { c.MQTT.Broker = "tcp://b:1883"; c.MQTT.Topic = "" }, "mqtt.topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var ferr *FieldError
			if !errors.As(err, &ferr) || ferr.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestTickEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Tick.ConfirmDrift = Duration(time.Second)

	ec := cfg.Tick.Engine()

	if ec.Interval != 5*time.Second || ec.ConfirmDrift != time.Second {
		t.Errorf("unexpected engine config %+v", ec)
	}
	if len(ec.Patterns) != len(cfg.Tick.DamagePatterns) {
		t.Errorf("expected patterns passed through, got %v", ec.Patterns)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Errorf("expected 90s, got %v", d)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("expected '1m30s', got %q", text)
	}
}
