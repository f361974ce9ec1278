package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"pitchdial/dial"
	"pitchdial/display"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	c := dial.DefaultConfig()
	cfg.ApplyDial(&c)
	if c.StartFrequency != 450 || c.Step != 50 {
		t.Errorf("defaults changed by empty config: %+v", c)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestApplyDial(t *testing.T) {
	path := writeConfig(t, `
[dial]
start = 500
step = 25
min = 250
poll-ms = 50

[keys]
commit = "return"

[tone]
volume = 0.2
stereo = false
`)
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	c := dial.DefaultConfig()
	fc.ApplyDial(&c)

	if c.StartFrequency != 500 || c.Step != 25 || c.Range.Min != 250 || c.Range.Max != 700 {
		t.Errorf("dial = %+v", c)
	}
	if c.PollInterval != 50*time.Millisecond {
		t.Errorf("PollInterval = %v", c.PollInterval)
	}
	if c.Keys.Commit != "return" || c.Keys.Up != "up" {
		t.Errorf("keys = %+v", c.Keys)
	}
	if c.Tone.Volume != 0.2 || c.Tone.Stereo {
		t.Errorf("tone = %+v", c.Tone)
	}
}

func TestApplySweepAndMonitor(t *testing.T) {
	path := writeConfig(t, `
[calibrate]
duration-s = 2.5
lower = "a"

[keys]
quit = "escape"

[monitor]
width-px = 2560
`)
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	s := dial.DefaultSweepConfig()
	fc.ApplySweep(&s)
	if s.Duration != 2500*time.Millisecond || s.Lower != "a" || s.Raise != "m" || s.Quit != "escape" {
		t.Errorf("sweep = %+v", s)
	}

	m := display.DefaultMonitor
	fc.ApplyMonitor(&m)
	if m.WidthPx != 2560 || m.WidthCm != display.DefaultMonitor.WidthCm {
		t.Errorf("monitor = %+v", m)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "[dial]\nstrat = 400\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "dial.strat") {
		t.Fatalf("err = %v, want unknown key dial.strat", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(dial.DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []func(*dial.Config){
		func(c *dial.Config) { c.Range.Min = 800 },
		func(c *dial.Config) { c.Step = 0 },
		func(c *dial.Config) { c.PollInterval = 0 },
		func(c *dial.Config) { c.Tone.Volume = 2 },
		func(c *dial.Config) { c.Keys.Up = c.Keys.Down },
		func(c *dial.Config) { c.Keys.Quit = c.Keys.Commit },
	}
	for i, mutate := range bad {
		c := dial.DefaultConfig()
		mutate(&c)
		if err := Validate(c); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestValidateSweep(t *testing.T) {
	if err := ValidateSweep(dial.DefaultSweepConfig()); err != nil {
		t.Fatalf("default sweep config invalid: %v", err)
	}

	bad := []func(*dial.SweepConfig){
		func(c *dial.SweepConfig) { c.Step = 0 },
		func(c *dial.SweepConfig) { c.Range.Min, c.Range.Max = 700, 100 },
		func(c *dial.SweepConfig) { c.Range.Min = 0 },
		func(c *dial.SweepConfig) { c.Duration = 0 },
		func(c *dial.SweepConfig) { c.PollInterval = 0 },
		func(c *dial.SweepConfig) { c.Raise = c.Lower },
		func(c *dial.SweepConfig) { c.Quit = c.Raise },
	}
	for i, mutate := range bad {
		c := dial.DefaultSweepConfig()
		mutate(&c)
		if err := ValidateSweep(c); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestValidateSweepFromFile(t *testing.T) {
	fc, err := LoadConfig(writeConfig(t, "[calibrate]\nstep = 0.0\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg := dial.DefaultSweepConfig()
	fc.ApplySweep(&cfg)
	if err := ValidateSweep(cfg); err == nil {
		t.Fatal("step = 0 from the file should be rejected")
	}
}

func TestTemplateDecodes(t *testing.T) {
	var fc FileConfig
	if _, err := toml.Decode(Template(), &fc); err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if fc.Dial.Start != nil {
		t.Error("template values should be commented out")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(PathEnv, "")

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got, want := DefaultConfigPath(), filepath.Join("/tmp/xdg", "pitchdial", "config.toml"); got != want {
		t.Errorf("with XDG: DefaultConfigPath = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "relative/dir")
	if got, want := DefaultConfigPath(), filepath.Join(home, ".config", "pitchdial", "config.toml"); got != want {
		t.Errorf("relative XDG: DefaultConfigPath = %q, want %q", got, want)
	}

	t.Setenv(PathEnv, "/etc/pitchdial/rig.toml")
	if got := DefaultConfigPath(); got != "/etc/pitchdial/rig.toml" {
		t.Errorf("with %s: DefaultConfigPath = %q", PathEnv, got)
	}
}
