package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"pitchdial/dial"
	"pitchdial/display"
)

// FileConfig represents the TOML configuration file. Every field is optional;
// unset fields keep the built-in default.
type FileConfig struct {
	Dial      DialConfig      `toml:"dial"`
	Calibrate CalibrateConfig `toml:"calibrate"`
	Tone      ToneConfig      `toml:"tone"`
	Keys      KeysConfig      `toml:"keys"`
	Trigger   TriggerConfig   `toml:"trigger"`
	Monitor   MonitorConfig   `toml:"monitor"`
	Input     InputConfig     `toml:"input"`
}

type DialConfig struct {
	Start    *float64 `toml:"start"`
	Step     *float64 `toml:"step"`
	Min      *float64 `toml:"min"`
	Max      *float64 `toml:"max"`
	PollMs   *int     `toml:"poll-ms"`
	SettleMs *int     `toml:"settle-ms"`
}

type CalibrateConfig struct {
	DurationS *float64 `toml:"duration-s"`
	Start     *float64 `toml:"start"`
	Step      *float64 `toml:"step"`
	Min       *float64 `toml:"min"`
	Max       *float64 `toml:"max"`
	Lower     *string  `toml:"lower"`
	Raise     *string  `toml:"raise"`
}

type ToneConfig struct {
	ChunkMs *int     `toml:"chunk-ms"`
	Volume  *float64 `toml:"volume"`
	Stereo  *bool    `toml:"stereo"`
}

type KeysConfig struct {
	Down   *string `toml:"down"`
	Up     *string `toml:"up"`
	Commit *string `toml:"commit"`
	Quit   *string `toml:"quit"`
}

type TriggerConfig struct {
	Port *string `toml:"port"`
	Baud *int    `toml:"baud"`
}

type MonitorConfig struct {
	WidthCm    *float64 `toml:"width-cm"`
	DistanceCm *float64 `toml:"distance-cm"`
	WidthPx    *int     `toml:"width-px"`
}

type InputConfig struct {
	Backend *string `toml:"backend"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplyDial overlays file values onto c.
func (f FileConfig) ApplyDial(c *dial.Config) {
	d := f.Dial
	setFloat(&c.StartFrequency, d.Start)
	setFloat(&c.Step, d.Step)
	setFloat(&c.Range.Min, d.Min)
	setFloat(&c.Range.Max, d.Max)
	setMs(&c.PollInterval, d.PollMs)
	setMs(&c.Settle, d.SettleMs)

	setString(&c.Keys.Down, f.Keys.Down)
	setString(&c.Keys.Up, f.Keys.Up)
	setString(&c.Keys.Commit, f.Keys.Commit)
	setString(&c.Keys.Quit, f.Keys.Quit)

	setMs(&c.Tone.Chunk, f.Tone.ChunkMs)
	setFloat(&c.Tone.Volume, f.Tone.Volume)
	setBool(&c.Tone.Stereo, f.Tone.Stereo)
}

// ApplySweep overlays file values onto c. Tone, settle and quit key settings
// are shared with the dial.
func (f FileConfig) ApplySweep(c *dial.SweepConfig) {
	k := f.Calibrate
	if k.DurationS != nil {
		c.Duration = time.Duration(*k.DurationS * float64(time.Second))
	}
	setFloat(&c.StartFrequency, k.Start)
	setFloat(&c.Step, k.Step)
	setFloat(&c.Range.Min, k.Min)
	setFloat(&c.Range.Max, k.Max)
	setString(&c.Lower, k.Lower)
	setString(&c.Raise, k.Raise)
	setString(&c.Quit, f.Keys.Quit)
	setMs(&c.PollInterval, f.Dial.PollMs)
	setMs(&c.Settle, f.Dial.SettleMs)

	setMs(&c.Tone.Chunk, f.Tone.ChunkMs)
	setFloat(&c.Tone.Volume, f.Tone.Volume)
	setBool(&c.Tone.Stereo, f.Tone.Stereo)
}

func (f FileConfig) ApplyMonitor(m *display.Monitor) {
	setFloat(&m.WidthCm, f.Monitor.WidthCm)
	setFloat(&m.DistanceCm, f.Monitor.DistanceCm)
	if f.Monitor.WidthPx != nil {
		m.WidthPx = *f.Monitor.WidthPx
	}
}

// Validate rejects settings the dial cannot run with.
func Validate(c dial.Config) error {
	if c.Range.Min <= 0 || c.Range.Max < c.Range.Min {
		return fmt.Errorf("invalid frequency range [%g, %g]", c.Range.Min, c.Range.Max)
	}
	if c.Step <= 0 {
		return fmt.Errorf("step must be > 0, got %g", c.Step)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be > 0, got %v", c.PollInterval)
	}
	if c.Tone.Volume < 0 || c.Tone.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %g", c.Tone.Volume)
	}
	k := c.Keys
	if k.Down == "" || k.Up == "" || k.Commit == "" {
		return fmt.Errorf("down, up and commit keys are required")
	}
	if k.Down == k.Up || k.Down == k.Commit || k.Up == k.Commit || (k.Quit != "" && (k.Quit == k.Down || k.Quit == k.Up || k.Quit == k.Commit)) {
		return fmt.Errorf("dial keys must be distinct")
	}
	return nil
}

// ValidateSweep rejects calibration settings the sweep cannot run with.
func ValidateSweep(c dial.SweepConfig) error {
	if c.Range.Min <= 0 || c.Range.Max < c.Range.Min {
		return fmt.Errorf("invalid calibration range [%g, %g]", c.Range.Min, c.Range.Max)
	}
	if c.Step <= 0 {
		return fmt.Errorf("calibration step must be > 0, got %g", c.Step)
	}
	if c.Duration <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("calibration duration and poll interval must be > 0")
	}
	if c.Tone.Volume < 0 || c.Tone.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %g", c.Tone.Volume)
	}
	if c.Lower == "" || c.Raise == "" || c.Lower == c.Raise {
		return fmt.Errorf("calibration lower and raise keys must be set and distinct")
	}
	if c.Quit == c.Lower || c.Quit == c.Raise {
		return fmt.Errorf("quit key %q clashes with a calibration key", c.Quit)
	}
	return nil
}

// Template is written by `pitchdial config` for a fresh install.
func Template() string {
	d := dial.DefaultConfig()
	s := dial.DefaultSweepConfig()
	m := display.DefaultMonitor
	return fmt.Sprintf(`# pitchdial configuration
# Uncomment a value to enable it. CLI flags override config values.

[dial]
# start = %g          # Starting frequency (Hz)
# step = %g            # Hz per key press
# min = %g            # Lowest frequency
# max = %g            # Highest frequency
# poll-ms = %d         # Key sampling cadence
# settle-ms = %d        # Overlap between old and new tone

[calibrate]
# duration-s = %g
# start = %g
# step = %g
# min = %g
# max = %g
# lower = %q
# raise = %q

[tone]
# chunk-ms = %d
# volume = %g
# stereo = true

[keys]
# down = %q
# up = %q
# commit = %q
# quit = %q

[trigger]
# port = "/dev/ttyUSB0" # Serial port of the sync box; unset disables markers
# baud = 115200

[monitor]
# width-cm = %g
# distance-cm = %g
# width-px = %d

[input]
# backend = "auto"      # auto, evdev, hotkey or terminal
`,
		d.StartFrequency, d.Step, d.Range.Min, d.Range.Max,
		d.PollInterval.Milliseconds(), d.Settle.Milliseconds(),
		s.Duration.Seconds(), s.StartFrequency, s.Step, s.Range.Min, s.Range.Max, s.Lower, s.Raise,
		d.Tone.Chunk.Milliseconds(), d.Tone.Volume,
		d.Keys.Down, d.Keys.Up, d.Keys.Commit, d.Keys.Quit,
		m.WidthCm, m.DistanceCm, m.WidthPx,
	)
}

func setFloat(target *float64, value *float64) {
	if value != nil {
		*target = *value
	}
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

func setBool(target *bool, value *bool) {
	if value != nil {
		*target = *value
	}
}

func setMs(target *time.Duration, value *int) {
	if value != nil {
		*target = time.Duration(*value) * time.Millisecond
	}
}
