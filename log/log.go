package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

const diagFileName = "diagnostics_log.txt"

// TrialMetrics is the subset of a trial result written to the diagnostics log.
type TrialMetrics struct {
	TargetHz       float64
	ResponseHz     float64
	FirstKey       string
	IdleMs         float64
	ResponseMs     float64
	OffsetHz       int
	PrematureKey   string
	PrematureMs    float64
	Adjustments    int
	TriggersSent   int
	TriggersFailed int
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: PITCHDIAL_LOG_PATH environment variable
	if envPath := os.Getenv("PITCHDIAL_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, diagFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(input, mode string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("input", input).
		Str("mode", mode).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}

func TrialStart(targetHz float64) {
	if !logReady {
		return
	}
	diagLog.Info().Float64("target_hz", targetHz).Msg("trial_start")
}

func ToneChange(fromHz, toHz float64) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Float64("from_hz", fromHz).
		Float64("to_hz", toHz).
		Msg("tone_change")
}

func Trigger(event string, code int, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Warn().Err(err)
	}
	ev.Str("event", event).Int("code", code).Msg("trigger")
}

func Abort(reason string) {
	if !logReady {
		return
	}
	diagLog.Warn().Str("reason", reason).Msg("trial_abort")
}

func TrialResult(m TrialMetrics) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Float64("target_hz", m.TargetHz).
		Float64("response_hz", m.ResponseHz).
		Str("first_key", m.FirstKey).
		Float64("idle_ms", m.IdleMs).
		Float64("response_ms", m.ResponseMs).
		Int("offset_hz", m.OffsetHz).
		Int("adjustments", m.Adjustments).
		Int("triggers_sent", m.TriggersSent)
	if m.TriggersFailed > 0 {
		ev = ev.Int("triggers_failed", m.TriggersFailed)
	}
	if m.PrematureKey != "" {
		ev = ev.Str("premature_key", m.PrematureKey).Float64("premature_ms", m.PrematureMs)
	}
	ev.Msg("trial_result")
}
