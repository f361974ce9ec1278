//go:build integration

package test_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("PITCHDIAL_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "PITCHDIAL_TEST_BIN not set; build pitchdial and point it at the binary")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type result struct {
	IdleReactionMs   float64  `json:"idle_reaction_time_in_ms"`
	ResponseMs       float64  `json:"response_time_in_ms"`
	FirstKey         string   `json:"first_key_pressed"`
	ResponseFreq     float64  `json:"response_freq"`
	PrematurePressed bool     `json:"premature_pressed"`
	PrematureKey     *string  `json:"premature_key"`
	PrematureTiming  *float64 `json:"premature_timing"`
	FrequencyOffset  int      `json:"frequency_offset"`
	FrequencyDiffAbs int      `json:"frequency_diff_abs"`
	Performance      string   `json:"performance"`
}

func runPitchdial(t *testing.T, stdin string, args ...string) (out []byte, logDir string, err error) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"test", "--logpath", logDir}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir())
	out, err = cmd.Output()
	return out, logDir, err
}

func runTrial(t *testing.T, stdin string, args ...string) (result, string) {
	t.Helper()
	out, logDir, err := runPitchdial(t, stdin, args...)
	if err != nil {
		t.Fatalf("pitchdial exited with error: %v\noutput: %s", err, out)
	}
	var res result
	if err := json.Unmarshal(out, &res); err != nil {
		t.Fatalf("bad result JSON: %v\n%s", err, out)
	}
	return res, logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestTrialEndToEnd(t *testing.T) {
	res, logDir := runTrial(t, cmds(
		"SLEEP 200", "TAP up",
		"SLEEP 300", "TAP down",
		"SLEEP 300", "TAP down",
		"SLEEP 300", "TAP space",
		"SLEEP 300",
	), "--target", "450")

	if res.FirstKey != "up" || res.ResponseFreq != 400 {
		t.Errorf("got first=%q freq=%v, want up 400", res.FirstKey, res.ResponseFreq)
	}
	if res.FrequencyOffset != -50 || res.FrequencyDiffAbs != 50 || res.Performance != "-50" {
		t.Errorf("evaluation = %+v", res)
	}
	if res.IdleReactionMs <= 0 || res.ResponseMs <= 0 {
		t.Errorf("timings not positive: idle=%v response=%v", res.IdleReactionMs, res.ResponseMs)
	}

	diag := readLog(t, logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "trial_start", "tone_change", "trial_result", "trigger"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q", want)
		}
	}
}

func TestTrialPremature(t *testing.T) {
	res, _ := runTrial(t, cmds("TAP z", "SLEEP 500", "TAP space", "SLEEP 300"), "--setup", "200ms")
	if !res.PrematurePressed || res.PrematureKey == nil || *res.PrematureKey != "z" {
		t.Fatalf("premature = %v %v, want z", res.PrematurePressed, res.PrematureKey)
	}
	if res.PrematureTiming == nil || *res.PrematureTiming <= 0 {
		t.Errorf("PrematureTiming = %v, want positive", res.PrematureTiming)
	}
	if res.FirstKey != "space" || res.ResponseFreq != 450 {
		t.Errorf("premature press leaked: %+v", res)
	}
}

func TestTrialQuit(t *testing.T) {
	out, logDir, err := runPitchdial(t, cmds("SLEEP 200", "TAP up", "SLEEP 300", "QUIT"))
	var exitErr *exec.ExitError
	if err == nil || !errors.As(err, &exitErr) || exitErr.ExitCode() != 2 {
		t.Fatalf("err = %v, want exit status 2\noutput: %s", err, out)
	}
	if !strings.Contains(readLog(t, logDir, "diagnostics_log.txt"), "trial_abort") {
		t.Error("expected trial_abort in diagnostics")
	}
}

func TestTrialEOFCancels(t *testing.T) {
	_, _, err := runPitchdial(t, cmds("SLEEP 100"))
	if err == nil {
		t.Fatal("expected failure when input ends before a response")
	}
}

func TestTrialCommitAsLastCommand(t *testing.T) {
	res, _ := runTrial(t, cmds("SLEEP 200", "TAP up", "SLEEP 300", "TAP space"))
	if res.ResponseFreq != 500 {
		t.Errorf("response_freq = %v, want 500", res.ResponseFreq)
	}
}
