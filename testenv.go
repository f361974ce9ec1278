package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pitchdial/clock"
	"pitchdial/dial"
	"pitchdial/display"
	"pitchdial/keyboard"
	"pitchdial/log"
	"pitchdial/tone"
	"pitchdial/trigger"
)

var testSetup time.Duration

// newTestCmd runs one trial headless: keys come from stdin commands, tones go
// to a fake player, and the result is printed as JSON.
func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "test",
		Short:  "Headless stdin-driven trial",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr := dial.Trial{TargetFrequency: trialTarget, Positions: trialPositions, TargetItem: trialItem}
			return runTestMode(cmd.Context(), os.Stdin, os.Stdout, tr, testSetup)
		},
	}
	cmd.Flags().Float64Var(&trialTarget, "target", 450, "target frequency in Hz")
	cmd.Flags().IntVar(&trialItem, "item", 1, "1-based index of the item to reproduce")
	cmd.Flags().StringSliceVar(&trialPositions, "positions", []string{"left", "right"}, "position of each item")
	cmd.Flags().DurationVar(&testSetup, "setup", 0, "time between trial setup and the response cue")
	return cmd
}

func runTestMode(parent context.Context, in io.Reader, out io.Writer, tr dial.Trial, setup time.Duration) error {
	c := clock.Real{}
	kb := keyboard.NewBuffer(c)
	defer kb.Close()

	log.SessionStart("stdin", "test")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg := dial.DefaultConfig()
	go driveKeys(in, kb, cfg.Keys.Quit, eofGrace*cfg.PollInterval, cancel)

	d := dial.New(cfg, dial.Deps{
		Clock:    c,
		Keyboard: kb,
		Player:   tone.NewFakePlayer(c),
		Surface:  &display.Recorder{},
		Monitor:  display.DefaultMonitor,
		Emitter:  trigger.NewEmitter(&trigger.Fake{}),
	})

	c.Sleep(setup)
	res, err := d.Run(ctx, tr)
	if err != nil {
		log.SessionEnd(0)
		return err
	}
	log.SessionEnd(1)
	return printResult(out, res)
}

// eofGrace is how many poll intervals the trial keeps running after stdin
// ends, so keys tapped by the last command are still sampled.
const eofGrace = 3

// driveKeys applies stdin commands to kb. Once input ends it waits grace and
// then cancels the trial, so a script that never commits does not hang.
func driveKeys(in io.Reader, kb *keyboard.Buffer, quit string, grace time.Duration, cancel context.CancelFunc) {
	defer cancel()
	defer time.Sleep(grace)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch cmd {
		case "DOWN":
			kb.Press(arg)
		case "UP":
			kb.Release(arg)
		case "TAP":
			kb.Tap(arg)
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			kb.Tap(quit)
		case "":
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		}
	}
}
