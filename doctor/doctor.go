package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pitchdial/clock"
	"pitchdial/keyboard"
	"pitchdial/tone"
	"pitchdial/trigger"
)

// Options selects what the trigger check talks to.
type Options struct {
	TriggerPort string
	TriggerBaud int
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("pitchdial doctor - interactive rig diagnostics")
	fmt.Println("==============================================")

	reader := bufio.NewReader(os.Stdin)
	allPass := true

	if !checkKeyboard() {
		allPass = false
	}
	if allPass && !checkTone(reader) {
		allPass = false
	}
	if !checkTrigger(opts) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

func checkKeyboard() bool {
	fmt.Println()
	fmt.Println("[1/3] Key input")

	status, err := keyboard.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", status)

	keys := []string{keyboard.KeyDown, keyboard.KeyUp, keyboard.KeySpace}
	kb, err := keyboard.New(clock.Real{}, keys)
	if err != nil {
		fmt.Printf("  FAIL: could not open keyboard: %v\n", err)
		return false
	}
	defer kb.Close()

	fmt.Println("Press Down, Up, then Space...")
	for _, want := range keys {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ev, err := kb.WaitForFirst(ctx, want)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				fmt.Printf("  FAIL: timeout waiting for %s\n", want)
			} else {
				fmt.Printf("  FAIL: %v\n", err)
			}
			return false
		}
		fmt.Printf("  got %s\n", ev.Key)
	}
	// Evdev reads the real device, so the terminal may still echo.
	resetTerminal()
	fmt.Println("  PASS: all dial keys detected")
	return true
}

func checkTone(reader *bufio.Reader) bool {
	fmt.Println()
	fmt.Println("[2/3] Tone playback")

	player, err := tone.NewPlayer()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer player.Close()

	ctl := tone.NewController(player, clock.Real{}, tone.Range{Min: 100, Max: 1000}, tone.DefaultSettle, tone.DefaultSpec(440))
	fmt.Print("Playing a rising tone...")
	for _, f := range []float64{300, 400, 500, 600} {
		if _, err := ctl.SetFrequency(f); err != nil {
			ctl.Stop()
			fmt.Printf("\n  FAIL: %v\n", err)
			return false
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err := ctl.Stop(); err != nil {
		fmt.Printf("\n  FAIL: %v\n", err)
		return false
	}
	fmt.Println(" done")

	fmt.Print("Did you hear four steps with no gaps? [Y/n]: ")
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "" || answer == "y" || answer == "yes" {
		fmt.Println("  PASS: playback verified by user")
		return true
	}
	fmt.Println("  FAIL: playback not confirmed")
	return false
}

func checkTrigger(opts Options) bool {
	fmt.Println()
	fmt.Println("[3/3] Trigger port")

	ports, err := trigger.Ports()
	if err != nil {
		fmt.Printf("  WARN: %v\n", err)
	} else if len(ports) == 0 {
		fmt.Println("  no serial ports found")
	} else {
		for _, p := range ports {
			fmt.Printf("  found %s\n", p)
		}
	}

	if opts.TriggerPort == "" {
		fmt.Println("  SKIP: no trigger port configured")
		return true
	}

	dev, err := trigger.OpenSerial(opts.TriggerPort, opts.TriggerBaud)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	defer dev.Close()

	code := dev.TriggerCode(trigger.ResponseOnset, nil, 1)
	if err := dev.SendMessage(trigger.Message(code)); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: sent %s to %s\n", trigger.Message(code), opts.TriggerPort)
	return true
}
