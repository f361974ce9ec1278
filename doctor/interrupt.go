package doctor

import (
	"fmt"
	"os"

	"pitchdial/shutdown"
)

// setupInterruptHandler exits on Ctrl+C. Checks block on hardware, so there
// is nothing to unwind.
func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		resetTerminal()
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(1)
	}()
}
