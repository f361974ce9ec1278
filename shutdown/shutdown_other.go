//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify relays the signals that should end a session. SIGHUP covers the
// experimenter closing the terminal mid-block.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}
