//go:build windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify relays Ctrl+C plus console close, logoff and shutdown, which the
// runtime delivers as SIGTERM, so the tone never outlives the window.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
