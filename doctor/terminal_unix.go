//go:build !windows

package doctor

import (
	"os"
	"os/exec"

	"golang.org/x/term"
)

// resetTerminal undoes raw mode or disabled echo left behind by an input
// backend that exited abnormally.
func resetTerminal() {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	cmd := exec.Command("stty", "sane")
	cmd.Stdin = os.Stdin
	cmd.Run()
}
