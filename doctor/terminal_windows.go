//go:build windows

package doctor

func resetTerminal() {
	// Console modes are restored by the terminal backend itself.
}
