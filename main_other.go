//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Hotkey registration must happen on the main thread on macOS.
	code := 0
	mainthread.Init(func() { code = run(os.Args[1:]) })
	os.Exit(code)
}
