package keyboard

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"

	"pitchdial/clock"
)

// Terminal reads keys from stdin in raw mode. Terminals only report
// key-down, so every key arrives as a Tap. Ctrl+C is delivered as "q".
type Terminal struct {
	*Buffer
	fd       int
	oldState *term.State
	once     sync.Once
}

func NewTerminal(c clock.Clock) (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	t := &Terminal{Buffer: NewBuffer(c), fd: fd, oldState: oldState}
	go t.read()
	return t, nil
}

func (t *Terminal) read() {
	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if name := decodeTerminalKey(buf[:n]); name != "" {
			t.Tap(name)
		}
	}
}

func decodeTerminalKey(b []byte) string {
	if len(b) == 3 && b[0] == 0x1b && b[1] == '[' {
		switch b[2] {
		case 'A':
			return KeyUp
		case 'B':
			return KeyDown
		case 'C':
			return KeyRight
		case 'D':
			return KeyLeft
		}
		return ""
	}
	if len(b) != 1 {
		return ""
	}
	c := b[0]
	switch {
	case c == ' ':
		return KeySpace
	case c == '\r' || c == '\n':
		return KeyReturn
	case c == 0x1b:
		return KeyEscape
	case c == 3: // Ctrl+C
		return "q"
	case c >= 'a' && c <= 'z':
		return string(rune(c))
	case c >= 'A' && c <= 'Z':
		return string(rune(c - 'A' + 'a'))
	}
	return ""
}

func (t *Terminal) Close() error {
	var err error
	t.once.Do(func() {
		err = term.Restore(t.fd, t.oldState)
		t.Buffer.Close()
	})
	return err
}
