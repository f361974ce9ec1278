//go:build linux

package keyboard

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pitchdial/clock"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

var evdevNames = map[uint16]string{
	1:   KeyEscape,
	28:  KeyReturn,
	57:  KeySpace,
	103: KeyUp,
	108: KeyDown,
	105: KeyLeft,
	106: KeyRight,
	16:  "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
}

// Evdev reads every keyboard under /dev/input. The user must be in the
// 'input' group.
type Evdev struct {
	*Buffer
	files []*os.File
	stop  chan struct{}
	once  sync.Once
}

// New opens the platform keyboard backend. keys is unused on linux: evdev
// sees every key.
func New(c clock.Clock, _ []string) (Provider, error) {
	return NewEvdev(c)
}

func NewEvdev(c clock.Clock) (*Evdev, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return nil, fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return nil, fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	e := &Evdev{Buffer: NewBuffer(c), stop: make(chan struct{})}
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		e.files = append(e.files, f)
		go e.readEvents(f)
	}

	if len(e.files) == 0 {
		return nil, fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return e, nil
}

func (e *Evdev) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	for {
		select {
		case <-e.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			e.apply(buf[i : i+inputEventSize])
		}
	}
}

// apply feeds one raw input_event into the buffer, stamped with the time the
// kernel saw it rather than the time it was read.
func (e *Evdev) apply(raw []byte) {
	evType := binary.LittleEndian.Uint16(raw[16:])
	evCode := binary.LittleEndian.Uint16(raw[18:])
	evValue := int32(binary.LittleEndian.Uint32(raw[20:]))

	if evType != evKey {
		return
	}
	name, ok := evdevNames[evCode]
	if !ok {
		return
	}
	at := eventTime(raw)
	if at.IsZero() {
		at = e.clock.Now()
	}
	// value 2 is auto-repeat
	switch evValue {
	case keyPress:
		e.PressAt(name, at)
	case keyRelease:
		e.ReleaseAt(name, at)
	}
}

// eventTime decodes the timeval header. evdev stamps events with
// CLOCK_REALTIME unless the clock id was changed, which nothing here does.
func eventTime(raw []byte) time.Time {
	sec := int64(binary.LittleEndian.Uint64(raw[0:]))
	usec := int64(binary.LittleEndian.Uint64(raw[8:]))
	if sec == 0 && usec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, usec*int64(time.Microsecond))
}

func (e *Evdev) Close() error {
	e.once.Do(func() {
		close(e.stop)
		for _, f := range e.files {
			f.Close()
		}
		e.Buffer.Close()
	})
	return nil
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks evdev access and returns a status message.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
